package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/basel-ax/dallegen/internal/config"
	"github.com/basel-ax/dallegen/internal/domain"
	"github.com/basel-ax/dallegen/internal/infrastructure/openai"
	"github.com/basel-ax/dallegen/internal/repository"
)

// ImageGenerationService implements the domain.ImageGenerator interface
type ImageGenerationService struct {
	api       domain.ImageAPI
	history   repository.GenerationRepository
	outputDir string
	size      int
}

var _ domain.ImageGenerator = (*ImageGenerationService)(nil)

// NewImageGenerationService creates a new image generation service.
// A nil history repository disables the generation log.
func NewImageGenerationService(cfg *config.Config, creds domain.Credentials, history repository.GenerationRepository) *ImageGenerationService {
	client := openai.NewClient(creds, openai.WithBaseURL(cfg.APIBaseURL))
	return newImageGenerationService(client, history, cfg.OutputDir, cfg.ImageSize)
}

func newImageGenerationService(api domain.ImageAPI, history repository.GenerationRepository, outputDir string, size int) *ImageGenerationService {
	if history == nil {
		history = repository.NopGenerationRepository{}
	}
	return &ImageGenerationService{
		api:       api,
		history:   history,
		outputDir: outputDir,
		size:      size,
	}
}

// Generate creates an image for prompt and stores it as <output_dir>/<prompt>.png,
// replacing any earlier image for the same prompt
func (s *ImageGenerationService) Generate(ctx context.Context, prompt string) (*domain.GenerationResult, error) {
	if err := domain.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	log.Printf("Generating image for %s", prompt)
	id := s.recordStart(ctx, prompt)

	result, err := s.generate(ctx, prompt)
	if err != nil {
		s.recordFailure(ctx, id, err)
		return nil, err
	}

	s.recordSuccess(ctx, id, result)
	log.Printf("Generated image stored in: %s (%d bytes)", result.FilePath, result.Bytes)

	return result, nil
}

func (s *ImageGenerationService) generate(ctx context.Context, prompt string) (*domain.GenerationResult, error) {
	resp, err := s.api.CreateImage(ctx, domain.ImageGenerationRequest{
		Prompt: prompt,
		Size:   s.size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	if err := s.ensureOutputDir(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.outputDir, domain.FileNameForPrompt(prompt))
	n, err := s.download(ctx, resp.ImageURL, path)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	return &domain.GenerationResult{
		FilePath: path,
		ImageURL: resp.ImageURL,
		Bytes:    n,
	}, nil
}

// ensureOutputDir creates the output directory, but not its parents
func (s *ImageGenerationService) ensureOutputDir() error {
	info, err := os.Stat(s.outputDir)
	if err == nil {
		if !info.IsDir() {
			return domain.NewError(domain.KindIO, s.outputDir+" is not a directory", nil)
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return domain.NewError(domain.KindIO, "cannot stat "+s.outputDir, err)
	}

	if err := os.Mkdir(s.outputDir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return domain.NewError(domain.KindIO, "cannot create "+s.outputDir, err)
	}
	return nil
}

// download writes the image to a temporary file and renames it onto path,
// so a failed download leaves any previous image in place
func (s *ImageGenerationService) download(ctx context.Context, url, path string) (int64, error) {
	tmp, err := os.CreateTemp(s.outputDir, ".download-*.tmp")
	if err != nil {
		return 0, domain.NewError(domain.KindIO, "cannot create temporary file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := s.api.Download(ctx, url, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = domain.NewError(domain.KindIO, "cannot close temporary file", closeErr)
	}
	if err != nil {
		return 0, err
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, domain.NewError(domain.KindIO, "cannot set file mode", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, domain.NewError(domain.KindIO, "cannot write "+path, err)
	}

	return n, nil
}

func (s *ImageGenerationService) recordStart(ctx context.Context, prompt string) int {
	id, err := s.history.Create(ctx, prompt)
	if err != nil {
		log.Printf("Error recording generation for prompt %q: %v", prompt, err)
		return 0
	}
	return id
}

func (s *ImageGenerationService) recordFailure(ctx context.Context, id int, cause error) {
	if id == 0 {
		return
	}
	if err := s.history.MarkFailed(ctx, id, cause.Error()); err != nil {
		log.Printf("Error updating status for generation ID %d: %v", id, err)
	}
}

func (s *ImageGenerationService) recordSuccess(ctx context.Context, id int, result *domain.GenerationResult) {
	if id == 0 {
		return
	}
	if err := s.history.MarkDone(ctx, id, result.FilePath, result.ImageURL); err != nil {
		log.Printf("Error updating status for generation ID %d: %v", id, err)
	}
}
