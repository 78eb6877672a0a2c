package domain

import (
	"context"
	"fmt"
	"io"
)

// Credentials authenticate requests to the image generation API
type Credentials struct {
	OrganizationID string
	SecretKey      string
}

// Validate reports a configuration error when either field is empty
func (c Credentials) Validate() error {
	if c.OrganizationID == "" {
		return NewError(KindConfigInvalid, "organization_id is empty", nil)
	}
	if c.SecretKey == "" {
		return NewError(KindConfigInvalid, "secret_key is empty", nil)
	}
	return nil
}

// ImageGenerationRequest represents the parameters for image generation
type ImageGenerationRequest struct {
	Prompt string
	Size   int
}

// SizeString returns the square size in the "WxH" form the API expects
func (r ImageGenerationRequest) SizeString() string {
	return fmt.Sprintf("%dx%d", r.Size, r.Size)
}

// ImageGenerationResponse represents the response from the image generation API
type ImageGenerationResponse struct {
	Created  int64
	ImageURL string
}

// GenerationResult is what a successful generation leaves behind on disk
type GenerationResult struct {
	FilePath string
	ImageURL string
	Bytes    int64
}

// ImageAPI defines the remote operations needed to produce an image
type ImageAPI interface {
	// CreateImage asks the API for one image and returns its URL
	CreateImage(ctx context.Context, req ImageGenerationRequest) (*ImageGenerationResponse, error)

	// Download streams the bytes behind url into dst
	Download(ctx context.Context, url string, dst io.Writer) (int64, error)
}

// ImageGenerator turns a prompt into a local image file
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*GenerationResult, error)
}
