package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/basel-ax/dallegen/internal/domain"
)

// mockImageAPI is a mock implementation of domain.ImageAPI.
type mockImageAPI struct {
	CreateImageFunc func(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageGenerationResponse, error)
	DownloadFunc    func(ctx context.Context, url string, dst io.Writer) (int64, error)

	createCalls []domain.ImageGenerationRequest
}

func (m *mockImageAPI) CreateImage(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageGenerationResponse, error) {
	m.createCalls = append(m.createCalls, req)
	if m.CreateImageFunc != nil {
		return m.CreateImageFunc(ctx, req)
	}
	return &domain.ImageGenerationResponse{ImageURL: "http://x/img.png"}, nil
}

func (m *mockImageAPI) Download(ctx context.Context, url string, dst io.Writer) (int64, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, url, dst)
	}
	n, err := dst.Write([]byte("image"))
	return int64(n), err
}

// serving returns a mock that yields payload for every download
func serving(payload []byte) *mockImageAPI {
	return &mockImageAPI{
		DownloadFunc: func(ctx context.Context, url string, dst io.Writer) (int64, error) {
			n, err := dst.Write(payload)
			return int64(n), err
		},
	}
}

// mockRepository records history calls.
type mockRepository struct {
	mu        sync.Mutex
	nextID    int
	createErr error
	deleteErr error
	deleted   int64
	created   []string
	done      map[int]string
	failed    map[int]string
	cutoffs   []time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		nextID: 1,
		done:   make(map[int]string),
		failed: make(map[int]string),
	}
}

func (m *mockRepository) EnsureSchema(context.Context) error { return nil }

func (m *mockRepository) Create(_ context.Context, prompt string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.created = append(m.created, prompt)
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *mockRepository) MarkDone(_ context.Context, id int, filePath, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[id] = filePath
	return nil
}

func (m *mockRepository) MarkFailed(_ context.Context, id int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[id] = reason
	return nil
}

func (m *mockRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return m.deleted, nil
}

func (m *mockRepository) ListRecent(context.Context, int) ([]domain.Generation, error) {
	return nil, nil
}
