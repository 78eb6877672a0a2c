package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/basel-ax/dallegen/internal/domain"
)

const (
	// DefaultBaseURL is the public OpenAI API endpoint
	DefaultBaseURL = "https://api.openai.com"

	generationsPath = "/v1/images/generations"
)

// Client represents the OpenAI images API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      domain.Credentials
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL points the client at another API host
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewClient creates a new OpenAI images API client
func NewClient(creds domain.Credentials, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		creds:      creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createImageRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type createImageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// CreateImage requests a single image and returns its URL
func (c *Client) CreateImage(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageGenerationResponse, error) {
	payload, err := json.Marshal(createImageRequest{
		Prompt: req.Prompt,
		N:      1,
		Size:   req.SizeString(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generationsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.creds.SecretKey)
	httpReq.Header.Set("OpenAI-Organization", c.creds.OrganizationID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewError(domain.KindGeneration, "failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewStatusError(domain.KindGeneration, resp.StatusCode, upstreamMessage(body))
	}

	var result createImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, domain.NewError(domain.KindGeneration, "failed to decode response", err)
	}

	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return nil, domain.NewError(domain.KindGeneration, "response contains no image url", nil)
	}

	return &domain.ImageGenerationResponse{
		Created:  result.Created,
		ImageURL: result.Data[0].URL,
	}, nil
}

// Download copies the image at url into dst and returns the number of bytes written
func (c *Client) Download(ctx context.Context, url string, dst io.Writer) (int64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, domain.NewError(domain.KindDownload, "failed to create request", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, domain.NewError(domain.KindDownload, "failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, domain.NewStatusError(domain.KindDownload, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	w := &errWriter{w: dst}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		if w.err != nil {
			return n, domain.NewError(domain.KindIO, "failed to write image", w.err)
		}
		return n, domain.NewError(domain.KindDownload, "failed to read image body", err)
	}
	if n == 0 {
		return 0, domain.NewError(domain.KindDownload, "image body is empty", nil)
	}

	return n, nil
}

// upstreamMessage extracts the API error message, falling back to the raw body
func upstreamMessage(body []byte) string {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// errWriter remembers write failures so they are not reported as download errors
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
