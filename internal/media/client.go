package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	// ClientTimeout is the total request timeout. Image generation
	// is slow, so this is far above typical API timeouts.
	ClientTimeout = 120 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
)

// ErrGenerationRejected indicates the image service refused the
// request with a client error; retrying will not help.
var ErrGenerationRejected = errors.New("image service rejected request")

// RenderRequest is one creative to render.
type RenderRequest struct {
	CampaignID string   `json:"campaign_id"`
	Kind       string   `json:"kind"`
	Prompt     string   `json:"prompt,omitempty"`
	SourceURLs []string `json:"source_urls"`
}

// Renderer produces a hosted URL for a requested creative.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (string, error)
}

// ImageClient calls the external image generation service.
type ImageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewImageClient creates a client for the image service.
func NewImageClient(baseURL, apiKey string) *ImageClient {
	return &ImageClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: ClientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: TLSHandshakeTimeout,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Render submits a generation request and returns the hosted URL of
// the finished creative.
func (c *ImageClient) Render(ctx context.Context, renderReq RenderRequest) (string, error) {
	body, err := json.Marshal(renderReq)
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read image service response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", fmt.Errorf("%w: status %d", ErrGenerationRejected, resp.StatusCode)
	default:
		return "", fmt.Errorf("image service error: status %d", resp.StatusCode)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode image service response: %w", err)
	}
	if result.URL == "" {
		return "", errors.New("image service returned no URL")
	}

	return result.URL, nil
}
