// Package facematch is the HTTP client for the external face-matching
// service. This backend never runs the matching algorithm itself; it sends
// two images and consumes the distance metric.
package facematch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dhanush-hc/hrms-backend-go/internal/config"
)

// Client wraps the face-matching service API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a face-matching client from configuration.
func NewClient(cfg config.FaceMatchConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// APIError represents a face-matching service error
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("facematch API error [%d] %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

type compareRequest struct {
	ReferenceImage string `json:"reference_image"`
	ProbeImage     string `json:"probe_image"`
}

type compareResponse struct {
	// Distance is the embedding distance; lower means more similar.
	Distance      float64 `json:"distance"`
	FacesDetected int     `json:"faces_detected"`
	Message       string  `json:"message,omitempty"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// CompareFaces submits a reference/probe pair and returns the embedding
// distance (0 identical, 1 unrelated).
func (c *Client) CompareFaces(ctx context.Context, referenceB64, probeB64 string) (float64, error) {
	payload, err := json.Marshal(compareRequest{
		ReferenceImage: referenceB64,
		ProbeImage:     probeB64,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal compare request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/compare", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build compare request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call face match service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read face match response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err != nil {
			apiErr.Message = string(body)
		}
		return 0, &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  apiErr.ErrorCode,
			Message:    apiErr.Message,
		}
	}

	var result compareResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("decode face match response: %w", err)
	}

	return result.Distance, nil
}
