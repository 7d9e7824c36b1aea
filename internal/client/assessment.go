package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"skillcheck/internal/model"
)

// Client wraps the assessment API consumed by the session controller. It
// implements session.API. Calls are single-shot: per-answer syncs are
// best-effort by contract, and the load/final paths surface their errors to
// the state machine instead of retrying.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an assessment API client with a candidate token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doRequest performs one HTTP round trip and decodes the response into out.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	url := c.baseURL + path
	log.Printf("[Assessment Client] %s %s", method, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		log.Printf("[Assessment Client] ERROR: API returned %d: %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("assessment API error %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Start fetches the question set, remaining time, and any existing response
// sheet for an assessment.
func (c *Client) Start(ctx context.Context, assessmentID string) (*model.StartAssessmentResponse, error) {
	var resp model.StartAssessmentResponse
	path := fmt.Sprintf("/v1/start-assessment/%s", assessmentID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SyncAnswers pushes the current response sheet. The ack body is ignored.
func (c *Client) SyncAnswers(ctx context.Context, assessmentID string, sheet *model.ResponseSheet) error {
	path := fmt.Sprintf("/v1/assessment-submission/%s", assessmentID)
	return c.doRequest(ctx, http.MethodPost, path, model.SubmissionRequest{ResponseSheet: sheet}, nil)
}

// SubmitFinal performs the terminal submission and returns the graded result.
func (c *Client) SubmitFinal(ctx context.Context, assessmentID string, sheet *model.ResponseSheet) (*model.FinalResult, error) {
	var result model.FinalResult
	path := fmt.Sprintf("/v1/assessment-submission/%s/final", assessmentID)
	if err := c.doRequest(ctx, http.MethodPut, path, model.SubmissionRequest{ResponseSheet: sheet}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login exchanges candidate credentials for a token. It needs no client
// state, so it is a package function.
func Login(ctx context.Context, baseURL, username, password string) (*model.LoginResponse, error) {
	c := NewClient(baseURL, "")
	var resp model.LoginResponse
	body := model.LoginRequest{Username: username, Password: password}
	if err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
