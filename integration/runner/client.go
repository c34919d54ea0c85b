package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/internal/session"
)

// PollInterval is how often WaitForHealthy checks the API
const PollInterval = 1 * time.Second

// ErrorResponse mirrors the API's error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusError is returned for any non-2xx API response
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned status %d", e.Status)
	}
	return fmt.Sprintf("API returned status %d: %s", e.Status, e.Message)
}

// CreateSession opens a session on scenarioFile and returns its title view
func CreateSession(ctx context.Context, client *http.Client, baseURL, scenarioFile string) (session.View, error) {
	body, err := json.Marshal(map[string]string{"scenario": scenarioFile})
	if err != nil {
		return session.View{}, fmt.Errorf("failed to marshal create request: %w", err)
	}

	view, _, err := doView(ctx, client, http.MethodPost, baseURL+"/v1/sessions", body)
	return view, err
}

// PostOp applies one operation. A refused operation yields a *StatusError.
func PostOp(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, op, next string) (session.View, int, error) {
	var body []byte
	if next != "" {
		var err error
		if body, err = json.Marshal(map[string]string{"next": next}); err != nil {
			return session.View{}, 0, fmt.Errorf("failed to marshal op request: %w", err)
		}
	}
	url := fmt.Sprintf("%s/v1/sessions/%s/%s", baseURL, id, op)
	return doView(ctx, client, http.MethodPost, url, body)
}

// GetSession retrieves the current view of a session
func GetSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (session.View, error) {
	view, _, err := doView(ctx, client, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s", baseURL, id), nil)
	return view, err
}

// DeleteSession ends a session
func DeleteSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/v1/sessions/%s", baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete session returned %d (expected 204)", resp.StatusCode)
	}
	return nil
}

// WaitForHealthy polls /health until the API answers 200 or timeout passes
func WaitForHealthy(ctx context.Context, client *http.Client, baseURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
		if err != nil {
			return fmt.Errorf("failed to create health request: %w", err)
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("API not healthy after %v: %w", timeout, ctx.Err())
		case <-time.After(PollInterval):
		}
	}
}

func doView(ctx context.Context, client *http.Client, method, url string, body []byte) (session.View, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return session.View{}, 0, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return session.View{}, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return session.View{}, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		_ = json.Unmarshal(data, &errResp)
		return session.View{}, resp.StatusCode, &StatusError{Status: resp.StatusCode, Message: errResp.Error}
	}

	var view session.View
	if err := json.Unmarshal(data, &view); err != nil {
		return session.View{}, resp.StatusCode, fmt.Errorf("failed to parse session view: %w", err)
	}
	return view, resp.StatusCode, nil
}
