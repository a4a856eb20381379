package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no validator endpoint is set.
var ErrNotConfigured = errors.New("no validator endpoint configured")

// Client talks to the external GTFS validator service. The service is an
// opaque collaborator: it receives a feed ZIP and answers with a
// structured error/warning report that is passed through unmodified.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Validate uploads the feed and returns the validator's report verbatim.
func (c *Client) Validate(ctx context.Context, fileName string, feed []byte) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("building validation request: %w", err)
	}
	if _, err := part.Write(feed); err != nil {
		return nil, fmt.Errorf("building validation request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building validation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate", &body)
	if err != nil {
		return nil, fmt.Errorf("building validation request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling validator: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading validator response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("validator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return json.RawMessage(data), nil
}
