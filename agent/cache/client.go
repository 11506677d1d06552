package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/careloop/health-coach/agent/contract"
)

const maxResponseSizeBytes = 2 << 20

// ClientConfig configures the REST client for the medication API.
type ClientConfig struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"http://localhost:8080"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// Client talks to the medication REST surface. All failures wrap
// ErrTransport so callers can keep their last-known-good view.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("medication api base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid medication api url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type medicationListResponse struct {
	Medications []contractx.MedicationRecord `json:"medications"`
}

// ListMedications fetches the full server-side list.
func (c *Client) ListMedications(ctx context.Context) ([]contractx.MedicationRecord, error) {
	raw, err := c.do(ctx, http.MethodGet, "/medications")
	if err != nil {
		return nil, err
	}

	var parsed medicationListResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode medication list: %v", contractx.ErrTransport, err)
	}
	return parsed.Medications, nil
}

// DeleteMedication removes one record by name. Deleting an absent name is
// success on the server, so only transport problems surface here.
func (c *Client) DeleteMedication(ctx context.Context, name string) error {
	normalized := contractx.NormalizeMedicationName(name)
	if normalized == "" {
		return fmt.Errorf("%w: medication name is empty", contractx.ErrValidation)
	}
	_, err := c.do(ctx, http.MethodDelete, "/medications/"+url.PathEscape(normalized))
	return err
}

// ClearMedications removes every record.
func (c *Client) ClearMedications(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/medications")
	return err
}

func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", contractx.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", contractx.ErrTransport, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: http status=%d body=%s", contractx.ErrTransport, resp.StatusCode, string(raw))
	}
	return raw, nil
}

var _ contractx.MedicationAPI = (*Client)(nil)
