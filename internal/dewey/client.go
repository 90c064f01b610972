// Package dewey is a client for the Dewey Data file listing API: paginated
// file listings, product metadata, file downloads and sample reads.
package dewey

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	appConfig "deweydata/config"
)

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *slog.Logger
}

func New(cfg *appConfig.Config) *Client {
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = appConfig.DefaultAPIBaseURL
	}
	return &Client{
		httpClient: &http.Client{},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     slog.Default(),
	}
}

// WithLogger returns a copy of c that logs to logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	cp := *c
	cp.logger = logger
	return &cp
}

// Endpoint resolves a product ID to its file listing URL. Values that already
// start with https:// are returned unchanged.
func (c *Client) Endpoint(product string) string {
	if strings.HasPrefix(product, "https://") {
		return product
	}
	return fmt.Sprintf("%s/%s/files", c.baseURL, product)
}

// getJSON issues an authenticated GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{URL: endpoint, Err: err}
	}
	if len(params) > 0 {
		q := req.URL.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{URL: endpoint, Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &UnauthorizedError{URL: endpoint}
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return &ValidationError{URL: endpoint, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &TransportError{URL: endpoint, Status: resp.StatusCode}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ValidationError{URL: endpoint, Message: fmt.Sprintf("decode JSON: %v", err)}
	}
	return nil
}
