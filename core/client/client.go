package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Client defines the interface for fetching FreshPoint product pages.
type Client interface {
	// Fetch downloads the raw product page markup for the given location.
	Fetch(ctx context.Context, locationID int) (string, error)
	// PageURL returns the product page URL for the given location.
	PageURL(locationID int) string
}

// Fingerprint returns the content fingerprint of page markup.
// Two fetches with equal fingerprints carry identical catalogs, which lets
// callers short-circuit parsing and reconciliation.
func Fingerprint(contents string) string {
	sum := sha256.Sum256([]byte(contents))
	return hex.EncodeToString(sum[:])
}

// NewClient creates a new page fetch client based on the configuration.
func NewClient(cfg Config) Client {
	// Ensure timeout defaults if not set
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	// Create custom transport with strict timeouts
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration, // Connection setup timeout
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration, // TLS Handshake timeout
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration, // Wait for first response byte timeout
	}

	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

func (c *httpClient) PageURL(locationID int) string {
	return fmt.Sprintf("%s/device/product-list/%d", c.baseURL, locationID)
}

func (c *httpClient) Fetch(ctx context.Context, locationID int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(locationID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build page request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page for location %d: %w", locationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching page for location %d", resp.StatusCode, locationID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read page body for location %d: %w", locationID, err)
	}

	return string(body), nil
}
