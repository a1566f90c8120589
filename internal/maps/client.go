// Package maps wraps the OpenStreetMap geocoding and routing services.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrLocationNotFound is returned when an address cannot be geocoded.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNoRoute is returned when no route connects two points.
	ErrNoRoute = errors.New("no route found")
)

const maxResponseBytes = 1 << 20

type httpClient struct {
	client    *http.Client
	userAgent string
}

func newHTTPClient(timeout time.Duration, userAgent string) httpClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return httpClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// getJSON performs a GET request and decodes the JSON response into out.
func (c httpClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}

	return json.NewDecoder(body).Decode(out)
}
