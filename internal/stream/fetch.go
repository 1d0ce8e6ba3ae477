// Package stream holds the pieces shared by the adaptive-streaming engines: manifest fetching and URI resolution.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/PizzaHomicide/vplay/internal/log"
)

// MaxManifestSize bounds how much of a manifest response is read
const MaxManifestSize = 8 << 20

// ErrManifestTooLarge is returned when a manifest exceeds MaxManifestSize
var ErrManifestTooLarge = errors.New("manifest too large")

// Fetcher downloads manifests over HTTP
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// Fetch retrieves the document at rawURL.  Non-2xx responses are errors.
func (f Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	log.Trace("Fetching manifest", "url", rawURL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status fetching manifest: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if len(data) > MaxManifestSize {
		return nil, ErrManifestTooLarge
	}

	return data, nil
}

// Resolve resolves ref against the manifest URL it was found in
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid reference %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
