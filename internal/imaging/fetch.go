package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFetched marks content addresses with no stored payload.
var ErrNotFetched = errors.New("image not found for content address")

// Fetcher retrieves raw image bytes for a content address. The upload
// subsystem stores blobs under content addresses and notifies the service;
// the detection worker fetches the bytes back through this interface.
type Fetcher interface {
	Fetch(ctx context.Context, contentAddress string) ([]byte, error)
}

// FSFetcher reads blobs from a content-addressed directory: the payload for
// address "sha256-abc..." lives at <root>/sha256-abc....
type FSFetcher struct {
	root string
}

// NewFSFetcher creates a filesystem fetcher rooted at dir.
func NewFSFetcher(dir string) *FSFetcher {
	return &FSFetcher{root: dir}
}

// Fetch reads the blob for the given content address.
//
// Addresses containing path separators or traversal elements are rejected;
// a content address is an opaque token, never a relative path.
func (f *FSFetcher) Fetch(_ context.Context, contentAddress string) ([]byte, error) {
	if contentAddress == "" || strings.ContainsAny(contentAddress, `/\`) || strings.Contains(contentAddress, "..") {
		return nil, fmt.Errorf("invalid content address %q", contentAddress)
	}
	data, err := os.ReadFile(filepath.Join(f.root, contentAddress))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFetched, contentAddress)
		}
		return nil, fmt.Errorf("reading blob %s: %w", contentAddress, err)
	}
	return data, nil
}

// HTTPFetcher retrieves blobs over HTTP from a base URL, in the style of
// presigned download URLs: GET <base>/<contentAddress>.
type HTTPFetcher struct {
	base   string
	client *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher. A nil client uses
// http.DefaultClient.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{base: strings.TrimRight(baseURL, "/"), client: client}
}

// Fetch downloads the blob for the given content address.
func (f *HTTPFetcher) Fetch(ctx context.Context, contentAddress string) ([]byte, error) {
	u := f.base + "/" + url.PathEscape(contentAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building fetch request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", contentAddress, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFetched, contentAddress)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetching %s: unexpected status %s", contentAddress, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", contentAddress, err)
	}
	return data, nil
}

// MapFetcher serves blobs from an in-memory map. Used in tests and for
// embedded single-process deployments.
type MapFetcher struct {
	blobs map[string][]byte
}

// NewMapFetcher creates a fetcher over the given blobs. The map is used
// directly, not copied.
func NewMapFetcher(blobs map[string][]byte) *MapFetcher {
	if blobs == nil {
		blobs = map[string][]byte{}
	}
	return &MapFetcher{blobs: blobs}
}

// Fetch returns the stored blob for the address.
func (f *MapFetcher) Fetch(_ context.Context, contentAddress string) ([]byte, error) {
	data, ok := f.blobs[contentAddress]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFetched, contentAddress)
	}
	return data, nil
}
