// Package ingest loads the documents produced by the listing crawler and the
// history fetcher: the common-coins list, per-coin candle histories and the
// quant-insights document.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// UserAgent identifies the dashboard to remote data roots
	UserAgent = "applause-dashboard/1.0"
	// DefaultTimeout is the per-request timeout of the HTTP source
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrNotFound marks a missing document (404 or missing file)
	ErrNotFound = errors.New("document not found")
	// ErrMalformed marks a document whose body could not be decoded
	ErrMalformed = errors.New("malformed document")
)

// FetchError describes a failed document fetch.
type FetchError struct {
	Path   string
	Status int // HTTP status, 0 for filesystem or network failures
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Source returns raw document bytes for a path relative to the data root.
type Source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
	Name() string
}

// NewSource picks an HTTP source for http(s) roots and a directory source otherwise.
func NewSource(root string, timeout time.Duration) Source {
	if strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://") {
		return NewHTTPSource(root, timeout)
	}
	return NewDirSource(root)
}

// DirSource reads documents from a local data directory.
type DirSource struct {
	root string
}

// NewDirSource creates a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Name returns the source description.
func (s *DirSource) Name() string { return "dir:" + s.root }

// Fetch reads root/path.
func (s *DirSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Path: path, Err: err}
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &FetchError{Path: path, Err: ErrNotFound}
		}
		return nil, &FetchError{Path: path, Err: err}
	}
	return data, nil
}

// HTTPSource fetches documents from a static file server. A request is a
// single attempt; retrying is left to the user.
type HTTPSource struct {
	baseURL string
	client  *resty.Client
}

// NewHTTPSource creates an HTTPSource for baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json")

	return &HTTPSource{baseURL: baseURL, client: client}
}

// Name returns the source description.
func (s *HTTPSource) Name() string { return "http:" + s.baseURL }

// Fetch issues GET baseURL/path.
func (s *HTTPSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/" + strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, &FetchError{Path: path, Err: fmt.Errorf("request failed: %w", err)}
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, &FetchError{Path: path, Status: resp.StatusCode(), Err: ErrNotFound}
	case !resp.IsSuccess():
		return nil, &FetchError{Path: path, Status: resp.StatusCode(), Err: fmt.Errorf("unexpected status")}
	}

	return resp.Body(), nil
}
