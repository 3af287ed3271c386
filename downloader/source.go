package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultMaxSize  = 200 << 20 // 200 MB
	DefaultCacheTTL = 10 * time.Minute
)

// Where the files of a snapshot are read from.
type Source interface {
	// Returns the contents of the named file. ErrNotFound is
	// returned, possibly wrapped, if it doesn't exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Identifies the source, e.g. for use in cache keys.
	Location() string
}

// Reads files from a local directory.
type Directory struct {
	Path string
}

func NewDirectory(path string) *Directory {
	return &Directory{Path: path}
}

func (d *Directory) Location() string {
	abs, err := filepath.Abs(d.Path)
	if err != nil {
		return d.Path
	}
	return abs
}

func (d *Directory) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := os.ReadFile(filepath.Join(d.Path, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	return buf, nil
}

// Fetches files over HTTP, relative to a base URL.
type HTTP struct {
	BaseURL    string
	Headers    map[string]string
	Options    GetOptions
	Downloader Downloader
}

func NewHTTP(baseURL string, headers map[string]string) *HTTP {
	return &HTTP{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Headers: headers,
		Options: GetOptions{
			MaxSize:  DefaultMaxSize,
			Timeout:  DefaultTimeout,
			Cache:    true,
			CacheTTL: DefaultCacheTTL,
		},
		Downloader: NewMemoryDownloader(),
	}
}

func (h *HTTP) Location() string {
	return h.BaseURL
}

func (h *HTTP) Get(ctx context.Context, name string) ([]byte, error) {
	body, err := h.Downloader.Get(ctx, h.BaseURL+"/"+url.PathEscape(name), h.Headers, h.Options)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", name, err)
	}
	return body, nil
}

// Picks a Source based on location: http(s) URLs are fetched,
// anything else is a local directory.
func NewSource(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTP(location, nil)
	}
	return NewDirectory(location)
}
