package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/image-harvest/internal/logger"
)

const (
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultTimeout     = 30 * time.Second
	DefaultParallelism = 4
	DefaultBackoff     = 5 * time.Second
)

var ErrNoResults = errors.New("no results")

// Provider is an image search backend. Search returns at most limit raw
// images for query. Order, relevance and freshness are up to the backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int, size SizeConstraints) ([]Blob, error)
}

// Blob is one downloaded image, still undecoded.
type Blob struct {
	Name string
	Data []byte
}

// SizeConstraints bounds the pixel size of accepted images. Zero fields
// are unbounded.
type SizeConstraints struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

func (c SizeConstraints) IsZero() bool {
	return c == SizeConstraints{}
}

func (c SizeConstraints) Allows(width, height int) bool {
	if width < c.MinWidth || height < c.MinHeight {
		return false
	}
	if c.MaxWidth > 0 && width > c.MaxWidth {
		return false
	}
	if c.MaxHeight > 0 && height > c.MaxHeight {
		return false
	}
	return true
}

// Error is a failed search: transport failure, a malformed response or an
// empty result set.
type Error struct {
	Provider string
	Query    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: query %q: %v", e.Provider, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Options struct {
	UserAgent   string
	Timeout     time.Duration
	Delay       time.Duration
	Parallelism int
	// Endpoint replaces the provider's base URL.
	Endpoint string
	URLs     []string
	Client   *http.Client
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Parallelism <= 0 {
		o.Parallelism = DefaultParallelism
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	return o
}

var names = []string{"bing", "duckduckgo", "urls"}

func Known(name string) bool {
	return slices.Contains(names, name)
}

func New(name string, opts Options) (Provider, error) {
	opts = opts.withDefaults()
	switch name {
	case "bing":
		return &Bing{opts: opts, log: logger.New("bing")}, nil
	case "duckduckgo":
		return &DuckDuckGo{opts: opts, log: logger.New("duckduckgo")}, nil
	case "urls":
		return &URLList{opts: opts, log: logger.New("urls")}, nil
	default:
		return nil, fmt.Errorf("provider: unknown provider %q", name)
	}
}
