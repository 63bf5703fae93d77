package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/image-harvest/internal/logger"
	"github.com/image-harvest/internal/provider"
	"github.com/image-harvest/internal/query"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"
)

// Result counts what one Fetch call did.
type Result struct {
	Queries        int
	ProviderErrors int
	Written        int
	Skipped        int
	Files          []string
}

// Fetcher sends each query to a provider in order and writes what comes
// back into a working directory as numbered candidate files.
type Fetcher struct {
	provider provider.Provider
	size     provider.SizeConstraints
	budget   int
	delay    time.Duration
	log      zerolog.Logger
}

type Option func(*Fetcher)

// WithBudget stops fetching once n candidates have been written.
func WithBudget(n int) Option {
	return func(f *Fetcher) { f.budget = n }
}

func WithSizeConstraints(size provider.SizeConstraints) Option {
	return func(f *Fetcher) { f.size = size }
}

// WithDelay sets the pause between two queries.
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.delay = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

func New(p provider.Provider, opts ...Option) *Fetcher {
	f := &Fetcher{
		provider: p,
		delay:    time.Second,
		log:      logger.New("fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch runs queries against the provider and writes the results into
// dir, which is created if absent. Provider errors are logged and
// counted, never returned. Only a directory that cannot be created or a
// cancelled context ends the run early.
func (f *Fetcher) Fetch(ctx context.Context, dir string, queries []query.SearchQuery) (*Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fetch: create %s: %w", dir, err)
	}

	next, err := nextIndex(dir)
	if err != nil {
		return nil, fmt.Errorf("fetch: scan %s: %w", dir, err)
	}

	result := &Result{}
	for i, q := range queries {
		if f.budget > 0 && result.Written >= f.budget {
			f.log.Debug().Int("written", result.Written).Msg("fetch budget reached")
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if i > 0 && f.delay > 0 {
			time.Sleep(f.delay)
		}

		limit := q.Limit
		if f.budget > 0 {
			limit = min(limit, f.budget-result.Written)
		}

		f.log.Info().Str("query", q.Phrase).Int("limit", limit).Msg("searching")
		result.Queries++

		blobs, err := f.provider.Search(ctx, q.Phrase, limit, f.size)
		if err != nil {
			result.ProviderErrors++
			f.log.Warn().Err(err).Str("query", q.Phrase).Msg("search failed")
			continue
		}

		for _, blob := range blobs {
			name, err := write(dir, &next, blob)
			if err != nil {
				result.Skipped++
				f.log.Warn().Err(err).Str("source", blob.Name).Msg("could not store candidate")
				continue
			}
			result.Written++
			result.Files = append(result.Files, name)
			f.log.Debug().Str("source", blob.Name).Str("file", name).Msg("stored candidate")
		}
		f.log.Info().Str("query", q.Phrase).Int("images", len(blobs)).Msg("search complete")
	}

	return result, nil
}

// write stores blob as the first free NNNNNN.<ext> at or after *next.
func write(dir string, next *int, blob provider.Blob) (string, error) {
	data, ext, err := prepare(blob.Data)
	if err != nil {
		return "", err
	}

	for {
		name := fmt.Sprintf("%06d%s", *next, ext)
		*next++

		file, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}

		_, writeErr := file.Write(data)
		closeErr := file.Close()
		if err := errors.Join(writeErr, closeErr); err != nil {
			_ = os.Remove(filepath.Join(dir, name))
			return "", err
		}
		return name, nil
	}
}

// prepare picks the file extension from the sniffed format. Formats other
// than JPEG and PNG are transcoded to PNG. Data that cannot be sniffed is
// stored as .jpg and left for the normalizer to reject.
func prepare(data []byte) ([]byte, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data, ".jpg", nil
	}

	switch format {
	case "jpeg":
		return data, ".jpg", nil
	case "png":
		return data, ".png", nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("transcode %s: %w", format, err)
	}
	return buf.Bytes(), ".png", nil
}

// nextIndex continues numbering after the highest numeric file name
// already present, so repeated runs never collide.
func nextIndex(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		n, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	return highest + 1, nil
}
