package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"strings"

	_ "golang.org/x/image/webp"
)

const maxImageBytes = 20 << 20

var (
	errNotImage    = errors.New("not an image")
	errOutOfBounds = errors.New("image size outside constraints")
)

// inspect rejects blobs that do not fit size. Without constraints the
// blob is passed through undecoded, corrupt or not.
func inspect(data []byte, size SizeConstraints) error {
	if size.IsZero() {
		return nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", errNotImage, err)
	}
	if !size.Allows(cfg.Width, cfg.Height) {
		return fmt.Errorf("%w: %dx%d", errOutOfBounds, cfg.Width, cfg.Height)
	}
	return nil
}

func fetchImage(ctx context.Context, opts Options, url string, size SizeConstraints) (Blob, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Blob{}, fmt.Errorf("new request: %w", err)
	}
	request.Header.Set("User-Agent", opts.UserAgent)

	response, err := opts.Client.Do(request)
	if err != nil {
		return Blob{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return Blob{}, fmt.Errorf("unexpected status (%d): %s", response.StatusCode, response.Status)
	}
	if contentType := response.Header.Get("Content-Type"); contentType != "" && !strings.Contains(contentType, "image") {
		return Blob{}, fmt.Errorf("%w: content type %s", errNotImage, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxImageBytes))
	if err != nil {
		return Blob{}, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return Blob{}, fmt.Errorf("%w: empty body", errNotImage)
	}
	if err := inspect(data, size); err != nil {
		return Blob{}, err
	}

	return Blob{Name: path.Base(request.URL.Path), Data: data}, nil
}
