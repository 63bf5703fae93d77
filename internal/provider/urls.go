package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const urlListPause = 500 * time.Millisecond

// URLList downloads a fixed list of image URLs and ignores the query.
// Every query walks the list from the start.
type URLList struct {
	opts Options
	log  zerolog.Logger
}

func (u *URLList) Name() string {
	return "urls"
}

func (u *URLList) Search(ctx context.Context, query string, limit int, size SizeConstraints) ([]Blob, error) {
	if len(u.opts.URLs) == 0 {
		return nil, &Error{Provider: u.Name(), Query: query, Err: ErrNoResults}
	}

	var blobs []Blob
	for i, link := range u.opts.URLs {
		if len(blobs) >= limit || ctx.Err() != nil {
			break
		}
		if i > 0 {
			time.Sleep(urlListPause)
		}

		blob, err := fetchImage(ctx, u.opts, link, size)
		if err != nil {
			u.log.Warn().Err(err).Str("url", link).Msg("download failed")
			continue
		}
		blobs = append(blobs, blob)
	}

	if len(blobs) == 0 {
		return nil, &Error{Provider: u.Name(), Query: query, Err: ErrNoResults}
	}
	return blobs, nil
}
