package provider

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"github.com/gocolly/colly"
	"github.com/image-harvest/internal/scrape"
	"github.com/rs/zerolog"
)

const bingEndpoint = "https://www.bing.com"

// Bing scrapes the Bing image results page and downloads the full size
// images through a colly collector limited to opts.Parallelism workers.
type Bing struct {
	opts Options
	log  zerolog.Logger
}

func (b *Bing) Name() string {
	return "bing"
}

func (b *Bing) Search(ctx context.Context, query string, limit int, size SizeConstraints) ([]Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Provider: b.Name(), Query: query, Err: err}
	}

	links, err := b.links(query, limit)
	if err != nil {
		return nil, &Error{Provider: b.Name(), Query: query, Err: err}
	}
	if len(links) == 0 {
		return nil, &Error{Provider: b.Name(), Query: query, Err: ErrNoResults}
	}
	b.log.Debug().Str("query", query).Int("links", len(links)).Msg("search results")

	blobs := b.download(links, limit, size)
	if len(blobs) == 0 {
		return nil, &Error{Provider: b.Name(), Query: query, Err: ErrNoResults}
	}
	return blobs, nil
}

func (b *Bing) links(query string, limit int) ([]string, error) {
	endpoint := bingEndpoint
	if b.opts.Endpoint != "" {
		endpoint = b.opts.Endpoint
	}
	count := max(limit*2, 35)
	pageURL := endpoint + "/images/async?q=" + url.QueryEscape(query) +
		"&first=1&count=" + strconv.Itoa(count) + "&adlt=off"

	c := colly.NewCollector(colly.UserAgent(b.opts.UserAgent))
	c.SetRequestTimeout(b.opts.Timeout)
	scrape.SetupRequestLogging(c, b.log)
	scrape.SetupErrorLogging(c, b.log)

	var links []string
	seen := make(map[string]bool)
	c.OnHTML("a.iusc", func(e *colly.HTMLElement) {
		link, ok := scrape.ResultLink(e)
		if !ok || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})

	var visitErr error
	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, err
	}
	c.Wait()
	if visitErr != nil {
		return nil, visitErr
	}
	return links, nil
}

// download fetches up to twice limit links so that broken links and size
// rejections still leave enough images, and keeps the first limit.
func (b *Bing) download(links []string, limit int, size SizeConstraints) []Blob {
	if len(links) > limit*2 {
		links = links[:limit*2]
	}

	c := colly.NewCollector(
		colly.UserAgent(b.opts.UserAgent),
		colly.Async(true),
	)
	c.SetRequestTimeout(b.opts.Timeout)
	scrape.SetupDelay(c, b.opts.Delay, b.opts.Parallelism)
	scrape.SetupBackoff(c, max(b.opts.Delay, DefaultBackoff), b.log)
	scrape.SetupRequestLogging(c, b.log)
	scrape.SetupErrorLogging(c, b.log)

	var mu sync.Mutex
	var blobs []Blob
	c.OnResponse(func(r *colly.Response) {
		if !scrape.IsImage(r) {
			b.log.Debug().Str("url", r.Request.URL.String()).Msg("skipping non-image response")
			return
		}
		if err := inspect(r.Body, size); err != nil {
			b.log.Debug().Err(err).Str("url", r.Request.URL.String()).Msg("skipping image")
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if len(blobs) >= limit {
			return
		}
		blobs = append(blobs, Blob{Name: scrape.FileName(r), Data: r.Body})
	})

	for _, link := range links {
		if err := c.Visit(link); err != nil {
			b.log.Debug().Err(err).Str("url", link).Msg("could not queue image")
		}
	}
	c.Wait()

	return blobs
}
