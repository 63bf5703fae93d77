package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

const (
	duckDuckGoEndpoint = "https://duckduckgo.com"
	duckDuckGoTimeout  = 10 * time.Second
	duckDuckGoPause    = 300 * time.Millisecond
)

var vqdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`vqd=["']?([\d-]+)`),
	regexp.MustCompile(`"vqd":"([\d-]+)"`),
}

var errNoToken = errors.New("no vqd token in search page")

type duckDuckGoResponse struct {
	Results []struct {
		Image  string `json:"image"`
		Title  string `json:"title"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"results"`
}

// DuckDuckGo queries the JSON endpoint behind the DuckDuckGo image tab.
// The endpoint needs a per-query token scraped from the search page.
type DuckDuckGo struct {
	opts Options
	log  zerolog.Logger
}

func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int, size SizeConstraints) ([]Blob, error) {
	token, err := d.token(ctx, query)
	if err != nil {
		return nil, &Error{Provider: d.Name(), Query: query, Err: err}
	}

	results, err := d.results(ctx, query, token)
	if err != nil {
		return nil, &Error{Provider: d.Name(), Query: query, Err: err}
	}
	if len(results.Results) == 0 {
		return nil, &Error{Provider: d.Name(), Query: query, Err: ErrNoResults}
	}

	imageOpts := d.opts
	imageOpts.Client = &http.Client{Timeout: duckDuckGoTimeout, Transport: d.opts.Client.Transport}

	var blobs []Blob
	for _, result := range results.Results {
		if len(blobs) >= limit {
			break
		}
		if result.Image == "" {
			continue
		}
		// Reported sizes are trusted only to skip obvious misses.
		if result.Width > 0 && result.Height > 0 && !size.Allows(result.Width, result.Height) {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}

		blob, err := fetchImage(ctx, imageOpts, result.Image, size)
		if err != nil {
			d.log.Debug().Err(err).Str("url", result.Image).Msg("skipping image")
		} else {
			blobs = append(blobs, blob)
		}
		time.Sleep(duckDuckGoPause)
	}

	if len(blobs) == 0 {
		return nil, &Error{Provider: d.Name(), Query: query, Err: ErrNoResults}
	}
	return blobs, nil
}

func (d *DuckDuckGo) endpoint() string {
	if d.opts.Endpoint != "" {
		return d.opts.Endpoint
	}
	return duckDuckGoEndpoint
}

func (d *DuckDuckGo) token(ctx context.Context, query string) (string, error) {
	pageURL := d.endpoint() + "/?q=" + url.QueryEscape(query) + "&t=h_&iax=images&ia=images"
	response, err := d.get(ctx, pageURL, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(response.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("read search page: %w", err)
	}
	for _, pattern := range vqdPatterns {
		if match := pattern.FindSubmatch(body); match != nil {
			return string(match[1]), nil
		}
	}
	return "", errNoToken
}

func (d *DuckDuckGo) results(ctx context.Context, query string, token string) (*duckDuckGoResponse, error) {
	values := url.Values{}
	values.Set("l", "us-en")
	values.Set("o", "json")
	values.Set("q", query)
	values.Set("vqd", token)
	values.Set("f", ",,,")
	values.Set("p", "1")

	response, err := d.get(ctx, d.endpoint()+"/i.js?"+values.Encode(), d.endpoint()+"/")
	if err != nil {
		return nil, err
	}
	defer func() { _ = response.Body.Close() }()

	var result duckDuckGoResponse
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return &result, nil
}

func (d *DuckDuckGo) get(ctx context.Context, target string, referer string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	request.Header.Set("User-Agent", d.opts.UserAgent)
	if referer != "" {
		request.Header.Set("Referer", referer)
	}

	response, err := d.opts.Client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		_ = response.Body.Close()
		return nil, fmt.Errorf("unexpected status (%d): %s", response.StatusCode, response.Status)
	}
	return response, nil
}
