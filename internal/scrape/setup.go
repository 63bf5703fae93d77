package scrape

import (
	"net/http"
	"time"

	"github.com/gocolly/colly"
	"github.com/rs/zerolog"
)

// SetupBackoff retries a request once the server stops answering 429.
// The original request is retried after delay.
func SetupBackoff(c *colly.Collector, delay time.Duration, logger zerolog.Logger) {
	c.OnError(func(r *colly.Response, e error) {
		if r.StatusCode != http.StatusTooManyRequests && e.Error() != "Too Many Requests" {
			return
		}
		logger.Warn().Str("url", r.Request.URL.String()).Msg("too many requests, backing off")
		time.Sleep(delay)
		_ = r.Request.Retry()
	})
}

// SetupDelay caps the collector at parallelism concurrent requests per
// domain with a fixed delay plus jitter between them.
func SetupDelay(c *colly.Collector, delay time.Duration, parallelism int) {
	if parallelism < 1 {
		parallelism = 1
	}
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       delay,
		RandomDelay: delay / 2,
	})
}

func SetupErrorLogging(c *colly.Collector, logger zerolog.Logger) {
	c.OnError(func(r *colly.Response, err error) {
		logger.Debug().Err(err).Str("url", r.Request.URL.String()).Int("status", r.StatusCode).Msg("error visiting")
	})
}

func SetupRequestLogging(c *colly.Collector, logger zerolog.Logger) {
	c.OnRequest(func(r *colly.Request) {
		logger.Debug().Str("url", r.URL.String()).Msg("visiting")
	})
}
