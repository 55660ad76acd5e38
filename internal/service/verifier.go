package service

import (
	"context"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"valuescout/internal/logging"
)

const verifierUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CollyVerifier probes direct retailer URLs with a HEAD request
type CollyVerifier struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewCollyVerifier creates a verifier with the given per-request timeout
func NewCollyVerifier(timeout time.Duration, logger *zap.Logger) *CollyVerifier {
	logger = logging.OrNop(logger)

	c := colly.NewCollector(
		colly.UserAgent(verifierUserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)

	return &CollyVerifier{base: c, logger: logger}
}

// Verify reports whether url answers with 2xx or 3xx. A 405 also counts,
// since the page exists and only refuses HEAD.
func (v *CollyVerifier) Verify(ctx context.Context, url string) bool {
	// clones share config but not callbacks, so concurrent calls don't see each other's results
	c := v.base.Clone()
	c.Context = ctx

	status := 0
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		v.logger.Debug("direct link probe failed", zap.String("url", url), zap.Error(err))
	})

	if err := c.Head(url); err != nil && status == 0 {
		return false
	}

	ok := (status >= 200 && status < 400) || status == http.StatusMethodNotAllowed
	v.logger.Debug("direct link probed", zap.String("url", url), zap.Int("status", status), zap.Bool("ok", ok))
	return ok
}
