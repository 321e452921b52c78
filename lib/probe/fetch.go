package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
)

const maxFetchAttempts = 3

// Header set emulating a regular browser client; some sources serve a
// stripped-down page to unknown user agents.
var browserHeaders = [][2]string{
	{"User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"},
	{"Accept-Language", "en-US,en;q=0.5"},
	{"Cache-Control", "no-cache"},
	{"Pragma", "no-cache"},
}

type page struct {
	status   int
	finalURL string
	body     string
}

func (p *Prober) fetchPage(ctx context.Context, url string) (*page, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		pg, err := p.fetchOnce(ctx, url)
		if err == nil {
			return pg, nil
		}
		lastErr = err
		p.log.Sugar().Infow("Fetch attempt failed", "url", url, "attempt", attempt, "err", err)

		if attempt < maxFetchAttempts {
			select {
			case <-time.After(time.Duration(attempt) * p.backoffUnit):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("failed to fetch %s after %d attempts: %w", url, maxFetchAttempts, lastErr)
}

func (p *Prober) fetchOnce(ctx context.Context, url string) (*page, error) {
	pg := &page{}

	builder := requests.URL(url).Transport(p.transport)
	for _, h := range browserHeaders {
		builder = builder.Header(h[0], h[1])
	}

	err := builder.
		Handle(func(res *http.Response) error {
			body, err := io.ReadAll(res.Body)
			if err != nil {
				return err
			}
			pg.status = res.StatusCode
			pg.finalURL = res.Request.URL.String()
			pg.body = string(body)
			return nil
		}).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return pg, nil
}
