package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/qurl/streamwatch/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Prober fetches a source's pages and extracts its current live state and
// newest item identifier.
type Prober struct {
	log       *zap.Logger
	transport http.RoundTripper

	backoffUnit time.Duration
}

func NewProber(lc fx.Lifecycle, log *zap.Logger, transport http.RoundTripper) *Prober {
	return &Prober{
		log:         log,
		transport:   transport,
		backoffUnit: 1 * time.Second,
	}
}

// Probe runs the full signal set against the source's live-page endpoint,
// falling back to the main page when the live page neither indicates
// liveness nor was redirected away from. A live-page fetch failure fails the
// whole probe; the caller leaves the subscription's stored state untouched.
func (p *Prober) Probe(ctx context.Context, urls models.Endpoints) (*models.Snapshot, error) {
	livePage, err := p.fetchPage(ctx, urls.Live)
	if err != nil {
		return nil, err
	}
	checkedURL := livePage.finalURL

	liveContent, err := parsePage(livePage)
	if err != nil {
		return nil, err
	}

	isLive, fired := runSignals(p.log, liveSignals, liveContent, "")

	// The live endpoint redirecting elsewhere already tells us there is no
	// broadcast; only recheck the main page on a direct miss.
	var mainContent *pageContent
	var mainTried bool
	if !isLive && livePage.finalURL == urls.Live {
		mainContent, mainTried = p.fetchMain(ctx, urls), true
		if mainContent != nil {
			mainLive, mainFired := runSignals(p.log, liveSignals, mainContent, " (main)")
			isLive = isLive || mainLive
			fired = append(fired, mainFired...)
		}
	}

	latest := extractVideoID(liveContent.raw)
	if latest == "" {
		if !mainTried {
			mainContent = p.fetchMain(ctx, urls)
		}
		if mainContent != nil {
			latest = extractVideoID(mainContent.raw)
		}
	}

	snap := &models.Snapshot{
		Live:          isLive,
		LatestVideoID: latest,
		Signals:       fired,
		CheckedURL:    checkedURL,
		Timestamp:     time.Now().UTC(),
	}
	p.log.Sugar().Debugw("Probe completed",
		"url", snap.CheckedURL, "live", snap.Live, "latest_video", snap.LatestVideoID,
		"signals", snap.Signals,
	)
	return snap, nil
}

// fetchMain retrieves and parses the main-page endpoint. Failures degrade
// the probe rather than fail it: liveness and item-id extraction simply
// proceed without main-page content.
func (p *Prober) fetchMain(ctx context.Context, urls models.Endpoints) *pageContent {
	mainPage, err := p.fetchPage(ctx, urls.Main)
	if err != nil {
		p.log.Sugar().Infow("Main page fetch failed", "url", urls.Main, "err", err)
		return nil
	}
	content, err := parsePage(mainPage)
	if err != nil {
		p.log.Sugar().Infow("Main page parse failed", "url", urls.Main, "err", err)
		return nil
	}
	return content
}
