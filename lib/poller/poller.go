package poller

import (
	"context"
	"sync"
	"time"

	"github.com/qurl/streamwatch/config"
	"github.com/qurl/streamwatch/lib"
	"github.com/qurl/streamwatch/lib/models"
	"github.com/qurl/streamwatch/senders"
	"github.com/qurl/streamwatch/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// At most one cycle runs at a time; overlapping cycles would race on the
// whole-aggregate read-modify-write of tenant records.
var mu sync.Mutex

// Prober abstracts live-state extraction for one source.
type Prober interface {
	Probe(ctx context.Context, urls models.Endpoints) (*models.Snapshot, error)
}

// Poller drives one detection cycle per interval across all tenants and
// subscriptions. It holds no durable state of its own.
type Poller struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	prober  Prober
	senders senders.Registry

	alarm        *alarmClock
	cycleTimeout time.Duration
}

func NewPoller(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	st *store.Store,
	prober Prober,
	registry senders.Registry,
) *Poller {
	poller := &Poller{
		cfg:          cfg,
		log:          log,
		store:        st,
		prober:       prober,
		senders:      registry,
		alarm:        newAlarmClock(cfg.PollInterval()),
		cycleTimeout: cfg.CycleTimeout(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			poller.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop poller")
			poller.Stop()
			return nil
		},
	})

	return poller
}

func (p *Poller) Start(ctx context.Context) {
	c := p.alarm.Start(ctx)

	go func() {
		for t := range c {
			p.runCycle(t)
		}
	}()
}

func (p *Poller) Stop() {
	// Locking here waits for the in-flight cycle to finish.
	mu.Lock()
	defer mu.Unlock()

	p.alarm.Stop()
	p.log.Sugar().Info("Poller stopped")
}

// Kick schedules an immediate out-of-band cycle.
func (p *Poller) Kick() {
	p.alarm.Kick()
}

func (p *Poller) runCycle(start time.Time) {
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.cycleTimeout)
	defer cancel()

	metrics := &cycleMetrics{}

	tenants, err := p.store.Tenants(ctx)
	if err != nil {
		p.log.Sugar().Errorw("Cycle aborted, cannot enumerate tenants", "err", err)
		return
	}

	for _, tenant := range tenants {
		p.checkTenant(ctx, tenant, metrics)
	}

	if metrics.checked > 0 {
		p.log.Sugar().Infow(
			"Cycle completed",
			append(metrics.logArgs(),
				"checked", metrics.checked,
				"elapsed_msecs", int(time.Now().UTC().Sub(start).Milliseconds()),
			)...,
		)
	}
}

// checkTenant processes every subscription of one tenant sequentially. A
// failure on one subscription is logged and skipped; it never aborts its
// siblings or the cycle.
func (p *Poller) checkTenant(ctx context.Context, tenant string, metrics *cycleMetrics) {
	record, ok, err := p.store.Read(ctx, tenant)
	if err != nil {
		p.log.Sugar().Errorw("Failed to read tenant record", "tenant", tenant, "err", err)
		metrics.errored++
		return
	}
	if !ok || len(record.Channels) == 0 {
		return
	}

	for i := range record.Channels {
		sub := &record.Channels[i]
		metrics.checked++
		if err := p.checkSubscription(ctx, tenant, record, sub, metrics); err != nil {
			p.log.Sugar().Errorw("Subscription check failed",
				"tenant", tenant, "source", sub.Source, "err", err,
			)
			metrics.errored++
		}
	}
}

func (p *Poller) checkSubscription(
	ctx context.Context,
	tenant string,
	record *models.TenantRecord,
	sub *models.Subscription,
	metrics *cycleMetrics,
) error {
	urls := lib.Normalize(sub.Source)

	snap, err := p.prober.Probe(ctx, urls)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	decision := Evaluate(sub, snap, now)

	if decision.StatusChanged {
		sub.Live = snap.Live
		sub.LastStatusChange = now
		if snap.Live {
			sub.LastNotified = &now
		}
		if err := p.store.Write(ctx, tenant, record); err != nil {
			return err
		}

		if decision.NotifyLive {
			metrics.wentLive++
			msg := p.liveMessage(sub, urls, now)
			// The state already moved to Live, so a failed live
			// notification is lost rather than retried.
			if err := p.senders.Dispatch(ctx, p.log, sub.LiveTarget, msg); err != nil {
				p.log.Sugar().Errorw("Failed to send live notification",
					"tenant", tenant, "source", sub.Source, "err", err,
				)
			}
		} else {
			metrics.wentOffline++
		}
	} else {
		p.log.Sugar().Debugw("Status unchanged",
			"tenant", tenant, "source", sub.Source, "live", sub.Live,
			"since_notified", decision.SinceNotified.String(),
			"cooldown_elapsed", decision.CooldownElapsed,
		)
	}

	if decision.UploadID != "" {
		msg := p.uploadMessage(sub, urls, decision.UploadID, now)
		if err := p.senders.Dispatch(ctx, p.log, sub.UploadTarget, msg); err != nil {
			// Identifier not advanced; the same item is re-offered next
			// cycle.
			return err
		}
		sub.LastVideoID = decision.UploadID
		if err := p.store.Write(ctx, tenant, record); err != nil {
			return err
		}
		metrics.uploads++
	}

	return nil
}
