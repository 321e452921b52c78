package poller

import (
	"context"
	"time"
)

// alarmClock emits a tick per poll interval plus out-of-band kicks for
// immediate cycles (e.g. right after a subscription is added).
type alarmClock struct {
	cancel func()
	ticker *time.Ticker
	kickC  chan time.Time
	C      chan time.Time
}

func newAlarmClock(interval time.Duration) *alarmClock {
	return &alarmClock{
		ticker: time.NewTicker(interval),
		kickC:  make(chan time.Time, 1),
		C:      make(chan time.Time),
	}
}

func (a *alarmClock) Start(ctx context.Context) <-chan time.Time {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	go func() {
		defer close(a.C)

		if !a.emit(ctx, time.Now().UTC()) {
			return
		}
		for {
			select {
			case t := <-a.ticker.C:
				if !a.emit(ctx, t) {
					return
				}
			case t := <-a.kickC:
				if !a.emit(ctx, t) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return a.C
}

func (a *alarmClock) emit(ctx context.Context, t time.Time) bool {
	select {
	case a.C <- t:
		return true
	case <-ctx.Done():
		return false
	}
}

// Kick requests an immediate cycle. A kick already pending is enough; extra
// kicks are dropped.
func (a *alarmClock) Kick() {
	select {
	case a.kickC <- time.Now().UTC():
	default:
	}
}

func (a *alarmClock) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.ticker.Stop()
}
