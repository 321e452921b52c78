package poller

import (
	"time"

	"github.com/qurl/streamwatch/lib/models"
)

// Minimum intended window between repeated notifications for an unchanged
// status. Computed for observability only; unchanged status never
// re-notifies regardless of whether the window has elapsed.
const statusCooldown = 5 * time.Minute

// Decision is the outcome of comparing one freshly probed snapshot against a
// subscription's persisted state.
type Decision struct {
	StatusChanged bool
	NotifyLive    bool

	// UploadID is non-empty when an upload notification should be offered.
	// The stored identifier advances only after the dispatch succeeds.
	UploadID string

	// CooldownElapsed is meaningful only when the status is unchanged.
	CooldownElapsed bool
	SinceNotified   time.Duration
}

// Evaluate applies the transition table:
//
//	Offline + live   -> transition, notify live
//	Live    + live   -> nothing
//	Live    + off    -> transition, no notification
//	Offline + off    -> nothing (cooldown logged only)
//
// The upload check is gated on the new liveness bit being false.
func Evaluate(sub *models.Subscription, snap *models.Snapshot, now time.Time) Decision {
	d := Decision{}

	if sub.Live != snap.Live {
		d.StatusChanged = true
		d.NotifyLive = snap.Live
	} else {
		lastNotified := time.Time{}
		if sub.LastNotified != nil {
			lastNotified = *sub.LastNotified
		}
		d.SinceNotified = now.Sub(lastNotified)
		d.CooldownElapsed = d.SinceNotified >= statusCooldown
	}

	if !snap.Live && snap.LatestVideoID != "" && snap.LatestVideoID != sub.LastVideoID {
		d.UploadID = snap.LatestVideoID
	}

	return d
}
