package app

import (
	"time"

	"github.com/qurl/streamwatch/lib/models"
)

type AddSubscriptionRequest struct {
	Source        string `json:"source"`
	LiveTarget    string `json:"live_target"`
	UploadTarget  string `json:"upload_target"`
	LiveMessage   string `json:"live_message"`
	UploadMessage string `json:"upload_message"`
}

type SubscriptionView struct {
	Source           string  `json:"source"`
	LiveTarget       string  `json:"live_target"`
	UploadTarget     string  `json:"upload_target"`
	LiveMessage      string  `json:"live_message"`
	UploadMessage    string  `json:"upload_message"`
	Live             bool    `json:"live"`
	LastVideoID      string  `json:"last_video_id,omitempty"`
	LastStatusChange string  `json:"last_status_change"`
	LastNotified     *string `json:"last_notified"`
}

func (view SubscriptionView) From(entity models.Subscription) SubscriptionView {
	return SubscriptionView{
		Source:           entity.Source,
		LiveTarget:       entity.LiveTarget,
		UploadTarget:     entity.UploadTarget,
		LiveMessage:      entity.LiveMessage,
		UploadMessage:    entity.UploadMessage,
		Live:             entity.Live,
		LastVideoID:      entity.LastVideoID,
		LastStatusChange: entity.LastStatusChange.UTC().Format(time.RFC3339),
		LastNotified:     isoformat(entity.LastNotified),
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}

func isoformat(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}
