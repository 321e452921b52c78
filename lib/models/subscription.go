package models

import "time"

// Subscription is one monitored source within a tenant, keyed by its
// normalized Source identity.
type Subscription struct {
	Source        string `json:"source"`
	LiveTarget    string `json:"live_target"`
	UploadTarget  string `json:"upload_target"`
	LiveMessage   string `json:"live_message"`
	UploadMessage string `json:"upload_message"`

	Live             bool       `json:"live"`
	LastVideoID      string     `json:"last_video_id,omitempty"`
	LastStatusChange time.Time  `json:"last_status_change"`
	LastNotified     *time.Time `json:"last_notified,omitempty"`
}

type Subscriptions []Subscription
