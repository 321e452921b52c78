package models

import "time"

// Endpoints are the canonical identity plus derived URLs for one source.
// Live and Stream may coincide.
type Endpoints struct {
	Main   string
	Live   string
	Stream string
}

// Snapshot is the transient result of probing a source once. It is compared
// against the persisted Subscription fields and never stored verbatim.
type Snapshot struct {
	Live          bool
	LatestVideoID string
	Signals       []string
	CheckedURL    string
	Timestamp     time.Time
}
