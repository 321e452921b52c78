package models

// TenantRecord is the whole-aggregate value stored per tenant. It is always
// read and written as a unit; callers read-modify-write the full record.
type TenantRecord struct {
	Channels Subscriptions `json:"channels"`
}

// Find returns the subscription with the given source identity, or nil.
func (r *TenantRecord) Find(source string) *Subscription {
	for i := range r.Channels {
		if r.Channels[i].Source == source {
			return &r.Channels[i]
		}
	}
	return nil
}

// Upsert inserts sub, replacing in place any subscription with the same
// source identity.
func (r *TenantRecord) Upsert(sub Subscription) {
	for i := range r.Channels {
		if r.Channels[i].Source == sub.Source {
			r.Channels[i] = sub
			return
		}
	}
	r.Channels = append(r.Channels, sub)
}

// Drop removes the subscription with the given source identity, reporting
// whether anything was removed.
func (r *TenantRecord) Drop(source string) bool {
	kept := r.Channels[:0]
	for _, sub := range r.Channels {
		if sub.Source != source {
			kept = append(kept, sub)
		}
	}
	removed := len(kept) < len(r.Channels)
	r.Channels = kept
	return removed
}
