package poller

type cycleMetrics struct {
	checked     int
	wentLive    int
	wentOffline int
	uploads     int
	errored     int
}

func (m *cycleMetrics) logArgs() []any {
	args := make([]any, 0)
	if m.wentLive != 0 {
		args = append(args, "went_live", m.wentLive)
	}
	if m.wentOffline != 0 {
		args = append(args, "went_offline", m.wentOffline)
	}
	if m.uploads != 0 {
		args = append(args, "uploads", m.uploads)
	}
	if m.errored != 0 {
		args = append(args, "errored", m.errored)
	}
	return args
}
