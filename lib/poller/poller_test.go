package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qurl/streamwatch/config"
	"github.com/qurl/streamwatch/lib/models"
	"github.com/qurl/streamwatch/senders"
	"github.com/qurl/streamwatch/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProber struct {
	snaps map[string]*models.Snapshot
	errs  map[string]error
}

func (f *fakeProber) Probe(ctx context.Context, urls models.Endpoints) (*models.Snapshot, error) {
	if err, ok := f.errs[urls.Main]; ok {
		return nil, err
	}
	snap, ok := f.snaps[urls.Main]
	if !ok {
		return nil, errors.New("no fixture for " + urls.Main)
	}
	snap.Timestamp = time.Now().UTC()
	return snap, nil
}

type sentMessage struct {
	target string
	msg    senders.Message
}

type fakeSender struct {
	fail bool
	sent []sentMessage
}

func (f *fakeSender) Send(ctx context.Context, target string, msg senders.Message) error {
	if f.fail {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, sentMessage{target, msg})
	return nil
}

type fixture struct {
	poller *Poller
	store  *store.Store
	prober *fakeProber
	sender *fakeSender
}

func newFixture() *fixture {
	st := store.New(zap.NewNop(), store.NewMemoryKV())
	prober := &fakeProber{
		snaps: map[string]*models.Snapshot{},
		errs:  map[string]error{},
	}
	sender := &fakeSender{}

	cfg := &config.Config{
		DefaultLiveMessage:   "@everyone {channel} is Live over at {streamUrl}",
		DefaultUploadMessage: "@everyone {channel} just uploaded a new video! {url}",
	}

	p := &Poller{
		cfg:          cfg,
		log:          zap.NewNop(),
		store:        st,
		prober:       prober,
		senders:      senders.Registry{"fake": sender},
		alarm:        newAlarmClock(time.Hour),
		cycleTimeout: time.Minute,
	}
	return &fixture{p, st, prober, sender}
}

func (f *fixture) seed(t *testing.T, tenant string, sub models.Subscription) {
	t.Helper()
	require.NoError(t, f.store.AddOrReplace(context.Background(), tenant, sub))
}

func (f *fixture) subscription(t *testing.T, tenant, source string) models.Subscription {
	t.Helper()
	record, ok, err := f.store.Read(context.Background(), tenant)
	require.NoError(t, err)
	require.True(t, ok)
	sub := record.Find(source)
	require.NotNil(t, sub)
	return *sub
}

const src = "https://youtube.com/@somehandle"

func TestCycle_OfflineToLive(t *testing.T) {
	f := newFixture()
	f.seed(t, "t1", models.Subscription{
		Source:     src,
		LiveTarget: "fake:live-chan", UploadTarget: "fake:up-chan",
	})
	f.prober.snaps[src] = &models.Snapshot{Live: true}

	f.poller.runCycle(time.Now().UTC())

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "live-chan", f.sender.sent[0].target)
	assert.Equal(t, "@everyone somehandle is Live over at "+src+"/live", f.sender.sent[0].msg.Content)

	sub := f.subscription(t, "t1", src)
	assert.True(t, sub.Live)
	assert.False(t, sub.LastStatusChange.IsZero())
	require.NotNil(t, sub.LastNotified)
}

func TestCycle_StillLiveIsQuiet(t *testing.T) {
	f := newFixture()
	f.seed(t, "t1", models.Subscription{
		Source: src, Live: true,
		LiveTarget: "fake:live-chan", UploadTarget: "fake:up-chan",
	})
	f.prober.snaps[src] = &models.Snapshot{Live: true}

	f.poller.runCycle(time.Now().UTC())

	assert.Empty(t, f.sender.sent)
}

func TestCycle_LiveToOfflineWithNewUpload(t *testing.T) {
	f := newFixture()
	f.seed(t, "t1", models.Subscription{
		Source: src, Live: true, LastVideoID: "v1",
		LiveTarget: "fake:live-chan", UploadTarget: "fake:up-chan",
	})
	f.prober.snaps[src] = &models.Snapshot{Live: false, LatestVideoID: "v2"}

	f.poller.runCycle(time.Now().UTC())

	// Live->Offline emits nothing; the new item emits one upload.
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "up-chan", f.sender.sent[0].target)
	assert.Contains(t, f.sender.sent[0].msg.Content, "https://www.youtube.com/watch?v=v2")

	sub := f.subscription(t, "t1", src)
	assert.False(t, sub.Live)
	assert.Equal(t, "v2", sub.LastVideoID)
}

func TestCycle_UploadDispatchFailureRetriesNextCycle(t *testing.T) {
	f := newFixture()
	f.seed(t, "t1", models.Subscription{
		Source: src, LastVideoID: "v1",
		LiveTarget: "fake:live-chan", UploadTarget: "fake:up-chan",
	})
	f.prober.snaps[src] = &models.Snapshot{Live: false, LatestVideoID: "v2"}

	f.sender.fail = true
	f.poller.runCycle(time.Now().UTC())

	sub := f.subscription(t, "t1", src)
	assert.Equal(t, "v1", sub.LastVideoID, "failed dispatch must not advance the stored id")

	// Same fetched state next cycle re-offers the same notification.
	f.sender.fail = false
	f.poller.runCycle(time.Now().UTC())

	require.Len(t, f.sender.sent, 1)
	sub = f.subscription(t, "t1", src)
	assert.Equal(t, "v2", sub.LastVideoID)
}

func TestCycle_LiveDispatchFailureIsNotRetried(t *testing.T) {
	f := newFixture()
	f.seed(t, "t1", models.Subscription{
		Source:     src,
		LiveTarget: "fake:live-chan", UploadTarget: "fake:up-chan",
	})
	f.prober.snaps[src] = &models.Snapshot{Live: true}

	f.sender.fail = true
	f.poller.runCycle(time.Now().UTC())

	// The state already moved to Live, so the notification is lost.
	sub := f.subscription(t, "t1", src)
	assert.True(t, sub.Live)

	f.sender.fail = false
	f.poller.runCycle(time.Now().UTC())
	assert.Empty(t, f.sender.sent)
}

func TestCycle_BadSubscriptionDoesNotAbortSiblings(t *testing.T) {
	f := newFixture()
	badSrc := "https://youtube.com/@broken"
	f.seed(t, "t1", models.Subscription{
		Source:     badSrc,
		LiveTarget: "fake:live-chan", UploadTarget: "fake:up-chan",
	})
	f.seed(t, "t1", models.Subscription{
		Source:     src,
		LiveTarget: "fake:live-chan", UploadTarget: "fake:up-chan",
	})
	f.seed(t, "t2", models.Subscription{
		Source:     src,
		LiveTarget: "fake:live-other", UploadTarget: "fake:up-other",
	})

	f.prober.errs[badSrc] = errors.New("fetch exploded")
	f.prober.snaps[src] = &models.Snapshot{Live: true}

	f.poller.runCycle(time.Now().UTC())

	// Both healthy subscriptions across both tenants were still processed.
	require.Len(t, f.sender.sent, 2)
	assert.True(t, f.subscription(t, "t1", src).Live)
	assert.True(t, f.subscription(t, "t2", src).Live)
	assert.False(t, f.subscription(t, "t1", badSrc).Live)
}

// slowProber blocks inside Probe long enough for concurrent cycles to pile
// up, recording whether two probes ever ran at once.
type slowProber struct {
	inflight   atomic.Int32
	overlapped atomic.Bool
	calls      atomic.Int32
}

func (s *slowProber) Probe(ctx context.Context, urls models.Endpoints) (*models.Snapshot, error) {
	if s.inflight.Add(1) > 1 {
		s.overlapped.Store(true)
	}
	defer s.inflight.Add(-1)

	s.calls.Add(1)
	time.Sleep(50 * time.Millisecond)
	return &models.Snapshot{}, nil
}

func TestCycle_ConcurrentRunsAreSerialized(t *testing.T) {
	f := newFixture()
	f.seed(t, "t1", models.Subscription{
		Source:     src,
		LiveTarget: "fake:live-chan", UploadTarget: "fake:up-chan",
	})

	prober := &slowProber{}
	f.poller.prober = prober

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.poller.runCycle(time.Now().UTC())
		}()
	}
	wg.Wait()

	assert.False(t, prober.overlapped.Load(), "cycles must never overlap")
	assert.Equal(t, int32(2), prober.calls.Load(), "both cycles should still run to completion")
}

func TestCycle_MalformedTargetIsPerSubscriptionError(t *testing.T) {
	f := newFixture()
	f.seed(t, "t1", models.Subscription{
		Source:     src,
		LiveTarget: "no-platform-marker", UploadTarget: "fake:up-chan",
	})
	f.prober.snaps[src] = &models.Snapshot{Live: true}

	f.poller.runCycle(time.Now().UTC())

	// Dispatch fails but the status transition already persisted.
	assert.True(t, f.subscription(t, "t1", src).Live)
}
