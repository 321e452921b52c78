package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/qurl/streamwatch/lib/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStore() *Store {
	return New(zap.NewNop(), NewMemoryKV())
}

func TestStore_ReadAbsentTenant(t *testing.T) {
	s := testStore()

	record, ok, err := s.Read(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, record)
}

func TestStore_AddOrReplace(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	first := models.Subscription{Source: "https://youtube.com/@one", LiveTarget: "discord:https://example.com/wh"}
	second := models.Subscription{Source: "https://youtube.com/@two", LiveTarget: "telegram:123"}
	require.NoError(t, s.AddOrReplace(ctx, "t1", first))
	require.NoError(t, s.AddOrReplace(ctx, "t1", second))

	record, ok, err := s.Read(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, record.Channels, 2)

	// Same source identity replaces in place instead of appending.
	replacement := models.Subscription{Source: "https://youtube.com/@one", LiveTarget: "email:ops@example.com"}
	require.NoError(t, s.AddOrReplace(ctx, "t1", replacement))

	record, _, err = s.Read(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, record.Channels, 2)
	assert.Equal(t, "email:ops@example.com", record.Find("https://youtube.com/@one").LiveTarget)
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	require.NoError(t, s.AddOrReplace(ctx, "t1", models.Subscription{Source: "https://youtube.com/@one"}))

	removed, err := s.Remove(ctx, "t1", "https://youtube.com/@one")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove(ctx, "t1", "https://youtube.com/@one")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.Remove(ctx, "absent", "https://youtube.com/@one")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_Tenants(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := New(zap.NewNop(), kv)

	require.NoError(t, s.AddOrReplace(ctx, "alpha", models.Subscription{Source: "a"}))
	require.NoError(t, s.AddOrReplace(ctx, "beta", models.Subscription{Source: "b"}))
	require.NoError(t, kv.Set(ctx, "unrelated:key", []byte("{}")))

	tenants, err := s.Tenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, tenants)
}

func TestStore_LegacyMigration(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := New(zap.NewNop(), kv)

	legacy := map[string]any{
		"source":        "https://youtube.com/@old",
		"live_target":   "discord:https://example.com/wh",
		"upload_target": "discord:https://example.com/wh2",
		"live_message":  "custom live",
		"last_video_id": "vid123",
		"live":          true,
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "tenant:t1", raw))

	record, ok, err := s.Read(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)

	// Original fields are preserved as the sole list element.
	require.Len(t, record.Channels, 1)
	sub := record.Channels[0]
	assert.Equal(t, "https://youtube.com/@old", sub.Source)
	assert.Equal(t, "discord:https://example.com/wh", sub.LiveTarget)
	assert.Equal(t, "discord:https://example.com/wh2", sub.UploadTarget)
	assert.Equal(t, "custom live", sub.LiveMessage)
	assert.Equal(t, "vid123", sub.LastVideoID)
	assert.True(t, sub.Live)
	assert.False(t, sub.LastStatusChange.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), sub.LastStatusChange, time.Minute)

	// The upgraded shape is persisted so the migration runs at most once.
	persisted, ok, err := kv.Get(ctx, "tenant:t1")
	require.NoError(t, err)
	require.True(t, ok)

	var shape map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(persisted, &shape))
	assert.Contains(t, shape, "channels")

	again, _, err := s.Read(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, record, again)
}

func TestDecodeTenantRecord_CurrentShapeUntouched(t *testing.T) {
	raw := []byte(`{"channels":[{"source":"https://youtube.com/@one"}]}`)

	record, migrated, err := decodeTenantRecord(raw)
	require.NoError(t, err)
	assert.False(t, migrated)
	require.Len(t, record.Channels, 1)
	assert.Equal(t, "https://youtube.com/@one", record.Channels[0].Source)
}
