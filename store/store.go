package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/qurl/streamwatch/config"
	"github.com/qurl/streamwatch/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tenantKeyPrefix = "tenant:"

// Store persists per-tenant subscription lists as whole aggregates on top of
// the KV contract. Compound operations are serialized by a single mutex so
// that two read-modify-write cycles never interleave.
type Store struct {
	log *zap.Logger
	kv  KV
	mu  sync.Mutex
}

func NewStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB) (*Store, error) {
	var kv KV
	if cfg.RedisURL != "" {
		var err error
		kv, err = NewRedisKV(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Info("Subscription store backed by redis")
	} else {
		kv = NewGormKV(db)
		log.Info("Subscription store backed by sqlite")
	}
	return New(log, kv), nil
}

func New(log *zap.Logger, kv KV) *Store {
	return &Store{log: log, kv: kv}
}

func tenantKey(tenant string) string {
	return tenantKeyPrefix + tenant
}

// Tenants enumerates every tenant that has a stored record.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, tenantKeyPrefix)
	if err != nil {
		return nil, err
	}
	tenants := make([]string, len(keys))
	for i, key := range keys {
		tenants[i] = strings.TrimPrefix(key, tenantKeyPrefix)
	}
	return tenants, nil
}

// Read loads a tenant's record. A record still in the legacy
// single-subscription shape is upgraded to the list shape in place and the
// upgraded shape is persisted, so the migration runs at most once per tenant.
func (s *Store) Read(ctx context.Context, tenant string) (*models.TenantRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx, tenant)
}

func (s *Store) read(ctx context.Context, tenant string) (*models.TenantRecord, bool, error) {
	raw, ok, err := s.kv.Get(ctx, tenantKey(tenant))
	if err != nil || !ok {
		return nil, false, err
	}

	record, migrated, err := decodeTenantRecord(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decoding record for tenant %s: %w", tenant, err)
	}

	if migrated {
		if err := s.write(ctx, tenant, record); err != nil {
			return nil, false, err
		}
		s.log.Sugar().Infof("Migrated tenant %s single-subscription record to list shape", tenant)
	}
	return record, true, nil
}

// Write replaces the tenant's whole aggregate.
func (s *Store) Write(ctx context.Context, tenant string, record *models.TenantRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, tenant, record)
}

func (s *Store) write(ctx context.Context, tenant string, record *models.TenantRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, tenantKey(tenant), raw)
}

// AddOrReplace inserts sub into the tenant's record, replacing in place any
// subscription with the same source identity.
func (s *Store) AddOrReplace(ctx context.Context, tenant string, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok, err := s.read(ctx, tenant)
	if err != nil {
		return err
	}
	if !ok {
		record = &models.TenantRecord{}
	}
	record.Upsert(sub)
	return s.write(ctx, tenant, record)
}

// Remove deletes the subscription with the given source identity, reporting
// whether anything was removed.
func (s *Store) Remove(ctx context.Context, tenant, source string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok, err := s.read(ctx, tenant)
	if err != nil || !ok {
		return false, err
	}
	if !record.Drop(source) {
		return false, nil
	}
	return true, s.write(ctx, tenant, record)
}

// decodeTenantRecord parses a stored value, detecting the legacy shape where
// the subscription fields sit at the top level instead of under "channels".
// The legacy fields are preserved as the sole list element.
func decodeTenantRecord(raw []byte) (*models.TenantRecord, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, err
	}

	if _, ok := fields["channels"]; ok {
		record := &models.TenantRecord{}
		if err := json.Unmarshal(raw, record); err != nil {
			return nil, false, err
		}
		return record, false, nil
	}

	var legacy models.Subscription
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, false, err
	}
	if legacy.LastStatusChange.IsZero() {
		legacy.LastStatusChange = time.Now().UTC()
	}
	return &models.TenantRecord{Channels: models.Subscriptions{legacy}}, true, nil
}
