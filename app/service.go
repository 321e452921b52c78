package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/qurl/streamwatch/config"
	"github.com/qurl/streamwatch/lib"
	"github.com/qurl/streamwatch/lib/models"
	"github.com/qurl/streamwatch/lib/poller"
	"github.com/qurl/streamwatch/senders"
	"github.com/qurl/streamwatch/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	sourceURLPattern    = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+$`)
	sourceHandlePattern = regexp.MustCompile(`^@?[A-Za-z0-9._-]+$`)
)

// Service implements the command surface: add, remove and list
// subscriptions on behalf of a tenant.
type Service struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	poller  *poller.Poller
	senders senders.Registry
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, st *store.Store, p *poller.Poller, registry senders.Registry) *Service {
	return &Service{cfg, log, st, p, registry}
}

// AddSubscription validates and normalizes the raw source reference, stores
// the subscription (replacing any existing one with the same identity), and
// kicks an immediate poll cycle.
func (svc *Service) AddSubscription(ctx context.Context, tenant, sourceRef, liveTarget, uploadTarget, liveMessage, uploadMessage string) (*models.Subscription, error) {
	if err := validateSourceRef(sourceRef); err != nil {
		return nil, err
	}
	if err := svc.senders.Validate(liveTarget); err != nil {
		return nil, fmt.Errorf("live target: %w", err)
	}
	if err := svc.senders.Validate(uploadTarget); err != nil {
		return nil, fmt.Errorf("upload target: %w", err)
	}

	if liveMessage == "" {
		liveMessage = svc.cfg.DefaultLiveMessage
	}
	if uploadMessage == "" {
		uploadMessage = svc.cfg.DefaultUploadMessage
	}

	urls := lib.Normalize(sourceRef)
	sub := models.Subscription{
		Source:           urls.Main,
		LiveTarget:       liveTarget,
		UploadTarget:     uploadTarget,
		LiveMessage:      liveMessage,
		UploadMessage:    uploadMessage,
		LastStatusChange: time.Now().UTC(),
	}

	if err := svc.store.AddOrReplace(ctx, tenant, sub); err != nil {
		return nil, err
	}
	svc.log.Sugar().Infof("Added source %s for tenant %s", urls.Main, tenant)

	// Run an immediate check after setup.
	svc.poller.Kick()
	return &sub, nil
}

// RemoveSubscription normalizes the raw reference and removes the matching
// subscription, reporting whether anything was removed.
func (svc *Service) RemoveSubscription(ctx context.Context, tenant, sourceRef string) (bool, error) {
	urls := lib.Normalize(sourceRef)
	removed, err := svc.store.Remove(ctx, tenant, urls.Main)
	if err != nil {
		return false, err
	}
	if removed {
		svc.log.Sugar().Infof("Removed source %s for tenant %s", urls.Main, tenant)
	}
	return removed, nil
}

func (svc *Service) ListSubscriptions(ctx context.Context, tenant string) (models.Subscriptions, error) {
	record, ok, err := svc.store.Read(ctx, tenant)
	if err != nil || !ok {
		return nil, err
	}
	return record.Channels, nil
}

func validateSourceRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("source reference must not be empty")
	}
	if sourceURLPattern.MatchString(ref) || sourceHandlePattern.MatchString(ref) {
		return nil
	}
	return fmt.Errorf("invalid source reference %q, expected a channel URL or @handle", ref)
}
