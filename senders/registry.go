package senders

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qurl/streamwatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Message is a rendered notification: plain content plus an optional embed
// for platforms that support rich formatting.
type Message struct {
	Content string
	Embed   *Embed
}

type Embed struct {
	Title       string
	Description string
	URL         string
	Color       int
	Timestamp   time.Time
}

type Sender interface {
	Send(ctx context.Context, target string, msg Message) error
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return Registry{
		"discord":  &discordSender{base},
		"telegram": newTelegramSender(base),
		"email":    &mailgunSender{base},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}

// ParseTarget splits a target reference of the form "platform:ref".
func ParseTarget(ref string) (platform, target string, err error) {
	platform, target, found := strings.Cut(ref, ":")
	if !found || platform == "" || target == "" {
		return "", "", fmt.Errorf("malformed notify target %q, expected platform:ref", ref)
	}
	return platform, target, nil
}

// Validate reports whether a target reference names a known platform.
func (r Registry) Validate(ref string) error {
	platform, _, err := ParseTarget(ref)
	if err != nil {
		return err
	}
	if _, ok := r[platform]; !ok {
		return fmt.Errorf("unsupported notify platform: %s", platform)
	}
	return nil
}

// Dispatch resolves the target's platform and delivers msg through it. Each
// dispatch is tagged with an id for log correlation only; delivery is
// at-most-once and never retried here.
func (r Registry) Dispatch(ctx context.Context, log *zap.Logger, ref string, msg Message) error {
	platform, target, err := ParseTarget(ref)
	if err != nil {
		return err
	}
	sender, ok := r[platform]
	if !ok {
		return fmt.Errorf("unsupported notify platform: %s", platform)
	}

	dispatchID := uuid.NewString()
	if err := sender.Send(ctx, target, msg); err != nil {
		log.Sugar().Errorw("Notification dispatch failed", "dispatch_id", dispatchID, "platform", platform, "err", err)
		return fmt.Errorf("dispatch %s via %s: %w", dispatchID, platform, err)
	}
	log.Sugar().Infow("Notification dispatched", "dispatch_id", dispatchID, "platform", platform)
	return nil
}
