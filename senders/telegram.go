package senders

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
)

// telegramSender delivers through the Telegram bot API; the target is a chat
// id. The bot client is built lazily so the registry can be constructed with
// no token configured.
type telegramSender struct {
	base

	once    sync.Once
	client  *bot.Bot
	initErr error
}

func newTelegramSender(b base) *telegramSender {
	return &telegramSender{base: b}
}

func (t *telegramSender) bot() (*bot.Bot, error) {
	t.once.Do(func() {
		if t.cfg.Telegram.Token == "" {
			t.initErr = errors.New("telegram sender is not configured (TELEGRAM_BOT_TOKEN)")
			return
		}
		t.client, t.initErr = bot.New(t.cfg.Telegram.Token, bot.WithSkipGetMe())
	})
	return t.client, t.initErr
}

func (t *telegramSender) Send(ctx context.Context, target string, msg Message) error {
	client, err := t.bot()
	if err != nil {
		return err
	}

	text := msg.Content
	if msg.Embed != nil {
		lines := []string{msg.Content, msg.Embed.Title}
		if msg.Embed.URL != "" {
			lines = append(lines, msg.Embed.URL)
		}
		text = strings.Join(lines, "\n")
	}

	_, err = client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: target,
		Text:   text,
	})
	return err
}
