package senders

import (
	"context"
	"time"

	"github.com/carlmjohnson/requests"
)

// discordSender delivers through a Discord-compatible webhook; the target is
// the webhook URL.
type discordSender struct {
	base
}

type webhookPayload struct {
	Content string         `json:"content"`
	Embeds  []webhookEmbed `json:"embeds,omitempty"`
}

type webhookEmbed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Color       int    `json:"color,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

func (d *discordSender) Send(ctx context.Context, target string, msg Message) error {
	payload := webhookPayload{Content: msg.Content}
	if msg.Embed != nil {
		payload.Embeds = []webhookEmbed{{
			Title:       msg.Embed.Title,
			Description: msg.Embed.Description,
			URL:         msg.Embed.URL,
			Color:       msg.Embed.Color,
			Timestamp:   msg.Embed.Timestamp.UTC().Format(time.RFC3339),
		}}
	}

	return requests.URL(target).
		Transport(d.transport).
		BodyJSON(&payload).
		Fetch(ctx)
}
