package senders

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// mailgunSender delivers notifications over email; the target is the
// recipient address.
type mailgunSender struct {
	base
}

func (e *mailgunSender) Send(ctx context.Context, target string, msg Message) error {
	mg := mailgun.NewMailgun(e.cfg.Mailgun.Domain, e.cfg.Mailgun.APIKey)
	mg.Client().Transport = e.transport

	subject := "streamwatch notification"
	if msg.Embed != nil && msg.Embed.Title != "" {
		subject = msg.Embed.Title
	}

	// Create message with empty body first. SetHtml assigns the MIME type
	// properly.
	message := mg.NewMessage(e.cfg.Mailgun.SenderFrom, subject, "", target)
	message.SetHtml(htmlBody(msg))

	timeout := time.Duration(e.cfg.Mailgun.TimeoutSecs) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, _, err := mg.Send(ctx, message)
	return err
}

func htmlBody(msg Message) string {
	body := fmt.Sprintf("<p>%s</p>", msg.Content)
	if msg.Embed != nil && msg.Embed.URL != "" {
		body += fmt.Sprintf(`<p><a href="%s">%s</a></p>`, msg.Embed.URL, msg.Embed.URL)
	}
	return body
}
