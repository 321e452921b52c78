package poller

import (
	"fmt"
	"time"

	"github.com/qurl/streamwatch/lib"
	"github.com/qurl/streamwatch/lib/models"
	"github.com/qurl/streamwatch/senders"
)

const embedColorRed = 0xFF0000

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func (p *Poller) liveMessage(sub *models.Subscription, urls models.Endpoints, now time.Time) senders.Message {
	template := sub.LiveMessage
	if template == "" {
		template = p.cfg.DefaultLiveMessage
	}

	content := senders.Render(template, map[string]string{
		"channel":   lib.DisplayName(urls.Main),
		"streamUrl": urls.Stream,
		"url":       urls.Stream,
	})
	return senders.Message{
		Content: content,
		Embed: &senders.Embed{
			Title:       "🔴 Live Stream Started!",
			Description: fmt.Sprintf("[Click here to watch](%s)", urls.Stream),
			URL:         urls.Stream,
			Color:       embedColorRed,
			Timestamp:   now,
		},
	}
}

func (p *Poller) uploadMessage(sub *models.Subscription, urls models.Endpoints, videoID string, now time.Time) senders.Message {
	template := sub.UploadMessage
	if template == "" {
		template = p.cfg.DefaultUploadMessage
	}

	videoURL := watchURL(videoID)
	content := senders.Render(template, map[string]string{
		"channel":   lib.DisplayName(urls.Main),
		"streamUrl": urls.Stream,
		"url":       videoURL,
	})
	return senders.Message{
		Content: content,
		Embed: &senders.Embed{
			Title:       "📺 New Video Upload!",
			Description: fmt.Sprintf("[Click here to watch](%s)", videoURL),
			URL:         videoURL,
			Color:       embedColorRed,
			Timestamp:   now,
		},
	}
}
