package probe

import "regexp"

// Pattern extractors for the newest item identifier, tried in order; the
// first capturing match wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"videoId":"([^"]+)"`),
	regexp.MustCompile(`watch\?v=([^"&]+)`),
	regexp.MustCompile(`"url":"/watch\?v=([^"]+)"`),
	regexp.MustCompile(`embed/([^"/?]+)`),
}

// extractVideoID returns the newest item identifier found in raw markup, or
// "" when none of the patterns match. An empty result is a valid "unknown"
// state, not an error.
func extractVideoID(raw string) string {
	for _, pattern := range videoIDPatterns {
		if match := pattern.FindStringSubmatch(raw); len(match) > 1 && match[1] != "" {
			return match[1]
		}
	}
	return ""
}
