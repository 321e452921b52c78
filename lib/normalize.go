package lib

import (
	"regexp"
	"strings"

	"github.com/qurl/streamwatch/lib/models"
)

// Recognized reference shapes, tried in priority order.
var refShapes = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"channel", regexp.MustCompile(`youtube\.com/channel/([^/?]+)`)},
	{"user", regexp.MustCompile(`youtube\.com/user/([^/?]+)`)},
	{"custom", regexp.MustCompile(`youtube\.com/@([^/?]+)`)},
	{"handle", regexp.MustCompile(`youtube\.com/(@[^/?]+)`)},
}

// Normalize canonicalizes a raw source reference into a stable identity plus
// derived endpoint URLs. It is total over non-empty input and idempotent on
// the Main identity: Normalize(Normalize(x).Main) == Normalize(x).
func Normalize(raw string) models.Endpoints {
	for _, shape := range refShapes {
		if shape.pattern.MatchString(raw) {
			return endpointsFor(raw)
		}
	}

	// No shape matched; treat the input as a bare handle.
	clean := raw
	if !strings.HasPrefix(clean, "http") {
		if strings.HasPrefix(clean, "@") {
			clean = "https://youtube.com/" + clean
		} else {
			clean = "https://youtube.com/@" + clean
		}
	}
	return endpointsFor(clean)
}

func endpointsFor(url string) models.Endpoints {
	base, _, _ := strings.Cut(url, "?")
	base = strings.TrimSuffix(base, "/")
	return models.Endpoints{
		Main:   base,
		Live:   base + "/live",
		Stream: base + "/live",
	}
}

// DisplayName derives a human-readable source name from the normalized main
// identity: the path segment after the handle marker, or the last path
// segment when no marker is present.
func DisplayName(main string) string {
	if i := strings.LastIndex(main, "@"); i >= 0 {
		name, _, _ := strings.Cut(main[i+1:], "/")
		return name
	}
	segments := strings.Split(strings.TrimSuffix(main, "/"), "/")
	return segments[len(segments)-1]
}
