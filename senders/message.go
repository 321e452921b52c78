package senders

import "strings"

// Render substitutes {placeholder} markers in a message template. Unknown
// placeholders are left verbatim.
func Render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
