package probe

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// pageContent is one fetched page in both raw and parsed form, shared by all
// signal checks.
type pageContent struct {
	raw string
	doc *html.Node
}

func parsePage(pg *page) (*pageContent, error) {
	doc, err := htmlquery.Parse(strings.NewReader(pg.body))
	if err != nil {
		return nil, err
	}
	return &pageContent{raw: pg.body, doc: doc}, nil
}

// signal is one independent liveness heuristic. Signals are aggregated by
// logical OR; each firing signal is recorded by name for observability.
type signal struct {
	name  string
	check func(*pageContent) bool
}

var liveSignals = []signal{
	{"Live Thumbnail", checkLiveThumbnail},
	{"Live Badge", checkLiveBadge},
	{"Live Text", checkLiveText},
	{"Script Data", checkScriptData},
	{"Metadata", checkMetadata},
}

// runSignals evaluates every signal against content. A panic inside one
// signal is recovered and treated as "did not fire"; it never aborts the
// remaining signals.
func runSignals(log *zap.Logger, signals []signal, content *pageContent, nameSuffix string) (live bool, fired []string) {
	for _, sig := range signals {
		ok := func() (ok bool) {
			defer func() {
				if r := recover(); r != nil {
					log.Sugar().Errorw("Signal check panicked", "signal", sig.name, "err", r)
					ok = false
				}
			}()
			return sig.check(content)
		}()

		if ok {
			live = true
			fired = append(fired, sig.name+nameSuffix)
		}
	}
	return live, fired
}

func checkLiveThumbnail(c *pageContent) bool {
	return strings.Contains(c.raw, "hqdefault_live.jpg")
}

const lowercase = "abcdefghijklmnopqrstuvwxyz"
const uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Elements whose class attribute suggests a live or badge role, and whose
// text actually mentions liveness.
func checkLiveBadge(c *pageContent) bool {
	xpath := `//*[contains(translate(@class, '` + uppercase + `', '` + lowercase + `'), 'live')` +
		` or contains(translate(@class, '` + uppercase + `', '` + lowercase + `'), 'badge')]`

	for _, node := range htmlquery.Find(c.doc, xpath) {
		text := strings.ToLower(htmlquery.InnerText(node))
		if strings.Contains(text, "live") {
			return true
		}
	}
	return false
}

var liveTexts = []string{"LIVE NOW", "LIVE", "🔴 LIVE", "Live stream", "Streaming now"}

func checkLiveText(c *pageContent) bool {
	for _, text := range liveTexts {
		if strings.Contains(c.raw, text) {
			return true
		}
	}
	return false
}

var scriptLiveFlags = []string{
	`"isLiveNow":true`,
	`"isLive":true`,
	`"status":"LIVE"`,
	`"broadcastIsLive":true`,
}

func checkScriptData(c *pageContent) bool {
	for _, node := range htmlquery.Find(c.doc, "//script") {
		payload := htmlquery.InnerText(node)
		for _, flag := range scriptLiveFlags {
			if strings.Contains(payload, flag) {
				return true
			}
		}
	}
	return false
}

var metadataXPaths = []string{
	`//meta[@property='og:video:tag'][contains(@content, 'live')]`,
	`//link[@rel='canonical'][contains(@href, 'live')]`,
	`//meta[@property='og:type'][@content='video.other']`,
	`//meta[@property='og:video:url']`,
}

func checkMetadata(c *pageContent) bool {
	for _, xpath := range metadataXPaths {
		if htmlquery.FindOne(c.doc, xpath) != nil {
			return true
		}
	}
	return false
}
