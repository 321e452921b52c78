package main

import (
	"net/http"
	"os"
	"time"

	"github.com/qurl/streamwatch/app"
	"github.com/qurl/streamwatch/config"
	"github.com/qurl/streamwatch/lib/poller"
	"github.com/qurl/streamwatch/lib/probe"
	"github.com/qurl/streamwatch/senders"
	"github.com/qurl/streamwatch/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewSenderRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),
		fx.Provide(store.NewStore),
		fx.Provide(probe.NewProber),
		fx.Provide(func(p *probe.Prober) poller.Prober { return p }),
		fx.Provide(poller.NewPoller),
		fx.Provide(app.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*poller.Poller, *http.Server) {}),
	).Run()
}
