package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env            string `env:"ENVIRONMENT"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	BasicAuthCreds string `env:"BASIC_AUTH_CREDS"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"streamwatch.sqlite"`
	RedisURL     string `env:"REDIS_URL"`

	PollIntervalSecs int `env:"POLL_INTERVAL_SECS" envDefault:"60"`
	CycleTimeoutSecs int `env:"CYCLE_TIMEOUT_SECS" envDefault:"300"`

	DefaultLiveMessage   string `env:"DEFAULT_LIVE_MESSAGE" envDefault:"@everyone {channel} is Live over at {streamUrl}"`
	DefaultUploadMessage string `env:"DEFAULT_UPLOAD_MESSAGE" envDefault:"@everyone {channel} just uploaded a new video! {url}"`

	Telegram struct {
		Token string `env:"TELEGRAM_BOT_TOKEN"`
	}
	Mailgun struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"MAILGUN_SENDER_FROM"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"10"`
	}

	log   *zap.Logger
	creds map[string]string
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	env.Parse(cfg)

	creds, err := cfg.parseCreds()
	if err != nil {
		if cfg.Env == "" || cfg.Env == "development" {
			cfg.log.Sugar().Infof("%s (credentials will be set to default in development env)", err)
			creds = map[string]string{"admin": "password"}
		} else {
			cfg.log.Sugar().Panic(err)
		}
	}
	cfg.creds = creds

	return cfg
}

func (cfg *Config) GetCreds() map[string]string {
	return cfg.creds
}

func (cfg *Config) PollInterval() time.Duration {
	return time.Duration(cfg.PollIntervalSecs) * time.Second
}

func (cfg *Config) CycleTimeout() time.Duration {
	return time.Duration(cfg.CycleTimeoutSecs) * time.Second
}

func (cfg *Config) parseCreds() (map[string]string, error) {
	if cfg.BasicAuthCreds == "" {
		return nil, errors.New("BASIC_AUTH_CREDS envvar must be populated")
	}

	creds := strings.Split(cfg.BasicAuthCreds, ",")
	if len(creds) == 0 {
		return nil, errors.New("BASIC_AUTH_CREDS envvar should be filled with comma-separated values -- user1:pass1,user2:pass2")
	}

	result := make(map[string]string)
	for _, cred := range creds {
		userPass := strings.Split(cred, ":")
		if len(userPass) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each credential should be delimited by a colon -- user1:pass1,user2:pass2", cred)
		}

		user, pass := userPass[0], userPass[1]
		result[strings.Trim(user, " ")] = strings.Trim(pass, " ")
	}

	return result, nil
}
