package app

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewTransport provides the RoundTripper shared by the prober and every
// sender, so outbound HTTP behavior can be swapped in one place.
func NewTransport(lc fx.Lifecycle, log *zap.Logger) http.RoundTripper {
	return http.DefaultTransport
}
