package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/qurl/streamwatch/config"
	"github.com/qurl/streamwatch/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("streamwatch", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/tenants/{tenant_id}/subscriptions", func(r chi.Router) {
			r.Get("/", ctrl.listSubscriptions)
			r.Post("/", ctrl.addSubscription)
			r.Delete("/", ctrl.removeSubscription)
		})
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "err", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func (ctrl *controller) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant_id")

	subs, err := ctrl.svc.ListSubscriptions(r.Context(), tenant)
	if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.Subscription, SubscriptionView](subs))
}

func (ctrl *controller) addSubscription(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant_id")

	var payload AddSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ctrl.reject(w, http.StatusBadRequest, err)
		return
	}

	sub, err := ctrl.svc.AddSubscription(
		r.Context(), tenant,
		payload.Source, payload.LiveTarget, payload.UploadTarget,
		payload.LiveMessage, payload.UploadMessage,
	)
	if err != nil {
		ctrl.reject(w, http.StatusBadRequest, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, SubscriptionView{}.From(*sub))
}

func (ctrl *controller) removeSubscription(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant_id")
	source := r.URL.Query().Get("source")
	if source == "" {
		ctrl.reject(w, http.StatusBadRequest, fmt.Errorf("source query parameter is required"))
		return
	}

	removed, err := ctrl.svc.RemoveSubscription(r.Context(), tenant, source)
	if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	if !removed {
		ctrl.reject(w, http.StatusNotFound, fmt.Errorf("no subscription for source %s", source))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
