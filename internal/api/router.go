package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kotikvkofte/deal-service/internal/api/middleware"

	"github.com/go-chi/chi/v5"
	ChiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	// Redis backs the Idempotency-Key middleware. Nil disables it.
	Redis          *redis.Client
	IdempotencyTTL time.Duration
}

func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(ChiMiddleware.Logger)
	r.Use(ChiMiddleware.Recoverer)
	r.Use(ChiMiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	idempotent := func(next http.Handler) http.Handler { return next }
	if cfg.Redis != nil {
		idempotent = middleware.Idempotency(cfg.Redis, cfg.IdempotencyTTL)
	}

	r.Route("/deal-contractor", func(r chi.Router) {
		r.With(idempotent).Put("/save", h.SaveDealContractor)
		r.Delete("/delete/{id}", h.DeleteDealContractor)
	})

	r.Route("/contractor-to-role", func(r chi.Router) {
		r.Post("/add", h.AddContractorRole)
		r.Delete("/delete", h.DeleteContractorRole)
	})

	r.Route("/deal", func(r chi.Router) {
		r.Put("/save", h.SaveDeal)
		r.Patch("/change/status", h.ChangeDealStatus)
		r.Get("/{id}", h.GetDeal)
	})

	r.Get("/deal-status/all", h.ListDealStatuses)
	r.Get("/deal-type/all", h.ListDealTypes)
	r.Put("/deal-type/save", h.SaveDealType)

	r.Handle("/metrics", promhttp.Handler())

	slog.Debug("routes registered", "idempotency", cfg.Redis != nil)

	return r
}
