package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baharkarakas/point-service/internal/api/httpx"
	"github.com/baharkarakas/point-service/internal/api/validate"
	"github.com/baharkarakas/point-service/internal/config"
	"github.com/baharkarakas/point-service/internal/middleware"
	"github.com/baharkarakas/point-service/internal/services"
)

type amountRequest struct {
	Amount int64 `json:"amount"`
}

// accountID parses the {id} route param. A non-numeric id is treated as 0
// so the service rejects it as invalid without touching any store.
func accountID(r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func decodeAmount(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return 0, false
	}
	var errs validate.Errs
	if e := validate.MinInt("amount", req.Amount, 1); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "INVALID_AMOUNT", errs.Error(), errs)
		return 0, false
	}
	return req.Amount, true
}

func NewRouter(cfg config.Config, ledger *services.LedgerService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.RateLimit(cfg.RateRPS), middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- points ----------
		r.Get("/points/{id}", func(w http.ResponseWriter, r *http.Request) {
			b, err := ledger.GetBalance(r.Context(), accountID(r))
			if err != nil {
				httpx.WriteServiceError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, b)
		})

		r.Patch("/points/{id}/charge", func(w http.ResponseWriter, r *http.Request) {
			amount, ok := decodeAmount(w, r)
			if !ok {
				return
			}
			idem := r.Header.Get("Idempotency-Key")
			b, err := ledger.ChargeIdem(r.Context(), accountID(r), amount, idem)
			if err != nil {
				httpx.WriteServiceError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, b)
		})

		r.Patch("/points/{id}/use", func(w http.ResponseWriter, r *http.Request) {
			amount, ok := decodeAmount(w, r)
			if !ok {
				return
			}
			idem := r.Header.Get("Idempotency-Key")
			b, err := ledger.UseIdem(r.Context(), accountID(r), amount, idem)
			if err != nil {
				httpx.WriteServiceError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, b)
		})

		r.Get("/points/{id}/histories", func(w http.ResponseWriter, r *http.Request) {
			entries, err := ledger.GetHistory(r.Context(), accountID(r))
			if err != nil {
				httpx.WriteServiceError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, entries)
		})
	})

	return r
}
