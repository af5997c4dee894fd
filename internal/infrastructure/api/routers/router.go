package routers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veltmarket/wallet-service/internal/di"
	http2 "github.com/veltmarket/wallet-service/internal/infrastructure/api/http"
	"github.com/veltmarket/wallet-service/internal/infrastructure/api/middlewares"
)

func NewRouter(container *di.Container, db *pgxpool.Pool) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middlewares.MetricsMiddleware)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", healthHandler(db))

	router.Route("/api/v1/wallet/transactions", func(r chi.Router) {
		// Processor callbacks authenticate through signatures, not user IDs.
		r.Group(func(r chi.Router) {
			wh := container.WebhookHandler
			r.Post("/deposit/paystack-webhook", wh.Paystack)
			r.Post("/deposit/flutterwave-webhook", wh.Flutterwave)
			r.Post("/deposit/stripe-webhook", wh.Stripe)
			r.Post("/deposit/mpesa-callback", wh.MpesaCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.UserAuthMiddleware())

			dh := container.DepositHandler
			r.Post("/deposit/initiate", dh.Initiate)
			r.Get(fmt.Sprintf("/deposit/status/{%s}", http2.DepositIDParam), dh.Status)
			// aliases kept for clients using the resource-first shape
			r.Post("/deposit", dh.Initiate)
			r.Get(fmt.Sprintf("/deposit/{%s}/status", http2.DepositIDParam), dh.Status)

			wh := container.WithdrawalHandler
			r.Post("/withdraw/initiate", wh.Initiate)
			r.Post("/withdraw/confirm", wh.Confirm)
			r.Get(fmt.Sprintf("/withdraw/status/{%s}", http2.WithdrawalIDParam), wh.Status)
			r.Post(fmt.Sprintf("/withdraw/cancel/{%s}", http2.TransactionIDParam), wh.Cancel)
			r.Post("/withdraw", wh.Initiate)
			r.Get(fmt.Sprintf("/withdraw/{%s}/status", http2.WithdrawalIDParam), wh.Status)
			r.Post(fmt.Sprintf("/{%s}/cancel", http2.TransactionIDParam), wh.Cancel)

			th := container.TransactionHandler
			r.Get("/", th.List)
			r.Get("/summary/daily", th.DailySummary)
			r.Get(fmt.Sprintf("/{%s}", http2.TransactionIDParam), th.Get)
			r.Get(fmt.Sprintf("/{%s}/events", http2.TransactionIDParam), th.Events)

			eh := container.ExportHandler
			r.Get("/export", eh.Export)
			r.Get("/export/csv", eh.ExportCSV)
		})
	})

	return router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
