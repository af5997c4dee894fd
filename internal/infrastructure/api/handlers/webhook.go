package handlers

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/veltmarket/wallet-service/internal/errors"
	"github.com/veltmarket/wallet-service/internal/infrastructure/payments"
	"github.com/veltmarket/wallet-service/internal/usecases/interactor"
	"github.com/veltmarket/wallet-service/pkg/log"
)

var webhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wallet_webhook_deliveries_total",
	Help: "Processor webhook deliveries by outcome",
}, []string{"processor", "outcome"})

// signatureHeaders names each processor's signature header. M-Pesa has
// none; its deliveries are validated by re-querying the STK status.
var signatureHeaders = map[payments.Kind]string{
	payments.KindPaystack:    "x-paystack-signature",
	payments.KindFlutterwave: "verif-hash",
	payments.KindStripe:      "stripe-signature",
}

type WebhookHandler struct {
	interactor *interactor.WebhookInteractor
	logger     *zerolog.Logger
}

func NewWebhookHandler(interactor *interactor.WebhookInteractor) *WebhookHandler {
	logger := log.GetLogger()
	return &WebhookHandler{interactor: interactor, logger: &logger}
}

func (h *WebhookHandler) Paystack(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, payments.KindPaystack)
}

func (h *WebhookHandler) Flutterwave(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, payments.KindFlutterwave)
}

func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, payments.KindStripe)
}

// MpesaCallback answers with Daraja's own acknowledgment envelope rather
// than the generic error shape.
func (h *WebhookHandler) MpesaCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		webhookDeliveries.WithLabelValues(string(payments.KindMpesa), "error").Inc()
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ResultCode": 1, "ResultDesc": "Rejected",
		})
		return
	}

	err = h.interactor.Handle(r.Context(), payments.KindMpesa, body, "", hintsFromQuery(r))
	if err != nil {
		webhookDeliveries.WithLabelValues(string(payments.KindMpesa), "error").Inc()
		h.logger.Error().Err(err).Msg("mpesa callback failed")
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ResultCode": 1, "ResultDesc": "Rejected",
		})
		return
	}

	webhookDeliveries.WithLabelValues(string(payments.KindMpesa), "ok").Inc()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ResultCode": 0, "ResultDesc": "Accepted",
	})
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request, kind payments.Kind) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		webhookDeliveries.WithLabelValues(string(kind), "error").Inc()
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return
	}

	signature := r.Header.Get(signatureHeaders[kind])
	err = h.interactor.Handle(r.Context(), kind, body, signature, hintsFromQuery(r))
	if err != nil {
		webhookDeliveries.WithLabelValues(string(kind), "error").Inc()
		h.logger.Error().Err(err).Str("processor", string(kind)).Msg("webhook handling failed")
		errors.HandleHTTPError(w, err)
		return
	}

	webhookDeliveries.WithLabelValues(string(kind), "ok").Inc()
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func hintsFromQuery(r *http.Request) interactor.WebhookHints {
	query := r.URL.Query()
	return interactor.WebhookHints{
		TransactionID: query.Get("transactionId"),
		UserID:        query.Get("userId"),
	}
}
