package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/veltmarket/wallet-service/internal/domain/models"
	"github.com/veltmarket/wallet-service/internal/domain/repositories"
	"github.com/veltmarket/wallet-service/internal/errors"
	http2 "github.com/veltmarket/wallet-service/internal/infrastructure/api/http"
	"github.com/veltmarket/wallet-service/internal/usecases/interactor"
	"github.com/veltmarket/wallet-service/pkg/log"
)

type TransactionHandler struct {
	interactor *interactor.TransactionInteractor
	logger     *zerolog.Logger
}

func NewTransactionHandler(interactor *interactor.TransactionInteractor) *TransactionHandler {
	logger := log.GetLogger()
	return &TransactionHandler{interactor: interactor, logger: &logger}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	response, err := h.interactor.List(r.Context(), http2.UserID(r), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list transactions")
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, http2.TransactionIDParam)

	view, err := h.interactor.Get(r.Context(), http2.UserID(r), id)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"transaction": view,
	})
}

func (h *TransactionHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, http2.TransactionIDParam)

	events, err := h.interactor.Events(r.Context(), http2.UserID(r), id)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"events":  events,
	})
}

func (h *TransactionHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.interactor.DailySummary(r.Context(), http2.UserID(r), r.URL.Query().Get("date"))
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": summary,
	})
}

func parseFilter(r *http.Request) (repositories.TransactionFilter, error) {
	query := r.URL.Query()
	filter := repositories.TransactionFilter{}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.NewBadRequestError("Invalid limit")
		}
		filter.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.NewBadRequestError("Invalid offset")
		}
		filter.Offset = offset
	}
	filter.Status = models.TransactionStatus(query.Get("status"))
	filter.Type = models.TransactionType(query.Get("type"))

	var err error
	if filter.DateFrom, err = parseDate(query.Get("dateFrom")); err != nil {
		return filter, errors.NewBadRequestError("Invalid dateFrom")
	}
	if filter.DateTo, err = parseDate(query.Get("dateTo")); err != nil {
		return filter, errors.NewBadRequestError("Invalid dateTo")
	}

	return filter, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
