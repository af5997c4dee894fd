package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/veltmarket/wallet-service/internal/errors"
	http2 "github.com/veltmarket/wallet-service/internal/infrastructure/api/http"
	"github.com/veltmarket/wallet-service/internal/usecases/dtos"
	"github.com/veltmarket/wallet-service/internal/usecases/interactor"
	"github.com/veltmarket/wallet-service/pkg/log"
)

type WithdrawalHandler struct {
	interactor *interactor.WithdrawalInteractor
	logger     *zerolog.Logger
}

func NewWithdrawalHandler(interactor *interactor.WithdrawalInteractor) *WithdrawalHandler {
	logger := log.GetLogger()
	return &WithdrawalHandler{interactor: interactor, logger: &logger}
}

func (h *WithdrawalHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var dto dtos.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return
	}

	response, err := h.interactor.Initiate(r.Context(), http2.UserID(r), &dto)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to initiate withdrawal")
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, response)
}

func (h *WithdrawalHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var dto dtos.ConfirmWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return
	}

	view, err := h.interactor.Confirm(r.Context(), http2.UserID(r), &dto)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to confirm withdrawal")
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"withdrawal": view,
	})
}

func (h *WithdrawalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	withdrawalID := chi.URLParam(r, http2.TransactionIDParam)

	var dto dtos.CancelWithdrawalRequest
	// body is optional on cancellation
	json.NewDecoder(r.Body).Decode(&dto)

	view, err := h.interactor.Cancel(r.Context(), http2.UserID(r), withdrawalID, dto.Reason)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to cancel withdrawal")
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"withdrawal": view,
	})
}

func (h *WithdrawalHandler) Status(w http.ResponseWriter, r *http.Request) {
	withdrawalID := chi.URLParam(r, http2.WithdrawalIDParam)

	view, err := h.interactor.Status(r.Context(), http2.UserID(r), withdrawalID)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"withdrawal": view,
	})
}
