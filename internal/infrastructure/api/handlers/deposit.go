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

type DepositHandler struct {
	interactor *interactor.DepositInteractor
	logger     *zerolog.Logger
}

func NewDepositHandler(interactor *interactor.DepositInteractor) *DepositHandler {
	logger := log.GetLogger()
	return &DepositHandler{interactor: interactor, logger: &logger}
}

func (h *DepositHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var dto dtos.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return
	}

	response, err := h.interactor.Initiate(r.Context(), http2.UserID(r), &dto)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to initiate deposit")
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, response)
}

func (h *DepositHandler) Status(w http.ResponseWriter, r *http.Request) {
	depositID := chi.URLParam(r, http2.DepositIDParam)

	view, err := h.interactor.Status(r.Context(), http2.UserID(r), depositID)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deposit": view,
	})
}
