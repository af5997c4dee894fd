package handlers

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/veltmarket/wallet-service/internal/errors"
	http2 "github.com/veltmarket/wallet-service/internal/infrastructure/api/http"
	"github.com/veltmarket/wallet-service/internal/usecases/interactor"
	"github.com/veltmarket/wallet-service/pkg/log"
)

type ExportHandler struct {
	interactor *interactor.ExportInteractor
	logger     *zerolog.Logger
}

func NewExportHandler(interactor *interactor.ExportInteractor) *ExportHandler {
	logger := log.GetLogger()
	return &ExportHandler{interactor: interactor, logger: &logger}
}

func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, r.URL.Query().Get("format"))
}

// ExportCSV is the legacy alias that always produces CSV.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv")
}

func (h *ExportHandler) export(w http.ResponseWriter, r *http.Request, format string) {
	query := r.URL.Query()
	dateFrom, err := parseDate(query.Get("dateFrom"))
	if err != nil {
		errors.HandleHTTPError(w, errors.NewBadRequestError("Invalid dateFrom"))
		return
	}
	dateTo, err := parseDate(query.Get("dateTo"))
	if err != nil {
		errors.HandleHTTPError(w, errors.NewBadRequestError("Invalid dateTo"))
		return
	}

	file, err := h.interactor.Export(r.Context(), http2.UserID(r), format, dateFrom, dateTo)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to export transactions")
		errors.HandleHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}
