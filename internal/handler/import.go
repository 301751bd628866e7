package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/domain/services"
	"inkwell/internal/httputil"
)

// ImportHandler serves bulk file ingestion from external trees.
type ImportHandler struct {
	importer services.ImportService
	logger   *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importer services.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{importer: importer, logger: logger}
}

type importRequest struct {
	Files []services.ImportFile `json:"files"`
}

// Import handles POST /api/import. Failures are per-file; the response
// reports counts and the paths that could not land.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Files) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "no files to import")
		return
	}

	result, err := h.importer.Import(r.Context(), req.Files, author(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
