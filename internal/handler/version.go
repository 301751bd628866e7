package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/domain/services"
	"inkwell/internal/httputil"
)

// VersionHandler serves the per-file version history.
type VersionHandler struct {
	versions services.VersionService
	gateway  services.Gateway
	logger   *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(versions services.VersionService, gateway services.Gateway, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		versions: versions,
		gateway:  gateway,
		logger:   logger,
	}
}

// ListVersions handles GET /api/documents/{id}/versions
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.versions.List(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// GetVersion handles GET /api/documents/{id}/versions/{versionID}
func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	version, err := h.versions.Get(r.Context(), r.PathValue("id"), r.PathValue("versionID"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, version)
}

// RestoreVersion handles POST /api/documents/{id}/versions/{versionID}/restore
func (h *VersionHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	version, err := h.gateway.RestoreVersion(r.Context(), r.PathValue("id"), r.PathValue("versionID"), author(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}
