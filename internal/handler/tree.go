package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/domain/services"
	"inkwell/internal/httputil"
)

// TreeHandler serves the nested namespace listing.
type TreeHandler struct {
	share  services.ShareService
	logger *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(share services.ShareService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{share: share, logger: logger}
}

// GetTree handles GET /api/tree. With ?shared=true only share-visible files
// (and the folders containing them) are returned.
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	shareOnly := r.URL.Query().Get("shared") == "true"

	tree, err := h.share.Tree(r.Context(), shareOnly)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}
