package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/httputil"
	"inkwell/internal/pathresolve"
)

// ResolveHandler serves document-reference resolution for link rendering.
type ResolveHandler struct {
	logger *slog.Logger
}

// NewResolveHandler creates a new resolve handler
func NewResolveHandler(logger *slog.Logger) *ResolveHandler {
	return &ResolveHandler{logger: logger}
}

type resolveRequest struct {
	BasePath  string `json:"base_path"`
	Reference string `json:"reference"`
}

type resolveResponse struct {
	Resolved   string `json:"resolved"`
	IsDocument bool   `json:"is_document"`
}

// Resolve handles POST /api/resolve
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resolveResponse{
		Resolved:   pathresolve.Resolve(req.BasePath, req.Reference),
		IsDocument: pathresolve.IsDocumentReference(req.Reference),
	})
}
