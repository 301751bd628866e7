package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/domain/services"
	"inkwell/internal/httputil"
)

// DocumentHandler serves document creation and content endpoints.
type DocumentHandler struct {
	gateway services.Gateway
	share   services.ShareService
	logger  *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(gateway services.Gateway, share services.ShareService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		gateway: gateway,
		share:   share,
		logger:  logger,
	}
}

type createDocumentRequest struct {
	ParentID       *string `json:"parent_id"`
	Name           string  `json:"name"`
	InitialText    *string `json:"initial_text"`
	VisibleInShare bool    `json:"visible_in_share"`
}

// CreateDocument handles POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.gateway.CreateDocument(r.Context(), &services.CreateDocumentRequest{
		ParentID:       req.ParentID,
		Name:           req.Name,
		InitialText:    req.InitialText,
		VisibleInShare: req.VisibleInShare,
		Author:         author(r),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

type updateContentRequest struct {
	CanonicalText *string `json:"canonical_text"`
	Fragment      []byte  `json:"fragment"`
}

// UpdateContent handles PUT /api/documents/{id}/content
func (h *DocumentHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req updateContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	version, err := h.gateway.UpdateContent(r.Context(), &services.UpdateContentRequest{
		FileID:        r.PathValue("id"),
		CanonicalText: req.CanonicalText,
		Fragment:      req.Fragment,
		Author:        author(r),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, version)
}

type documentTextResponse struct {
	FileID string `json:"file_id"`
	Text   string `json:"text"`
}

// GetText handles GET /api/documents/{id}/text
func (h *DocumentHandler) GetText(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("id")

	text, err := h.share.CanonicalText(r.Context(), fileID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, documentTextResponse{FileID: fileID, Text: text})
}

// HealthCheck handles GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
