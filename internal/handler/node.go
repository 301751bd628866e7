package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/domain/models"
	"inkwell/internal/domain/services"
	"inkwell/internal/httputil"
)

// NodeHandler serves folder creation and the structural operations shared by
// files and folders: get, rename, move, delete, children.
type NodeHandler struct {
	tree    services.TreeService
	gateway services.Gateway
	logger  *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(tree services.TreeService, gateway services.Gateway, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		tree:    tree,
		gateway: gateway,
		logger:  logger,
	}
}

type createFolderRequest struct {
	ParentID *string `json:"parent_id"`
	Name     string  `json:"name"`
}

// CreateFolder handles POST /api/folders
func (h *NodeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.tree.Create(r.Context(), &services.CreateNodeRequest{
		ParentID: req.ParentID,
		Kind:     models.NodeKindFolder,
		Name:     req.Name,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// GetNode handles GET /api/nodes/{id}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.tree.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

type updateNodeRequest struct {
	Name     *string `json:"name"`
	ParentID *string `json:"parent_id"`
	// MoveToRoot distinguishes "move to root" from "don't move", which a
	// nullable parent_id alone cannot express.
	MoveToRoot bool `json:"move_to_root"`
}

// UpdateNode handles PATCH /api/nodes/{id}: rename, move, or both.
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var req updateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name == nil && req.ParentID == nil && !req.MoveToRoot {
		httputil.RespondError(w, http.StatusBadRequest, "at least one of name or parent_id must be provided")
		return
	}

	nodeID := r.PathValue("id")
	var node *models.Node
	var err error

	if req.Name != nil {
		node, err = h.gateway.Rename(r.Context(), nodeID, *req.Name)
		if err != nil {
			handleError(w, err)
			return
		}
	}

	if req.ParentID != nil || req.MoveToRoot {
		node, err = h.gateway.Move(r.Context(), nodeID, req.ParentID)
		if err != nil {
			handleError(w, err)
			return
		}
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode handles DELETE /api/nodes/{id}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.Delete(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListChildren handles GET /api/nodes/{id}/children
func (h *NodeHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	children, err := h.tree.ListChildren(r.Context(), &id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, children)
}

// ListRoot handles GET /api/nodes: the root-level children.
func (h *NodeHandler) ListRoot(w http.ResponseWriter, r *http.Request) {
	children, err := h.tree.ListChildren(r.Context(), nil)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, children)
}
