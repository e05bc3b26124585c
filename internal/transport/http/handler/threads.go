package handler

import (
	"net/http"

	"github.com/sharinghood-api/internal/application/thread"
	"github.com/sharinghood-api/internal/domain"
)

// ThreadHandler handles comments on posts and requests.
type ThreadHandler struct {
	svc thread.Service
}

func NewThreadHandler(svc thread.Service) *ThreadHandler { return &ThreadHandler{svc: svc} }

func (h *ThreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.CreateThreadRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ByParent lists GET /threads?parent_id=..&parent_type=post|request.
func (h *ThreadHandler) ByParent(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	parentID := q.Get("parent_id")
	if parentID == "" {
		writeError(w, http.StatusBadRequest, "parent_id is required")
		return
	}
	parentType := q.Get("parent_type")
	if parentType == "" {
		parentType = domain.ParentPost
	}
	p, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := h.svc.ByParent(r.Context(), userID, parentID, parentType, p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
