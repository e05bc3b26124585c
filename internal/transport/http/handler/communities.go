package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sharinghood-api/internal/application/community"
	"github.com/sharinghood-api/internal/domain"
)

// CommunityHandler handles communities and their member lists.
type CommunityHandler struct {
	svc community.Service
}

func NewCommunityHandler(svc community.Service) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.CreateCommunityRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListMine returns the caller's communities with their unread notification counts.
func (h *CommunityHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListMine(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.CommunitySummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CommunityHandler) FindByCode(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CommunityHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Join(r.Context(), userID, chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CommunityHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	p, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := h.svc.Members(r.Context(), userID, chi.URLParam(r, "id"), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
