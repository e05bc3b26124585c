package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sharinghood-api/internal/application/booking"
	"github.com/sharinghood-api/internal/domain"
)

// BookingHandler handles bookings of posted items.
type BookingHandler struct {
	svc booking.Service
}

func NewBookingHandler(svc booking.Service) *BookingHandler { return &BookingHandler{svc: svc} }

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.CreateBookingRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateBookingRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.svc.UpdateStatus(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Mine pages the caller's bookings in community {id}.
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	p, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := h.svc.Mine(r.Context(), userID, chi.URLParam(r, "id"), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
