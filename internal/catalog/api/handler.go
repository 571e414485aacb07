package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-boxoffice/internal/catalog"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *catalog.Service
	Logger  *logger.Logger
}

func NewHandler(service *catalog.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// CreateEvent handles POST /events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req catalog.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	event, err := h.Service.CreateEvent(r.Context(), req)
	if err != nil {
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("Could not create event", err.Error()))
		return
	}

	h.respond(w, http.StatusCreated, utils.SuccessResponse("Event created", event))
}

// ListEvents handles GET /events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListEvents(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not list events", "internal error"))
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Events found", events))
}

// GetEvent handles GET /events/{eventID}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := h.Service.GetEvent(r.Context(), eventID)
	switch {
	case err == nil:
		h.respond(w, http.StatusOK, utils.SuccessResponse("Event found", event))
	case errors.Is(err, models.ErrEventNotFound):
		h.respond(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("GetEvent: %v", err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not fetch event", "internal error"))
	}
}

// CancelEvent handles POST /events/{eventID}/cancel.
func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	err := h.Service.CancelEvent(r.Context(), eventID)
	switch {
	case err == nil:
		h.respond(w, http.StatusOK, utils.SuccessResponse("Event cancelled", nil))
	case errors.Is(err, models.ErrEventNotFound):
		h.respond(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
	case errors.Is(err, models.ErrEventNotActive):
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("Event is not active", err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("CancelEvent: %v", err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not cancel event", "internal error"))
	}
}

// FinishEvent handles POST /events/{eventID}/finish.
func (h *Handler) FinishEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	err := h.Service.FinishEvent(r.Context(), eventID)
	switch {
	case err == nil:
		h.respond(w, http.StatusOK, utils.SuccessResponse("Event finished", nil))
	case errors.Is(err, models.ErrEventNotFound):
		h.respond(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
	case errors.Is(err, models.ErrEventNotActive):
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("Event is not active", err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("FinishEvent: %v", err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not finish event", "internal error"))
	}
}

// GetEventStats handles GET /events/{eventID}/stats.
func (h *Handler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	stats, err := h.Service.GetEventStats(r.Context(), eventID)
	switch {
	case err == nil:
		h.respond(w, http.StatusOK, utils.SuccessResponse("Event stats", stats))
	case errors.Is(err, models.ErrEventNotFound):
		h.respond(w, http.StatusNotFound, utils.ErrorResponse("Event not found", err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("GetEventStats: %v", err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not fetch stats", "internal error"))
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && h.Logger != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}
