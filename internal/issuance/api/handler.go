package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-boxoffice/internal/issuance"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *issuance.Service
	Logger  *logger.Logger
}

func NewHandler(service *issuance.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// PlacePurchase handles POST /purchases.
func (h *Handler) PlacePurchase(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	result, err := h.Service.PlacePurchase(r.Context(), req)
	if err != nil {
		h.respondPurchaseError(w, req, err)
		return
	}

	h.respond(w, http.StatusCreated, utils.SuccessResponse("Tickets issued successfully", result))
}

func (h *Handler) respondPurchaseError(w http.ResponseWriter, req models.PurchaseRequest, err error) {
	var insufficient *models.InsufficientInventoryError

	switch {
	case errors.Is(err, models.ErrEventNotFound), errors.Is(err, models.ErrTierNotFound):
		h.respond(w, http.StatusNotFound, utils.ErrorResponse("Purchase rejected", err.Error()))
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrMissingBuyer),
		errors.Is(err, models.ErrEventNotActive),
		errors.Is(err, models.ErrEventFinished):
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("Purchase rejected", err.Error()))
	case errors.As(err, &insufficient):
		resp := utils.ErrorResponse("Not enough tickets available", err.Error())
		resp.Data = map[string]int{"remaining": insufficient.Remaining}
		h.respond(w, http.StatusConflict, resp)
	default:
		h.Logger.Error("API", fmt.Sprintf("PlacePurchase: event=%s tier=%s: %v", req.EventID, req.TierID, err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not complete purchase", "internal error"))
	}
}

// GetPurchaseTickets handles GET /purchases/{purchaseID}/tickets.
func (h *Handler) GetPurchaseTickets(w http.ResponseWriter, r *http.Request) {
	purchaseID := chi.URLParam(r, "purchaseID")

	tickets, err := h.Service.GetPurchaseTickets(r.Context(), purchaseID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPurchaseTickets: %v", err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not fetch tickets", "internal error"))
		return
	}
	if len(tickets) == 0 {
		h.respond(w, http.StatusNotFound, utils.ErrorResponse("Purchase not found", "no tickets for purchase "+purchaseID))
		return
	}

	h.respond(w, http.StatusOK, utils.SuccessResponse("Tickets found", tickets))
}

// GetBuyerTickets handles GET /buyers/{email}/tickets.
func (h *Handler) GetBuyerTickets(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("Buyer email is required", ""))
		return
	}

	tickets, err := h.Service.GetBuyerTickets(r.Context(), email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBuyerTickets: %v", err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not fetch tickets", "internal error"))
		return
	}

	h.respond(w, http.StatusOK, utils.SuccessResponse("Tickets found", tickets))
}

// CancelTicket handles POST /tickets/{ticketID}/cancel.
func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	err := h.Service.CancelTicket(r.Context(), ticketID)
	switch {
	case err == nil:
		h.respond(w, http.StatusOK, utils.SuccessResponse("Ticket cancelled", nil))
	case errors.Is(err, models.ErrTicketNotFound):
		h.respond(w, http.StatusNotFound, utils.ErrorResponse("Ticket not found", err.Error()))
	case errors.Is(err, models.ErrTicketNotCancellable):
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("Ticket cannot be cancelled", err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("CancelTicket: %v", err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not cancel ticket", "internal error"))
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && h.Logger != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}
