package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-boxoffice/internal/auth"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/utils"
	"ms-boxoffice/internal/validation"
)

type Handler struct {
	Service *validation.Service
	Guard   *validation.ScanGuard
	Logger  *logger.Logger
}

func NewHandler(service *validation.Service, guard *validation.ScanGuard, log *logger.Logger) *Handler {
	return &Handler{Service: service, Guard: guard, Logger: log}
}

// ValidateTicket handles POST /validate.
// Expected request body: {"public_code": "<scanned QR payload>"}
func (h *Handler) ValidateTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PublicCode string `json:"public_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if req.PublicCode == "" {
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("public_code is required", ""))
		return
	}

	// Best-effort scanner identity for the audit trail; verification of
	// the token happens in the auth middleware when enabled.
	scannerID := "unknown"
	if tokenString, err := auth.ExtractTokenFromRequest(r); err == nil {
		if sub, err := auth.ExtractUserIDFromJWT(tokenString); err == nil {
			scannerID = sub
		}
	}

	// Scan guard: swallow duplicate deliveries of the same scan before
	// they hit the database. Redis being down never blocks the gate.
	if h.Guard != nil {
		ok, err := h.Guard.TryAcquire(r.Context(), req.PublicCode)
		if err != nil {
			h.Logger.Warn("REDIS", fmt.Sprintf("scan guard unavailable: %v", err))
		} else if !ok {
			h.respond(w, http.StatusConflict, utils.ErrorResponse("Scan already in progress", "this code was scanned a moment ago"))
			return
		}
	}

	result, err := h.Service.Validate(r.Context(), req.PublicCode)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ValidateTicket: scanner=%s: %v", scannerID, err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("Could not validate ticket", "internal error"))
		return
	}

	h.Logger.LogValidation("SCAN", req.PublicCode, fmt.Sprintf("scanner=%s result=%s reason=%s", scannerID, result.Status, result.Reason))

	switch result.Status {
	case models.ValidationValid:
		h.respond(w, http.StatusOK, utils.SuccessResponse("Ticket valid - entry authorized", result))
	case models.ValidationAlreadyUsed:
		// Success-shaped: gate staff show a warning, not a failure.
		h.respond(w, http.StatusOK, utils.SuccessResponse("Ticket already used", result))
	default:
		// Let a rejected code be rescanned without waiting out the TTL.
		if h.Guard != nil {
			if err := h.Guard.Release(r.Context(), req.PublicCode); err != nil {
				h.Logger.Warn("REDIS", fmt.Sprintf("scan guard release: %v", err))
			}
		}
		resp := utils.ErrorResponse("Ticket invalid", result.Reason)
		resp.Data = result
		h.respond(w, http.StatusBadRequest, resp)
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && h.Logger != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}
