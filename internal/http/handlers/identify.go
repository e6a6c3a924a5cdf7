package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Pseudo-CS/bitespeed-assign/internal/http/response"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/apperr"
	"github.com/Pseudo-CS/bitespeed-assign/internal/services"
)

type IdentifyHandler struct {
	identityService services.IdentityService
}

func NewIdentifyHandler(identityService services.IdentityService) *IdentifyHandler {
	return &IdentifyHandler{identityService: identityService}
}

type identifyRequest struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
}

type identifyResponse struct {
	Contact *services.IdentityView `json:"contact"`
}

// POST /identify
// body: { "email"?: "...", "phoneNumber"?: "..." }
func (h *IdentifyHandler) Identify(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	email := trimmed(req.Email)
	phone := trimmed(req.PhoneNumber)
	if email == "" && phone == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("at least one of email or phoneNumber is required"))
		return
	}

	view, err := h.identityService.Identify(c.Request.Context(), email, phone)
	if err != nil {
		status, code := statusForError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, identifyResponse{Contact: view})
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, apperr.ErrConstraintViolation):
		return http.StatusConflict, "constraint_violation"
	case errors.Is(err, apperr.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, apperr.ErrInvariantViolation):
		return http.StatusInternalServerError, "invariant_violation"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
