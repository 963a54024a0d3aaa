package handlers

import (
	"errors"
	"net/http"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/internal/services"
	"github.com/gin-gonic/gin"
)

type RedeemHandler struct {
	service services.RedeemServiceInterface
}

func NewRedeemHandler(service services.RedeemServiceInterface) *RedeemHandler {
	return &RedeemHandler{service: service}
}

// Redeem verifies a credit redemption and forwards it to the club's webhooks
func (h *RedeemHandler) Redeem(c *gin.Context) {
	var req models.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.MsgInvalidRequestBody, err)
		return
	}

	if err := h.service.Redeem(c.Request.Context(), &req); err != nil {
		status, message := redeemErrorResponse(err)
		respondError(c, status, message, err)
		return
	}

	c.JSON(http.StatusOK, models.RedeemResponse{Message: models.MsgRedeemSuccess})
}

// Preflight answers CORS preflights that the cors middleware did not handle,
// e.g. requests without an Origin header
func (h *RedeemHandler) Preflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Status(http.StatusOK)
}

func redeemErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrMissingFields):
		return http.StatusBadRequest, models.MsgMissingFields
	case errors.Is(err, services.ErrInvalidEmail):
		return http.StatusBadRequest, models.MsgEmailMustEndWithEdu
	case errors.Is(err, services.ErrMalformedEmail):
		return http.StatusBadRequest, models.MsgInvalidEmailAddress
	case errors.Is(err, services.ErrLocationNotConfigured):
		return http.StatusServiceUnavailable, models.MsgLocationNotConfigured
	case errors.Is(err, services.ErrTooFar):
		return http.StatusForbidden, models.MsgTooFar
	case errors.Is(err, services.ErrWebhookNotConfigured):
		return http.StatusServiceUnavailable, models.MsgWebhookNotConfigured
	case errors.Is(err, services.ErrDeliveryFailed):
		return http.StatusInternalServerError, models.MsgDeliveryFailed
	default:
		return http.StatusInternalServerError, models.MsgInternalServerError
	}
}
