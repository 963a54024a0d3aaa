package handlers

import (
	"errors"
	"net/http"

	"github.com/asucbc/cbc-api/internal/middleware"
	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/internal/services"
	"github.com/asucbc/cbc-api/pkg/googleauth"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	MsgSignInCancelled    = "Sign-in was cancelled"
	MsgInvalidSignInState = "Invalid or expired sign-in attempt. Please try again."
	MsgEmailNotVerified   = "Your Google email address is not verified"
	MsgSignInFailed       = "Sign-in failed. Please try again."
)

type AuthHandler struct {
	service     services.AuthServiceInterface
	redirectURL string
}

// NewAuthHandler creates the sign-in handler. Browsers land on redirectURL
// after a successful callback.
func NewAuthHandler(service services.AuthServiceInterface, redirectURL string) *AuthHandler {
	return &AuthHandler{service: service, redirectURL: redirectURL}
}

// Login starts the Google authorization code flow
func (h *AuthHandler) Login(c *gin.Context) {
	authURL, state := h.service.BeginLogin()
	middleware.SetOAuthStateCookie(c, state, h.service.GetCookieDomain(), h.service.GetCookieSecure())
	c.Redirect(http.StatusFound, authURL)
}

// Callback completes sign-in and sets the session cookie
func (h *AuthHandler) Callback(c *gin.Context) {
	expectedState := middleware.OAuthState(c)
	middleware.ClearOAuthStateCookie(c, h.service.GetCookieDomain(), h.service.GetCookieSecure())

	if reason := c.Query("error"); reason != "" {
		logger.Info("Google sign-in not completed", zap.String("reason", reason))
		respondError(c, http.StatusUnauthorized, MsgSignInCancelled, nil)
		return
	}

	_, token, err := h.service.CompleteLogin(c.Request.Context(), c.Query("code"), c.Query("state"), expectedState)
	if err != nil {
		status, message := h.signInErrorResponse(err)
		respondError(c, status, message, err)
		return
	}

	middleware.SetSessionCookie(c, token, h.service.GetSessionTTL(), h.service.GetCookieDomain(), h.service.GetCookieSecure())
	c.Redirect(http.StatusFound, h.redirectURL)
}

// Session returns the signed-in member; it runs behind SessionMiddleware
func (h *AuthHandler) Session(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	c.JSON(http.StatusOK, models.SessionResponse{Success: true, Session: session})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.service.GetCookieDomain(), h.service.GetCookieSecure())
	c.JSON(http.StatusOK, models.LogoutResponse{Success: true})
}

func (h *AuthHandler) signInErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidOAuthState):
		return http.StatusUnauthorized, MsgInvalidSignInState
	case errors.Is(err, googleauth.ErrMissingCode):
		return http.StatusBadRequest, MsgSignInFailed
	case errors.Is(err, services.ErrEmailDomainForbidden):
		return http.StatusForbidden, "Please sign in with your @" + h.service.AllowedDomain() + " account"
	case errors.Is(err, services.ErrEmailNotVerified):
		return http.StatusForbidden, MsgEmailNotVerified
	case errors.Is(err, services.ErrSignInFailed):
		return http.StatusBadGateway, MsgSignInFailed
	default:
		return http.StatusInternalServerError, models.MsgInternalServerError
	}
}
