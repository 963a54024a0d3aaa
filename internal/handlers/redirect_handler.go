package handlers

import (
	"net/http"
	"net/url"

	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	MsgRedirectMissing = "No redirect URL provided. Please include a ?url= or ?to= parameter."
	MsgRedirectInvalid = "Invalid URL format provided."
)

type RedirectHandler struct{}

func NewRedirectHandler() *RedirectHandler {
	return &RedirectHandler{}
}

// Redirect sends the browser to ?url= (or ?to=) so link clicks can be counted
func (h *RedirectHandler) Redirect(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		target = c.Query("to")
	}
	if target == "" {
		respondError(c, http.StatusBadRequest, MsgRedirectMissing, nil)
		return
	}

	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		respondError(c, http.StatusBadRequest, MsgRedirectInvalid, err)
		return
	}

	logger.Info("Redirecting", zap.String("host", parsed.Host))
	c.Redirect(http.StatusFound, parsed.String())
}
