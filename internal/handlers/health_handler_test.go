package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func healthRouter(checks map[string]HealthCheck) *gin.Engine {
	router := gin.New()
	router.GET("/healthcheck", NewHealthHandler(checks).Healthcheck)
	return router
}

func TestHealthHandler_Healthcheck(t *testing.T) {
	w := get(healthRouter(nil), "/healthcheck")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, max-age=0, must-revalidate", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthHandler_FailingCheck(t *testing.T) {
	w := get(healthRouter(map[string]HealthCheck{
		"database": func(context.Context) error { return errors.New("connection refused") },
	}), "/healthcheck")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","reason":"database unreachable"}`, w.Body.String())
}

func TestHealthHandler_PassingCheck(t *testing.T) {
	w := get(healthRouter(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}), "/healthcheck")

	assert.Equal(t, http.StatusOK, w.Code)
}
