package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asucbc/cbc-api/internal/middleware"
	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/internal/services"
	"github.com/asucbc/cbc-api/pkg/googleauth"
	"github.com/asucbc/cbc-api/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-at-least-32-bytes-long!!"

func authRouter(svc *MockAuthService) *gin.Engine {
	handler := NewAuthHandler(svc, "https://asucbc.vercel.app/")
	tm := svc.GetTokenManager()

	router := gin.New()
	router.GET("/api/auth/google/login", handler.Login)
	router.GET("/api/auth/google/callback", handler.Callback)
	router.GET("/api/auth/session", middleware.SessionMiddleware(tm, "", false), handler.Session)
	router.POST("/api/auth/logout", handler.Logout)
	return router
}

func newMockAuth() *MockAuthService {
	return &MockAuthService{tokens: jwt.NewTokenManager(testJWTSecret, "cbc-api", 1)}
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_LoginSetsStateAndRedirects(t *testing.T) {
	svc := newMockAuth()
	svc.On("BeginLogin").Return("https://accounts.google.com/o/oauth2/auth?state=s-1", "s-1")

	w := get(authRouter(svc), "/api/auth/google/login")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?state=s-1", w.Header().Get("Location"))
	state := cookieNamed(w, middleware.OAuthStateCookieName)
	require.NotNil(t, state)
	assert.Equal(t, "s-1", state.Value)
}

func TestAuthHandler_CallbackSuccess(t *testing.T) {
	svc := newMockAuth()
	token, _, err := svc.tokens.GenerateToken("sub-1", "sparky@asu.edu", "Sparky", "")
	require.NoError(t, err)
	svc.On("CompleteLogin", mock.Anything, "code-1", "s-1", "s-1").
		Return(&models.UserSession{UserID: "sub-1", Email: "sparky@asu.edu"}, token, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=code-1&state=s-1", nil)
	req.AddCookie(&http.Cookie{Name: middleware.OAuthStateCookieName, Value: "s-1"})
	w := httptest.NewRecorder()
	authRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://asucbc.vercel.app/", w.Header().Get("Location"))
	session := cookieNamed(w, middleware.SessionCookieName)
	require.NotNil(t, session)
	assert.Equal(t, token, session.Value)
	assert.True(t, session.HttpOnly)
	svc.AssertExpectations(t)
}

func TestAuthHandler_CallbackErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"state mismatch", services.ErrInvalidOAuthState, http.StatusUnauthorized, MsgInvalidSignInState},
		{"missing code", errors.Join(services.ErrSignInFailed, googleauth.ErrMissingCode), http.StatusBadRequest, MsgSignInFailed},
		{"wrong domain", services.ErrEmailDomainForbidden, http.StatusForbidden, "Please sign in with your @asu.edu account"},
		{"unverified", services.ErrEmailNotVerified, http.StatusForbidden, MsgEmailNotVerified},
		{"google down", services.ErrSignInFailed, http.StatusBadGateway, MsgSignInFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockAuth()
			svc.On("CompleteLogin", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, "", tt.err)

			w := get(authRouter(svc), "/api/auth/google/callback?code=c&state=s")

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.message+`"}`, w.Body.String())
			assert.Nil(t, cookieNamed(w, middleware.SessionCookieName))
		})
	}
}

func TestAuthHandler_CallbackCancelled(t *testing.T) {
	svc := newMockAuth()

	w := get(authRouter(svc), "/api/auth/google/callback?error=access_denied")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"`+MsgSignInCancelled+`"}`, w.Body.String())
	svc.AssertNotCalled(t, "CompleteLogin", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_Session(t *testing.T) {
	svc := newMockAuth()
	token, _, err := svc.tokens.GenerateToken("sub-1", "sparky@asu.edu", "Sparky", "")
	require.NoError(t, err)
	router := authRouter(svc)

	w := get(router, "/api/auth/session")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"email":"sparky@asu.edu"`)
}

func TestAuthHandler_Logout(t *testing.T) {
	w := httptest.NewRecorder()
	authRouter(newMockAuth()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	cleared := cookieNamed(w, middleware.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}
