package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	auth := NewAuth("secret", time.Hour)

	token, err := auth.GenerateToken(42)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.RiderID)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	token, err := NewAuth("other", time.Hour).GenerateToken(1)
	require.NoError(t, err)
	_, err = NewAuth("secret", time.Hour).ValidateToken(token)
	assert.Error(t, err)

	expired, err := NewAuth("secret", -time.Minute).GenerateToken(1)
	require.NoError(t, err)
	_, err = NewAuth("secret", time.Hour).ValidateToken(expired)
	assert.Error(t, err)

	_, err = NewAuth("secret", time.Hour).ValidateToken("garbage")
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := NewAuth("secret", time.Hour)

	r := gin.New()
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		id, ok := RiderID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"rider_id": id})
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer abc").Code)

	token, err := auth.GenerateToken(7)
	require.NoError(t, err)
	w := call("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rider_id":7}`, w.Body.String())
}

func TestEnableCORSPreflight(t *testing.T) {
	teapot := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := EnableCORS(nil, teapot)

	req := httptest.NewRequest(http.MethodOptions, "/routes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/routes", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestEnableCORSAllowlist(t *testing.T) {
	teapot := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := EnableCORS([]string{"https://app.cycleroute.example"}, teapot)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/routes", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := preflight("https://app.cycleroute.example")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.cycleroute.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight("https://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	h = EnableCORS([]string{"*"}, teapot)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/routes", nil)
	req.Header.Set("Origin", "https://evil.example")
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
