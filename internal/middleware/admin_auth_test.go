package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupAuthRouter(token string) *gin.Engine {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/admin", AdminAuthMiddleware(token), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return router
}

func TestAdminAuth_MissingToken(t *testing.T) {
	router := setupAuthRouter("secret")

	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing admin token")
	assert.NotContains(t, w.Body.String(), "success")
}

func TestAdminAuth_WrongToken(t *testing.T) {
	router := setupAuthRouter("secret")

	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("x-admin-token", "not-the-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid admin token")
	assert.NotContains(t, w.Body.String(), "success")
}

func TestAdminAuth_CorrectToken(t *testing.T) {
	router := setupAuthRouter("secret")

	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("x-admin-token", "secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
}

// A token that happens to be a prefix of the real one must still fail;
// ConstantTimeCompare treats different lengths as a mismatch.
func TestAdminAuth_PrefixToken(t *testing.T) {
	router := setupAuthRouter("secret-with-suffix")

	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("x-admin-token", "secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
