package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)

	gin.SetMode(gin.TestMode)
}

func TestNewRateLimiter(t *testing.T) {
	setupTest(t)

	rl := NewRateLimiter(10, 1*time.Minute)

	assert.NotNil(t, rl)
	assert.NotNil(t, rl.requests)
	assert.Equal(t, 10, rl.rate)
	assert.Equal(t, 1*time.Minute, rl.window)
}

func TestRateLimiter_Allow_MultipleRequests(t *testing.T) {
	setupTest(t)

	rl := NewRateLimiter(5, 1*time.Minute)
	clientIP := "192.168.1.1"

	for i := 0; i < 5; i++ {
		allowed := rl.allow(clientIP)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
	}

	allowed := rl.allow(clientIP)
	assert.False(t, allowed)
}

func TestRateLimiter_Allow_AfterWindowReset(t *testing.T) {
	setupTest(t)

	rl := NewRateLimiter(2, 100*time.Millisecond)
	clientIP := "192.168.1.1"

	assert.True(t, rl.allow(clientIP))
	assert.True(t, rl.allow(clientIP))
	assert.False(t, rl.allow(clientIP))

	time.Sleep(150 * time.Millisecond)

	assert.True(t, rl.allow(clientIP))
}

func TestRateLimiter_Allow_MultipleClients(t *testing.T) {
	setupTest(t)

	rl := NewRateLimiter(3, 1*time.Minute)

	client1 := "192.168.1.1"
	client2 := "192.168.1.2"

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow(client1))
		assert.True(t, rl.allow(client2))
	}

	assert.False(t, rl.allow(client1))
	assert.False(t, rl.allow(client2))
}

func TestRateLimiter_Middleware_BlockRequest(t *testing.T) {
	setupTest(t)

	rl := NewRateLimiter(2, 1*time.Minute)
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	setupTest(t)

	rl := NewRateLimiter(100, 1*time.Minute)
	clientIP := "192.168.1.1"

	done := make(chan bool, 50)

	for i := 0; i < 50; i++ {
		go func() {
			rl.allow(clientIP)
			done <- true
		}()
	}

	for i := 0; i < 50; i++ {
		<-done
	}

	rl.mutex.RLock()
	count := rl.requests[clientIP].count
	rl.mutex.RUnlock()

	assert.Equal(t, 50, count)
}
