package route

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	config "github.com/priy-am/url-shortener-service/config"
	"github.com/priy-am/url-shortener-service/internal/handler"
	"github.com/priy-am/url-shortener-service/internal/middleware"
)

func SetupRouter(urlHandler *handler.URLHandler, conf *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.MetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "x-admin-token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", urlHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/url")

	shorten := api.Group("")
	if conf.RateLimitEnabled {
		rl := middleware.NewRateLimiter(conf.RateLimitRate, conf.RateLimitWindow)
		shorten.Use(rl.Middleware())
	}
	shorten.POST("/shorten", urlHandler.CreateShortURL)

	api.GET("/:code", urlHandler.Redirect)
	api.GET("/:code/stats", urlHandler.Stats)

	admin := api.Group("/admin", middleware.AdminAuthMiddleware(conf.AdminToken))
	admin.GET("/urls", urlHandler.AdminListURLs)

	return r
}
