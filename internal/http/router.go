package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/brightform/userhub/internal/config"
	"github.com/brightform/userhub/internal/http/handler"
	httpmiddleware "github.com/brightform/userhub/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, users *handler.UserHandler, auth *httpmiddleware.Auth, rateLimiter *httpmiddleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(httpmiddleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.POST("/users", users.Register)
	r.GET("/users", auth.RequireSession, users.List)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
