package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"users_api/internal/config"
	"users_api/internal/http/controller"
	"users_api/internal/http/middleware"
	"users_api/internal/metrics"
)

func NewRouter(cfg *config.Config, handler *controller.Handler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.ZapLogger(logger),
		middleware.ZapRecovery(logger),
		middleware.CORS(cfg.CORSAllowOrigins),
		otelgin.Middleware(cfg.OTELServiceName),
		m.Middleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.Status(200)
	})
	router.GET("/metrics", m.Handler())

	users := router.Group("/users")
	users.GET("", handler.ListUsers)
	users.POST("", handler.CreateUser)
	users.PUT("/:id", handler.ReplaceUser)
	users.DELETE("/:id", handler.DeleteUser)

	return router
}
