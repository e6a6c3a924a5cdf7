package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/Pseudo-CS/bitespeed-assign/internal/http/handlers"
	httpMW "github.com/Pseudo-CS/bitespeed-assign/internal/http/middleware"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler   *httpH.HealthHandler
	IdentifyHandler *httpH.IdentifyHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	if cfg.IdentifyHandler != nil {
		r.POST("/identify", cfg.IdentifyHandler.Identify)
	}

	return r
}
