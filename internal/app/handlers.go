package app

import (
	"github.com/Pseudo-CS/bitespeed-assign/internal/http"
	httpH "github.com/Pseudo-CS/bitespeed-assign/internal/http/handlers"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Identify *httpH.IdentifyHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Identify: httpH.NewIdentifyHandler(services.Identity),
	}
}

func wireServer(log *logger.Logger, handlers Handlers) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		HealthHandler:   handlers.Health,
		IdentifyHandler: handlers.Identify,
	})
}
