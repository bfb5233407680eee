package bootstrap

import (
	"fmt"
	"strings"

	"formgate/internal/controller"
	"formgate/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (app *BootstrapApp) setupRouter() (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if len(app.config.TrustedProxies) > 0 {
		err := engine.SetTrustedProxies(strings.Split(app.config.TrustedProxies, ","))

		if err != nil {
			return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
		}
	}

	contextMiddleware := middleware.NewContextMiddleware(app.services.authService)

	err := contextMiddleware.Init()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize context middleware: %w", err)
	}

	engine.Use(contextMiddleware.Middleware())

	zerologMiddleware := middleware.NewZerologMiddleware()

	err = zerologMiddleware.Init()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize zerolog middleware: %w", err)
	}

	engine.Use(zerologMiddleware.Middleware())

	apiRouter := engine.Group("/api")

	oauthController := controller.NewOAuthController(apiRouter, app.services.brokerService, app.services.completionService, app.services.stateService)
	oauthController.SetupRoutes()

	userController := controller.NewUserController(apiRouter, app.services.authService)
	userController.SetupRoutes()

	connectionController := controller.NewConnectionController(apiRouter, app.services.connectionService)
	connectionController.SetupRoutes()

	healthController := controller.NewHealthController(apiRouter)
	healthController.SetupRoutes()

	return engine, nil
}
