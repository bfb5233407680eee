package bootstrap

import (
	"fmt"
	"time"

	"formgate/internal/cache"
	"formgate/internal/config"

	"github.com/rs/zerolog/log"
)

type BootstrapApp struct {
	config   config.Config
	cache    cache.Cache
	services Services
}

func NewBootstrapApp(config config.Config) *BootstrapApp {
	return &BootstrapApp{
		config: config,
	}
}

func (app *BootstrapApp) Setup() error {
	// Cache backend for state, nonces and discovery documents
	appCache, err := app.setupCache()

	if err != nil {
		return fmt.Errorf("failed to setup cache: %w", err)
	}

	app.cache = appCache

	// Services
	services, err := app.initServices()

	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	app.services = services

	// Router
	router, err := app.setupRouter()

	if err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	// Start server
	address := fmt.Sprintf("%s:%d", app.config.Address, app.config.Port)
	log.Info().Msgf("Starting server on %s", address)
	if err := router.Run(address); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	return nil
}

func (app *BootstrapApp) setupCache() (cache.Cache, error) {
	switch app.config.CacheDriver {
	case "redis":
		log.Debug().Str("address", app.config.RedisAddress).Msg("Using redis cache")
		return cache.NewRedisCache(app.config.RedisAddress, app.config.RedisDB)
	default:
		log.Debug().Msg("Using in-memory cache")
		return cache.NewMemoryCache(time.Duration(config.StateTTL) * time.Second), nil
	}
}
