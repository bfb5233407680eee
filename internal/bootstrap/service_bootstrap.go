package bootstrap

import (
	"time"

	"formgate/internal/service"
	"formgate/internal/utils"
)

type Services struct {
	databaseService   *service.DatabaseService
	stateService      *service.StateService
	discoveryService  *service.DiscoveryService
	authService       *service.AuthService
	connectionService *service.ConnectionService
	brokerService     *service.OAuthBrokerService
	completionService *service.CompletionService
}

func (app *BootstrapApp) initServices() (Services, error) {
	services := Services{}

	databaseService := service.NewDatabaseService(service.DatabaseServiceConfig{
		DatabasePath: app.config.DatabasePath,
	})

	err := databaseService.Init()

	if err != nil {
		return Services{}, err
	}

	services.databaseService = databaseService

	stateService := service.NewStateService(app.cache)
	services.stateService = stateService

	discoveryService := service.NewDiscoveryService(service.DiscoveryServiceConfig{
		HTTPTimeout: 10 * time.Second,
	}, app.cache)

	err = discoveryService.Init()

	if err != nil {
		return Services{}, err
	}

	services.discoveryService = discoveryService

	authService := service.NewAuthService(service.AuthServiceConfig{
		SessionExpiry: app.config.SessionExpiry,
		SessionSecret: app.config.SessionSecret,
		SelfHosted:    app.config.SelfHosted,
		Environment:   app.config.Environment,
	}, databaseService.GetDatabase())

	services.authService = authService

	connectionService := service.NewConnectionService(service.ConnectionServiceConfig{
		EncryptionSecret: app.config.EncryptionSecret,
	}, databaseService.GetDatabase())

	services.connectionService = connectionService

	brokerService := service.NewOAuthBrokerService(service.OAuthBrokerServiceConfig{
		AppURL:               app.config.AppURL,
		EncryptionSecret:     app.config.EncryptionSecret,
		DefaultScopes:        utils.ParseCommaString(app.config.DefaultOAuthScopes),
		HTTPTimeout:          10 * time.Second,
		GoogleClientID:       app.config.GoogleClientID,
		GoogleClientSecret:   app.config.GoogleClientSecret,
		TelegramBotToken:     app.config.TelegramBotToken,
		TelegramBotUsername:  app.config.TelegramBotUsername,
		TelegramAuthDuration: app.config.TelegramAuthDuration,
	}, databaseService.GetDatabase(), stateService, discoveryService)

	err = brokerService.Init()

	if err != nil {
		return Services{}, err
	}

	services.brokerService = brokerService

	completionService := service.NewCompletionService(authService, stateService)
	services.completionService = completionService

	return services, nil
}
