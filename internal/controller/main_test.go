package controller_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"formgate/internal/cache"
	"formgate/internal/config"
	"formgate/internal/controller"
	"formgate/internal/middleware"
	"formgate/internal/model"
	"formgate/internal/service"

	"github.com/gin-gonic/gin"
	"gotest.tools/v3/assert"
)

const (
	testSessionSecret    = "super-secret-session-key-of-32-chars"
	testEncryptionSecret = "12345678901234567890123456789012"
	testBotToken         = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"
)

// testApp wires the full API surface against a temp database and an
// in-memory cache.
type testApp struct {
	router      *gin.Engine
	auth        *service.AuthService
	connections *service.ConnectionService
	states      *service.StateService
	broker      *service.OAuthBrokerService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gin.SetMode(gin.TestMode)

	database := service.NewDatabaseService(service.DatabaseServiceConfig{
		DatabasePath: filepath.Join(t.TempDir(), "formgate_test.db"),
	})
	assert.NilError(t, database.Init())

	appCache := cache.NewMemoryCache(time.Minute)

	states := service.NewStateService(appCache)

	discovery := service.NewDiscoveryService(service.DiscoveryServiceConfig{}, appCache)
	assert.NilError(t, discovery.Init())

	auth := service.NewAuthService(service.AuthServiceConfig{
		SessionExpiry: 3600,
		SessionSecret: testSessionSecret,
		Environment:   "testing",
	}, database.GetDatabase())

	connections := service.NewConnectionService(service.ConnectionServiceConfig{
		EncryptionSecret: testEncryptionSecret,
	}, database.GetDatabase())

	broker := service.NewOAuthBrokerService(service.OAuthBrokerServiceConfig{
		AppURL:           "https://app.example.com",
		EncryptionSecret: testEncryptionSecret,
		TelegramBotToken: testBotToken,
	}, database.GetDatabase(), states, discovery)
	assert.NilError(t, broker.Init())

	completion := service.NewCompletionService(auth, states)

	router := gin.New()
	router.Use(middleware.NewContextMiddleware(auth).Middleware())

	apiRouter := router.Group("/api")

	controller.NewOAuthController(apiRouter, broker, completion, states).SetupRoutes()
	controller.NewUserController(apiRouter, auth).SetupRoutes()
	controller.NewConnectionController(apiRouter, connections).SetupRoutes()
	controller.NewHealthController(apiRouter).SetupRoutes()

	return &testApp{
		router:      router,
		auth:        auth,
		connections: connections,
		states:      states,
		broker:      broker,
	}
}

// loginAs creates a user and returns a bearer token for it.
func (app *testApp) loginAs(t *testing.T, email string) (model.User, string) {
	t.Helper()

	user, err := app.auth.CreateUserFromIdentity(context.Background(), config.Identity{
		ID:    "seed-" + email,
		Email: email,
		Name:  "Test User",
	}, "google")
	assert.NilError(t, err)

	session, err := app.auth.IssueSessionToken(user)
	assert.NilError(t, err)

	return user, session.AccessToken
}
