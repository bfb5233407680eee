package cmd

import (
	"formgate/internal/bootstrap"
	"formgate/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "formgate",
	Short: "OAuth/OIDC authentication gateway for form workspaces.",
	Long:  `Formgate handles OAuth and OIDC sign-in, identity linking and widget logins for form workspaces.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Get config
		log.Info().Msg("Parsing config")
		var conf config.Config
		parseErr := viper.Unmarshal(&conf)
		HandleError(parseErr, "Failed to parse config")

		// Validate config
		log.Info().Msg("Validating config")
		validator := validator.New()
		validateErr := validator.Struct(conf)
		HandleError(validateErr, "Invalid config")

		// Logger
		level, levelErr := zerolog.ParseLevel(conf.LogLevel)
		HandleError(levelErr, "Invalid log level")
		zerolog.SetGlobalLevel(level)

		// Bootstrap
		app := bootstrap.NewBootstrapApp(conf)
		HandleError(app.Setup(), "Failed to start server")
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}

func HandleError(err error, msg string) {
	if err != nil {
		log.Fatal().Err(err).Msg(msg)
	}
}

func init() {
	newVersionCmd(rootCmd).Register()
	viper.AutomaticEnv()
	rootCmd.Flags().Int("port", 3000, "Port to run the server on.")
	rootCmd.Flags().String("address", "0.0.0.0", "Address to bind the server to.")
	rootCmd.Flags().String("app-url", "", "The formgate URL.")
	rootCmd.Flags().String("database-path", "formgate.db", "Path to the sqlite database file.")
	rootCmd.Flags().String("cache-driver", "memory", "Cache driver to use (memory or redis).")
	rootCmd.Flags().String("redis-address", "localhost:6379", "Redis server address.")
	rootCmd.Flags().Int("redis-db", 0, "Redis database number.")
	rootCmd.Flags().Int("session-expiry", 86400, "Session token expiration time in seconds.")
	rootCmd.Flags().String("session-secret", "", "Secret used to sign session tokens.")
	rootCmd.Flags().String("encryption-secret", "", "32 character secret used to encrypt stored client secrets.")
	rootCmd.Flags().String("default-oauth-scopes", "", "Space separated scopes requested when a connection sets none.")
	rootCmd.Flags().Bool("self-hosted", false, "Run in self-hosted mode (disables new registrations).")
	rootCmd.Flags().String("environment", "production", "Runtime environment (production, development or testing).")
	rootCmd.Flags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal or panic).")
	rootCmd.Flags().String("trusted-proxies", "", "Comma separated list of trusted proxy addresses.")
	rootCmd.Flags().String("google-client-id", "", "Google OAuth client ID.")
	rootCmd.Flags().String("google-client-secret", "", "Google OAuth client secret.")
	rootCmd.Flags().String("telegram-bot-token", "", "Telegram bot token for the login widget.")
	rootCmd.Flags().String("telegram-bot-username", "", "Telegram bot username for the login widget.")
	rootCmd.Flags().Int("telegram-auth-duration", 86400, "Maximum age of a Telegram widget payload in seconds.")
	viper.BindEnv("port", "PORT")
	viper.BindEnv("address", "ADDRESS")
	viper.BindEnv("app-url", "APP_URL")
	viper.BindEnv("database-path", "DATABASE_PATH")
	viper.BindEnv("cache-driver", "CACHE_DRIVER")
	viper.BindEnv("redis-address", "REDIS_ADDRESS")
	viper.BindEnv("redis-db", "REDIS_DB")
	viper.BindEnv("session-expiry", "SESSION_EXPIRY")
	viper.BindEnv("session-secret", "SESSION_SECRET")
	viper.BindEnv("encryption-secret", "ENCRYPTION_SECRET")
	viper.BindEnv("default-oauth-scopes", "DEFAULT_OAUTH_SCOPES")
	viper.BindEnv("self-hosted", "SELF_HOSTED")
	viper.BindEnv("environment", "ENVIRONMENT")
	viper.BindEnv("log-level", "LOG_LEVEL")
	viper.BindEnv("trusted-proxies", "TRUSTED_PROXIES")
	viper.BindEnv("google-client-id", "GOOGLE_CLIENT_ID")
	viper.BindEnv("google-client-secret", "GOOGLE_CLIENT_SECRET")
	viper.BindEnv("telegram-bot-token", "TELEGRAM_BOT_TOKEN")
	viper.BindEnv("telegram-bot-username", "TELEGRAM_BOT_USERNAME")
	viper.BindEnv("telegram-auth-duration", "TELEGRAM_AUTH_DURATION")
	viper.BindPFlags(rootCmd.Flags())
}
