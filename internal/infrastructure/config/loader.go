package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"./.env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
	"../../configs/.env",
}

// LoadConfig loads configuration from file based on the environment
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")

	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Running on defaults plus env overrides is fine; a malformed file is not
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("FX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env

	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return nil
			} else {
				lastError = err
			}
		}
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}

	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.queryTimeout", 5)     // seconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 1) // seconds

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.callerInfo", true)

	v.SetDefault("currency.settlementCurrency", "RWF")
	v.SetDefault("currency.spreadBps", 150)
	v.SetDefault("currency.rateCacheTTL", 300) // seconds

	v.SetDefault("providers.mobileMoney.timeout", 10) // seconds
	v.SetDefault("providers.card.timeout", 10)
	v.SetDefault("providers.bankTransfer.timeout", 15)

	v.SetDefault("split.withAgent.hostPct", 78.95)
	v.SetDefault("split.withAgent.agentPct", 4.38)
	v.SetDefault("split.withAgent.platformPct", 16.67)
	v.SetDefault("split.withoutAgent.hostPct", 83.33)
	v.SetDefault("split.withoutAgent.agentPct", 0)
	v.SetDefault("split.withoutAgent.platformPct", 16.67)
	v.SetDefault("split.platformAccountID", "platform")

	v.SetDefault("reconciliation.pollInterval", 60) // seconds
	v.SetDefault("reconciliation.pollBatchSize", 100)
	v.SetDefault("reconciliation.maxAge", 1440)    // minutes, 24h
	v.SetDefault("reconciliation.submitTimeout", 15) // seconds
	v.SetDefault("reconciliation.queryTimeout", 10)  // seconds

	v.SetDefault("distribution.maxAttempts", 3)
	v.SetDefault("distribution.sweepInterval", 120) // seconds
	v.SetDefault("distribution.backoffBase", 30)    // seconds
	v.SetDefault("distribution.batchSize", 50)

	v.SetDefault("notification.timeout", 5) // seconds
	v.SetDefault("rates.timeout", 5)        // seconds
}

// getEnvironment determines the environment to use based on FX_ENV
func getEnvironment() string {
	env := os.Getenv("FX_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides ensures environment variables override config values for
// everything sensitive: credentials never have to live in a yaml file
func processEnvOverrides(v *viper.Viper) {
	if dbHost := os.Getenv("FX_DB_HOST"); dbHost != "" {
		v.Set("database.host", dbHost)
	}
	if dbPort := os.Getenv("FX_DB_PORT"); dbPort != "" {
		v.Set("database.port", dbPort)
	}
	if dbUser := os.Getenv("FX_DB_USERNAME"); dbUser != "" {
		v.Set("database.username", dbUser)
	}
	if dbPass := os.Getenv("FX_DB_PASSWORD"); dbPass != "" {
		v.Set("database.password", dbPass)
	}
	if dbName := os.Getenv("FX_DB_NAME"); dbName != "" {
		v.Set("database.database", dbName)
	}
	if sslMode := os.Getenv("FX_DB_SSL_MODE"); sslMode != "" {
		v.Set("database.sslMode", sslMode)
	}

	if maxOpenConns := getEnvInt("FX_DB_MAX_OPEN_CONNS", 0); maxOpenConns > 0 {
		v.Set("database.maxOpenConns", maxOpenConns)
	}
	if maxIdleConns := getEnvInt("FX_DB_MAX_IDLE_CONNS", 0); maxIdleConns > 0 {
		v.Set("database.maxIdleConns", maxIdleConns)
	}
	if queryTimeout := getEnvInt("FX_DB_QUERY_TIMEOUT_SECONDS", 0); queryTimeout > 0 {
		v.Set("database.queryTimeout", queryTimeout)
	}

	if serverHost := os.Getenv("FX_SERVER_HOST"); serverHost != "" {
		v.Set("server.host", serverHost)
	}
	if serverPort := os.Getenv("FX_SERVER_PORT"); serverPort != "" {
		v.Set("server.port", serverPort)
	}

	if logLevel := os.Getenv("FX_LOGGER_LEVEL"); logLevel != "" {
		v.Set("logger.level", logLevel)
	}

	// Provider credentials always come from the environment
	if key := os.Getenv("FX_MOMO_API_KEY"); key != "" {
		v.Set("providers.mobileMoney.apiKey", key)
	}
	if secret := os.Getenv("FX_MOMO_WEBHOOK_SECRET"); secret != "" {
		v.Set("providers.mobileMoney.webhookSecret", secret)
	}
	if url := os.Getenv("FX_MOMO_BASE_URL"); url != "" {
		v.Set("providers.mobileMoney.baseURL", url)
	}
	if key := os.Getenv("FX_CARD_API_KEY"); key != "" {
		v.Set("providers.card.apiKey", key)
	}
	if secret := os.Getenv("FX_CARD_WEBHOOK_SECRET"); secret != "" {
		v.Set("providers.card.webhookSecret", secret)
	}
	if url := os.Getenv("FX_CARD_BASE_URL"); url != "" {
		v.Set("providers.card.baseURL", url)
	}
	if key := os.Getenv("FX_BANK_API_KEY"); key != "" {
		v.Set("providers.bankTransfer.apiKey", key)
	}
	if secret := os.Getenv("FX_BANK_WEBHOOK_SECRET"); secret != "" {
		v.Set("providers.bankTransfer.webhookSecret", secret)
	}
	if url := os.Getenv("FX_BANK_BASE_URL"); url != "" {
		v.Set("providers.bankTransfer.baseURL", url)
	}

	if key := os.Getenv("FX_RATES_API_KEY"); key != "" {
		v.Set("rates.apiKey", key)
	}
	if url := os.Getenv("FX_RATES_BASE_URL"); url != "" {
		v.Set("rates.baseURL", url)
	}
	if key := os.Getenv("FX_NOTIFICATION_API_KEY"); key != "" {
		v.Set("notification.apiKey", key)
	}
	if url := os.Getenv("FX_NOTIFICATION_BASE_URL"); url != "" {
		v.Set("notification.baseURL", url)
	}

	if spread := getEnvInt("FX_CURRENCY_SPREAD_BPS", -1); spread >= 0 {
		v.Set("currency.spreadBps", spread)
	}
	if settlement := os.Getenv("FX_CURRENCY_SETTLEMENT"); settlement != "" {
		v.Set("currency.settlementCurrency", settlement)
	}
}

// getEnvInt reads an environment variable as int with a default
func getEnvInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// processDurations converts duration fields from their raw config units
func processDurations(config *Config) {
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second

	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute
	config.Database.QueryTimeout = time.Duration(config.Database.QueryTimeout) * time.Second
	config.Database.RetryDelay = time.Duration(config.Database.RetryDelay) * time.Second

	config.Currency.RateCacheTTL = time.Duration(config.Currency.RateCacheTTL) * time.Second

	config.Providers.MobileMoney.Timeout = time.Duration(config.Providers.MobileMoney.Timeout) * time.Second
	config.Providers.Card.Timeout = time.Duration(config.Providers.Card.Timeout) * time.Second
	config.Providers.BankTransfer.Timeout = time.Duration(config.Providers.BankTransfer.Timeout) * time.Second

	config.Reconciliation.PollInterval = time.Duration(config.Reconciliation.PollInterval) * time.Second
	config.Reconciliation.MaxAge = time.Duration(config.Reconciliation.MaxAge) * time.Minute
	config.Reconciliation.SubmitTimeout = time.Duration(config.Reconciliation.SubmitTimeout) * time.Second
	config.Reconciliation.QueryTimeout = time.Duration(config.Reconciliation.QueryTimeout) * time.Second

	config.Distribution.SweepInterval = time.Duration(config.Distribution.SweepInterval) * time.Second
	config.Distribution.BackoffBase = time.Duration(config.Distribution.BackoffBase) * time.Second

	config.Notification.Timeout = time.Duration(config.Notification.Timeout) * time.Second
	config.Rates.Timeout = time.Duration(config.Rates.Timeout) * time.Second
}
