package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment    string               `mapstructure:"environment"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Logger         LoggerConfig         `mapstructure:"logger"`
	Currency       CurrencyConfig       `mapstructure:"currency"`
	Providers      ProvidersConfig      `mapstructure:"providers"`
	Split          SplitConfig          `mapstructure:"split"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Distribution   DistributionConfig   `mapstructure:"distribution"`
	Notification   NotificationConfig   `mapstructure:"notification"`
	Rates          RatesConfig          `mapstructure:"rates"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"timeFormat"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// CurrencyConfig contains conversion settings
type CurrencyConfig struct {
	SettlementCurrency string        `mapstructure:"settlementCurrency"`
	SpreadBps          int64         `mapstructure:"spreadBps"`
	RateCacheTTL       time.Duration `mapstructure:"rateCacheTTL"` // seconds
}

// ProviderConfig contains settings for one payment rail
type ProviderConfig struct {
	BaseURL       string        `mapstructure:"baseURL"`
	APIKey        string        `mapstructure:"apiKey"`
	WebhookSecret string        `mapstructure:"webhookSecret"`
	Timeout       time.Duration `mapstructure:"timeout"` // seconds
}

// ProvidersConfig contains settings for all payment rails
type ProvidersConfig struct {
	MobileMoney  ProviderConfig `mapstructure:"mobileMoney"`
	Card         ProviderConfig `mapstructure:"card"`
	BankTransfer ProviderConfig `mapstructure:"bankTransfer"`
}

// SplitRuleConfig holds one split table as configured percentages
type SplitRuleConfig struct {
	HostPct     float64 `mapstructure:"hostPct"`
	AgentPct    float64 `mapstructure:"agentPct"`
	PlatformPct float64 `mapstructure:"platformPct"`
}

// SplitConfig contains fund distribution settings
type SplitConfig struct {
	WithAgent         SplitRuleConfig `mapstructure:"withAgent"`
	WithoutAgent      SplitRuleConfig `mapstructure:"withoutAgent"`
	PlatformAccountID string          `mapstructure:"platformAccountID"`
}

// ReconciliationConfig contains status polling and expiry settings
type ReconciliationConfig struct {
	PollInterval  time.Duration `mapstructure:"pollInterval"` // seconds
	PollBatchSize int           `mapstructure:"pollBatchSize"`
	MaxAge        time.Duration `mapstructure:"maxAge"`        // minutes before EXPIRED
	SubmitTimeout time.Duration `mapstructure:"submitTimeout"` // seconds
	QueryTimeout  time.Duration `mapstructure:"queryTimeout"`  // seconds
}

// DistributionConfig contains distribution sweep settings
type DistributionConfig struct {
	MaxAttempts   int           `mapstructure:"maxAttempts"`
	SweepInterval time.Duration `mapstructure:"sweepInterval"` // seconds
	BackoffBase   time.Duration `mapstructure:"backoffBase"`   // seconds
	BatchSize     int           `mapstructure:"batchSize"`
}

// NotificationConfig contains settings for the outbound notification service
type NotificationConfig struct {
	BaseURL string        `mapstructure:"baseURL"`
	APIKey  string        `mapstructure:"apiKey"`
	Timeout time.Duration `mapstructure:"timeout"` // seconds
}

// RatesConfig contains settings for the exchange rate feed
type RatesConfig struct {
	BaseURL string        `mapstructure:"baseURL"`
	APIKey  string        `mapstructure:"apiKey"`
	Timeout time.Duration `mapstructure:"timeout"` // seconds
}
