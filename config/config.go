package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Upstream booking, promo and auth services.
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	OutboundRPS    float64       `mapstructure:"OUTBOUND_RPS"`
	OutboundBurst  int           `mapstructure:"OUTBOUND_BURST"`

	// Session cache.
	SessionCheckWindow time.Duration `mapstructure:"SESSION_CHECK_WINDOW"`
	CredentialDebounce time.Duration `mapstructure:"CREDENTIAL_DEBOUNCE"`
	LoginPath          string        `mapstructure:"LOGIN_PATH"`

	// Credential storage ("memory" or "redis").
	CredentialStore     string `mapstructure:"CREDENTIAL_STORE"`
	CredentialNamespace string `mapstructure:"CREDENTIAL_NAMESPACE"`
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisCredentialDB   int    `mapstructure:"REDIS_CREDENTIAL_DB"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8090")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("API_BASE_URL", "http://localhost:8000")
	viper.SetDefault("REQUEST_TIMEOUT", "5s")
	viper.SetDefault("OUTBOUND_RPS", 10)
	viper.SetDefault("OUTBOUND_BURST", 20)
	viper.SetDefault("SESSION_CHECK_WINDOW", "30s")
	viper.SetDefault("CREDENTIAL_DEBOUNCE", "100ms")
	viper.SetDefault("LOGIN_PATH", "/auth/login")
	viper.SetDefault("CREDENTIAL_STORE", "memory")
	viper.SetDefault("CREDENTIAL_NAMESPACE", "storefront")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CREDENTIAL_DB", 3)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
