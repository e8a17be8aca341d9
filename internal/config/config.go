package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/curbside/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment  DeploymentConfig  `validate:"required"`
	Server      ServerConfig      `validate:"required"`
	Logging     LoggingConfig     `validate:"required"`
	Stripe      StripeConfig      `validate:"required"`
	Billing     BillingConfig     `validate:"required"`
	Dedup       DedupConfig       `validate:"required"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
	ServiceArea ServiceAreaConfig `mapstructure:"service_area"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key" validate:"required"`
	WebhookSecret string `mapstructure:"webhook_secret" validate:"required"`
}

// BillingConfig carries the catalog references and the scheduling thresholds
type BillingConfig struct {
	BasePriceID       string                  `mapstructure:"base_price_id" validate:"required"`
	SeasonalPriceID   string                  `mapstructure:"seasonal_price_id" validate:"required"`
	ProrationBehavior types.ProrationBehavior `mapstructure:"proration_behavior" validate:"required"`
	HorizonDays       int                     `mapstructure:"horizon_days" validate:"gte=0"`
	MaxPhases         int                     `mapstructure:"max_phases" validate:"gte=2"`
	MetadataChunkSize int                     `mapstructure:"metadata_chunk_size" validate:"gte=64,lte=500"`
	MetadataKey       string                  `mapstructure:"metadata_key" validate:"required"`
	AccountType       string                  `mapstructure:"account_type" validate:"required"`
}

// Horizon is the look-ahead window for request-time phase emission
func (b BillingConfig) Horizon() time.Duration {
	return time.Duration(b.HorizonDays) * 24 * time.Hour
}

type DedupConfig struct {
	Backend types.DedupBackend `validate:"required,oneof=memory redis"`
	TTL     time.Duration      `mapstructure:"ttl"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the in-process cache of catalog prices used for quotes
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// ServiceAreaConfig is the static rule table served by the service-area resolver
type ServiceAreaConfig struct {
	Rules []AreaRuleConfig `mapstructure:"rules" validate:"dive"`
}

// AreaRuleConfig matches either a city or a postal-code prefix
type AreaRuleConfig struct {
	City         string        `mapstructure:"city" validate:"required_without=ZipPrefix"`
	ZipPrefix    string        `mapstructure:"zip_prefix" validate:"required_without=City"`
	BaseDay      string        `mapstructure:"base_day" validate:"required"`
	SecondaryDay string        `mapstructure:"secondary_day"`
	Season       *SeasonConfig `mapstructure:"season"`
}

// SeasonConfig uses inclusive YYYY-MM-DD dates
type SeasonConfig struct {
	Start  string `mapstructure:"start" validate:"required"`
	End    string `mapstructure:"end" validate:"required"`
	Annual bool   `mapstructure:"annual"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/curbside")

	v.SetEnvPrefix("CURBSIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("billing.proration_behavior", types.ProrationBehaviorCreateProrations)
	v.SetDefault("billing.horizon_days", 90)
	v.SetDefault("billing.max_phases", 10)
	v.SetDefault("billing.metadata_chunk_size", 480)
	v.SetDefault("billing.metadata_key", "addr_rules")
	v.SetDefault("billing.account_type", "residential")
	v.SetDefault("dedup.backend", types.DedupBackendMemory)
	v.SetDefault("dedup.ttl", 72*time.Hour)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 30*time.Minute)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.Billing.ProrationBehavior.Validate(); err != nil {
		return err
	}
	if c.Dedup.Backend == types.DedupBackendRedis && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when dedup.backend is redis")
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Billing: BillingConfig{
			BasePriceID:       "price_base",
			SeasonalPriceID:   "price_seasonal",
			ProrationBehavior: types.ProrationBehaviorCreateProrations,
			HorizonDays:       90,
			MaxPhases:         10,
			MetadataChunkSize: 480,
			MetadataKey:       "addr_rules",
			AccountType:       "residential",
		},
		Dedup: DedupConfig{Backend: types.DedupBackendMemory, TTL: 72 * time.Hour},
		Cache: CacheConfig{Enabled: true, TTL: 30 * time.Minute},
	}
}
