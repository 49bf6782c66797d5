package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Store holds the hosted realtime database configuration.
	Store StoreConfig `mapstructure:",squash"`

	// Cache holds the local cache configuration.
	Cache CacheConfig `mapstructure:",squash"`

	// Admin holds the admin credential configuration.
	Admin AdminConfig `mapstructure:",squash"`

	// Checkout holds the checkout validation rules.
	Checkout CheckoutConfig `mapstructure:",squash"`

	// Sync holds the offline outbox replay configuration.
	Sync SyncConfig `mapstructure:",squash"`

	// Messaging holds the order event broker configuration.
	Messaging MessagingConfig `mapstructure:",squash"`

	// Proxy holds the outbound proxy used by the store client.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// StoreConfig holds the connection details for the hosted realtime database.
type StoreConfig struct {
	// URL is the base URL of the database (e.g., https://fruit-fusion-default-rtdb.firebaseio.com).
	URL string `mapstructure:"STORE_URL" required:"true"`
	// AuthToken is appended as the auth query parameter when set.
	AuthToken string `mapstructure:"STORE_AUTH"`
	// TimeoutSeconds bounds every request to the store.
	TimeoutSeconds int `mapstructure:"STORE_TIMEOUT_SECONDS" default:"10"`
}

// Timeout returns the request timeout as a duration.
func (c StoreConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheConfig holds the local cache connection details.
type CacheConfig struct {
	// RedisURL is the Redis connection URL.
	RedisURL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
}

// AdminConfig holds the admin credentials.
type AdminConfig struct {
	// Password guards every /admin route.
	Password string `mapstructure:"ADMIN_PASSWORD" required:"true"`
}

// CheckoutConfig holds the checkout rules.
type CheckoutConfig struct {
	// DeliveryCity is the only city orders are delivered to.
	DeliveryCity string `mapstructure:"DELIVERY_CITY" default:"Lahore"`
}

// SyncConfig controls the outbox replayer.
type SyncConfig struct {
	// IntervalSeconds is the delay between replay attempts.
	IntervalSeconds int `mapstructure:"SYNC_INTERVAL_SECONDS" default:"30"`
}

// Interval returns the replay interval as a duration.
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// MessagingConfig holds the RabbitMQ settings. Publishing is disabled when URL is empty.
type MessagingConfig struct {
	URL      string `mapstructure:"RABBITMQ_URL"`
	Exchange string `mapstructure:"RABBITMQ_EXCHANGE" default:"fruitfusion.orders"`
}

// ProxyConfig holds the outbound proxy settings.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED"`
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("failed to bind %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	default:
		return v.IsZero()
	}
}
