package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/couchcryptid/outage-insights-service/internal/storage"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092" validate:"min=1,dive,required"`
	KafkaSourceTopic string        `envconfig:"KAFKA_SOURCE_TOPIC" default:"raw-outage-events" validate:"required"`
	KafkaSinkTopic   string        `envconfig:"KAFKA_SINK_TOPIC" default:"zip-enriched-outages" validate:"required"`
	KafkaGroupID     string        `envconfig:"KAFKA_GROUP_ID" default:"outage-insights" validate:"required"`
	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat        string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	BatchSize          int           `envconfig:"BATCH_SIZE" default:"50" validate:"min=1,max=1000"`
	BatchFlushInterval time.Duration `envconfig:"BATCH_FLUSH_INTERVAL" default:"500ms" validate:"gt=0"`

	// Reverse geocoding (Nominatim).
	GeocoderEnabled   bool          `envconfig:"GEOCODER_ENABLED" default:"true"`
	GeocoderBaseURL   string        `envconfig:"GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org" validate:"required,url"`
	GeocoderUserAgent string        `envconfig:"GEOCODER_USER_AGENT" default:"NES-Outage-Checker/1.0" validate:"required"`
	GeocoderTimeout   time.Duration `envconfig:"GEOCODER_TIMEOUT" default:"10s" validate:"gte=0"`
	GeocoderRateLimit time.Duration `envconfig:"GEOCODER_RATE_LIMIT" default:"1s" validate:"gte=0"`
	GeocodeCacheKey   string        `envconfig:"GEOCODE_CACHE_KEY" default:"nes-geocoding-cache" validate:"required"`
	GeocodeMemoSize   int           `envconfig:"GEOCODE_MEMO_SIZE" default:"1000" validate:"gte=0"`

	// Object storage for the geocode cache and chart series.
	StorageBackend        string `envconfig:"STORAGE_BACKEND" default:"file" validate:"oneof=memory file azure"`
	StorageDir            string `envconfig:"STORAGE_DIR" default:"data"`
	AzureStorageAccount   string `envconfig:"AZURE_STORAGE_ACCOUNT_NAME"`
	AzureStorageKey       string `envconfig:"AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"`
	AzureStorageContainer string `envconfig:"AZURE_STORAGE_CONTAINER" default:"outages"`

	// NES outage feed.
	FeedURL       string        `envconfig:"FEED_URL" default:"https://utilisocial.io/datacapable/v2/p/NES/map/events" validate:"required,url"`
	FeedTimeout   time.Duration `envconfig:"FEED_TIMEOUT" default:"10s" validate:"gt=0"`
	FeedUserAgent string        `envconfig:"FEED_USER_AGENT" default:"NES-Outage-Checker/1.0" validate:"required"`

	ChartObjectKey string        `envconfig:"CHART_OBJECT_KEY" default:"chart-data.json" validate:"required"`
	ChartRetention time.Duration `envconfig:"CHART_RETENTION" default:"1440h" validate:"gt=0"`

	// Timezone used for local dates and hours. Empty means the host zone.
	Timezone string `envconfig:"TIMEZONE"`
}

// Load reads configuration from environment variables (and an optional .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return loc, nil
}

// StorageOptions returns the storage backend settings.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     c.StorageBackend,
		Dir:         c.StorageDir,
		AccountName: c.AzureStorageAccount,
		AccountKey:  c.AzureStorageKey,
		Container:   c.AzureStorageContainer,
	}
}

func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("envconfig")
	})

	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msg := fmt.Sprintf("invalid %s: failed %q", fe.Field(), fe.Tag())
			if fe.Param() != "" {
				msg = fmt.Sprintf("invalid %s: failed %q (%s)", fe.Field(), fe.Tag(), fe.Param())
			}
			msgs = append(msgs, msg)
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if cfg.StorageBackend == storage.BackendAzure {
		if cfg.AzureStorageAccount == "" {
			return errors.New("STORAGE_BACKEND is azure but AZURE_STORAGE_ACCOUNT_NAME is not set")
		}
		if cfg.AzureStorageKey == "" {
			return errors.New("STORAGE_BACKEND is azure but AZURE_STORAGE_PRIMARY_ACCOUNT_KEY is not set")
		}
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}
