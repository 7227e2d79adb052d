package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the reunipet service.
// Environment variables are automatically parsed from the REUNIPET_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Record store
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Biometric index (AWS Rekognition)
	AWSRegion           string  `envconfig:"AWS_REGION" default:"us-east-1"`
	LostCollectionID    string  `envconfig:"LOST_COLLECTION_ID" default:"pets-lost"`
	FoundCollectionID   string  `envconfig:"FOUND_COLLECTION_ID" default:"pets-found"`
	SimilarityThreshold float32 `envconfig:"SIMILARITY_THRESHOLD" default:"70"`

	// Notifications
	SendgridAPIKey string `envconfig:"SENDGRID_API_KEY" default:""`
	SenderEmail    string `envconfig:"SENDER_EMAIL" default:"no-reply@reunipet.app"`

	// Firebase (push messaging, ID-token verification)
	FirebaseProjectID       string `envconfig:"FIREBASE_PROJECT_ID" default:""`
	FirebaseCredentialsFile string `envconfig:"FIREBASE_CREDENTIALS_FILE" default:""`

	// Media storage
	StorageBucket string `envconfig:"STORAGE_BUCKET" default:""`

	// Coverage area. New reports with a location outside the radius are
	// rejected; reports without a location are accepted.
	GeofenceEnabled  bool    `envconfig:"GEOFENCE_ENABLED" default:"true"`
	GeofenceLat      float64 `envconfig:"GEOFENCE_LAT" default:"-26.9905"`
	GeofenceLon      float64 `envconfig:"GEOFENCE_LON" default:"-48.6347"`
	GeofenceRadiusKM float64 `envconfig:"GEOFENCE_RADIUS_KM" default:"20"`

	// Matching pipeline
	PipelineWorkers   int `envconfig:"PIPELINE_WORKERS" default:"4"`
	PipelineQueueSize int `envconfig:"PIPELINE_QUEUE_SIZE" default:"256"`

	// Retention sweep
	RetentionDays      int `envconfig:"RETENTION_DAYS" default:"30"`
	SweepIntervalHours int `envconfig:"SWEEP_INTERVAL_HOURS" default:"24"`

	// Startup / health probing
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"30"`
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates driver selection and derives "auto" values.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = "postgres"
	}
	allowedDB := map[string]bool{"postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be within [0,100], got %v", c.SimilarityThreshold)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive, got %d", c.RetentionDays)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with REUNIPET_
// Example: REUNIPET_HTTP_PORT, REUNIPET_POSTGRES_DSN.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("REUNIPET", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("aws_region", cfg.AWSRegion).
		Str("lost_collection", cfg.LostCollectionID).
		Str("found_collection", cfg.FoundCollectionID).
		Float32("similarity_threshold", cfg.SimilarityThreshold).
		Str("storage_bucket", cfg.StorageBucket).
		Int("retention_days", cfg.RetentionDays).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:         EnvTesting,
		HTTPPort:            8080,
		DBDriver:            "postgres",
		AWSRegion:           "us-east-1",
		LostCollectionID:    "pets-lost-test",
		FoundCollectionID:   "pets-found-test",
		SimilarityThreshold: 70,
		SenderEmail:         "no-reply@reunipet.test",
		GeofenceEnabled:     false,
		PipelineWorkers:     1,
		PipelineQueueSize:   16,
		RetentionDays:       30,
		SweepIntervalHours:  24,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
