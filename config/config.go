// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package config reads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable, e.g. CAJERO_DATA_DIR. When the
// prefixed variable is unset the unprefixed one is read (DATA_DIR, LISTEN,
// MINIO_ENDPOINT, DB_HOST, ...), so settings shared with companion tools apply.
const Prefix = "cajero"

// Config holds the settings of every command.
type Config struct {
	DataDir         string        `envconfig:"DATA_DIR" default:"data"`
	ProvidersFile   string        `envconfig:"PROVIDERS_FILE"`
	Listen          string        `envconfig:"LISTEN" default:"localhost:8080"`
	ArchivePath     string        `envconfig:"ARCHIVE_PATH"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL"`
	MaxProcs        int           `envconfig:"MAX_PROCS" default:"4"`
	UserAgent       string        `envconfig:"USER_AGENT" default:"cajero/0.1"`
	TraceHTTP       bool          `envconfig:"TRACE_HTTP"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"cajero.refresh"`
	KafkaGroup   string   `envconfig:"KAFKA_GROUP" default:"cajero"`

	MinIOEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinIOAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinIOUseSSL    bool   `envconfig:"MINIO_USE_SSL"`

	// Connection to the legacy banking_locator database.
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBName     string `envconfig:"DB_NAME"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"require"`
}

// Load reads .env files (default ".env"; missing files are ignored) and then
// the environment. Variables already set win over .env values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	return &c, nil
}

// Validate checks the configuration is semantically correct.
func (c *Config) Validate() error {
	if c.MaxProcs < 0 {
		return fmt.Errorf("max procs must not be negative (got %d)", c.MaxProcs)
	}

	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative (got %v)", c.RefreshInterval)
	}

	if c.MinIOEndpoint != "" && (c.MinIOAccessKey == "" || c.MinIOSecretKey == "") {
		return errors.New("MinIO access key and secret key are required when an endpoint is set")
	}

	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("a Kafka topic is required when brokers are set")
	}

	return nil
}

// S3Enabled reports whether s3:// dataset sources can be read.
func (c *Config) S3Enabled() bool {
	return c.MinIOEndpoint != ""
}

// KafkaEnabled reports whether refreshes are triggered from Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// LegacyDSN returns the connection URI of the legacy database, or "" when
// no host is configured.
func (c *Config) LegacyDSN() string {
	if c.DBHost == "" {
		return ""
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}

	switch {
	case c.DBUser != "" && c.DBPassword != "":
		u.User = url.UserPassword(c.DBUser, c.DBPassword)
	case c.DBUser != "":
		u.User = url.User(c.DBUser)
	}

	if c.DBSSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.DBSSLMode}}.Encode()
	}

	return u.String()
}
