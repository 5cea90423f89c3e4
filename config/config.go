package config

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/breez/device-sync/conflict"
)

type Certificate struct {
	Raw *x509.Certificate
}

func (c *Certificate) UnmarshalEnvironmentValue(data string) error {
	decodedData, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("could not decode base64-encoded certificate: %w", err)
	}

	CACertBlock, _ := pem.Decode(decodedData)
	if CACertBlock == nil {
		return errors.New("CA certificate is invalid")
	}

	CACert, err := x509.ParseCertificate(CACertBlock.Bytes)
	if err != nil {
		return fmt.Errorf("could not parse CA cert: %w", err)
	}

	c.Raw = CACert
	return nil
}

type Config struct {
	GrpcListenAddress       string       `env:"GRPC_LISTEN_ADDRESS,default=0.0.0.0:8080"`
	HttpListenAddress       string       `env:"HTTP_LISTEN_ADDRESS,default=0.0.0.0:8081"`
	SQLiteDirPath           string       `env:"SQLITE_DIR_PATH,default=db"`
	PgDatabaseUrl           string       `env:"DATABASE_URL"`
	CACert                  *Certificate `env:"CA_CERT"`
	RedisUrl                string       `env:"REDIS_URL"`
	LockTimeoutMs           int          `env:"LOCK_TIMEOUT_MS,default=5000"`
	OfflineBufferCapacity   int          `env:"OFFLINE_BUFFER_CAPACITY,default=100"`
	OfflineBufferTTLHours   int          `env:"OFFLINE_BUFFER_TTL_HOURS,default=168"`
	DefaultConflictStrategy string       `env:"DEFAULT_CONFLICT_STRATEGY,default=server_wins"`
	LogLevel                string       `env:"LOG_LEVEL,default=info"`
	DevLogging              bool         `env:"DEV_LOGGING,default=false"`
}

func NewConfig() (*Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.LockTimeoutMs <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT_MS must be positive, got %d", c.LockTimeoutMs)
	}
	if c.OfflineBufferCapacity <= 0 {
		return fmt.Errorf("OFFLINE_BUFFER_CAPACITY must be positive, got %d", c.OfflineBufferCapacity)
	}
	if c.OfflineBufferTTLHours < 0 {
		return fmt.Errorf("OFFLINE_BUFFER_TTL_HOURS must not be negative, got %d", c.OfflineBufferTTLHours)
	}
	if _, err := conflict.ParseStrategy(c.DefaultConflictStrategy); err != nil {
		return fmt.Errorf("DEFAULT_CONFLICT_STRATEGY: %w", err)
	}
	return nil
}

func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMs) * time.Millisecond
}

func (c *Config) OfflineBufferTTL() time.Duration {
	return time.Duration(c.OfflineBufferTTLHours) * time.Hour
}

func (c *Config) DefaultStrategy() conflict.Strategy {
	return conflict.Strategy(c.DefaultConflictStrategy)
}
