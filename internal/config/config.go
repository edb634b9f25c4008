package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL       string
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string
	ServiceName       string

	// PrimaryRegion is the region hosting the writable database leader.
	PrimaryRegion string
	// Region is the region this instance runs in (FLY_REGION). Empty means
	// single-region mode: the instance behaves as if it were the primary.
	Region     string
	InstanceID string

	ReplicaPort        int
	ReplayWriteMethods bool
	ReplayThreshold    time.Duration
	MaxReplicaLag      time.Duration
	LagCheckInterval   time.Duration
	TopologyFile       string

	DatabaseTLSCert       string
	DatabaseTLSKey        string
	DatabaseTLSCACert     string
	DatabaseTLSServerName string

	// ReplicaHosts maps a region code to an explicit replica hostname.
	// Only populated from TOPOLOGY_FILE.
	ReplicaHosts map[string]string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		HTTPListenAddr:        getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsListenAddr:     getEnv("METRICS_LISTEN_ADDR", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ServiceName:           getEnv("SERVICE_NAME", "multiregion"),
		PrimaryRegion:         strings.ToLower(getEnv("PRIMARY_REGION", "")),
		Region:                strings.ToLower(getEnv("FLY_REGION", "")),
		InstanceID:            getEnv("FLY_ALLOC_ID", ""),
		TopologyFile:          getEnv("TOPOLOGY_FILE", ""),
		DatabaseTLSCert:       getEnv("DATABASE_TLS_CERT", ""),
		DatabaseTLSKey:        getEnv("DATABASE_TLS_KEY", ""),
		DatabaseTLSCACert:     getEnv("DATABASE_TLS_CA_CERT", ""),
		DatabaseTLSServerName: getEnv("DATABASE_TLS_SERVER_NAME", ""),
	}

	var err error
	if cfg.ReplicaPort, err = getEnvInt("REPLICA_PORT", 5433); err != nil {
		return nil, err
	}
	if cfg.ReplayWriteMethods, err = getEnvBool("REPLAY_WRITE_METHODS", true); err != nil {
		return nil, err
	}
	if cfg.ReplayThreshold, err = getEnvDuration("REPLAY_THRESHOLD", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxReplicaLag, err = getEnvDuration("MAX_REPLICA_LAG", 0); err != nil {
		return nil, err
	}
	if cfg.LagCheckInterval, err = getEnvDuration("LAG_CHECK_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.TopologyFile != "" {
		if err := cfg.applyTopologyFile(cfg.TopologyFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks that all fields required by the given service are present.
func (c *Config) Validate(service string) error {
	var missing []string

	switch service {
	case "server":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
	case "regionctl":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	}

	if c.Region != "" && c.PrimaryRegion == "" {
		missing = append(missing, "PRIMARY_REGION")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if (c.DatabaseTLSCert == "") != (c.DatabaseTLSKey == "") {
		return fmt.Errorf("DATABASE_TLS_CERT and DATABASE_TLS_KEY must both be set")
	}
	if c.ReplicaPort <= 0 || c.ReplicaPort > 65535 {
		return fmt.Errorf("REPLICA_PORT out of range: %d", c.ReplicaPort)
	}
	if c.LagCheckInterval <= 0 {
		return fmt.Errorf("LAG_CHECK_INTERVAL must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
