package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// DatabaseTLS builds a client *tls.Config for PostgreSQL connections from the
// DATABASE_TLS_* fields. Returns nil, nil if nothing is configured, in which
// case the sslmode parameters of DATABASE_URL apply unchanged.
func (c *Config) DatabaseTLS() (*tls.Config, error) {
	if c.DatabaseTLSCert == "" && c.DatabaseTLSKey == "" && c.DatabaseTLSCACert == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if c.DatabaseTLSCert != "" || c.DatabaseTLSKey != "" {
		cert, err := tls.LoadX509KeyPair(c.DatabaseTLSCert, c.DatabaseTLSKey)
		if err != nil {
			return nil, fmt.Errorf("load database client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if c.DatabaseTLSCACert != "" {
		caPEM, err := os.ReadFile(c.DatabaseTLSCACert)
		if err != nil {
			return nil, fmt.Errorf("read database CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("failed to parse database CA cert")
		}
		tlsConfig.RootCAs = pool
	}

	if c.DatabaseTLSServerName != "" {
		tlsConfig.ServerName = c.DatabaseTLSServerName
	}

	return tlsConfig, nil
}
