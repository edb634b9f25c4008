package db

import (
	"crypto/tls"

	"github.com/jackc/pgx/v5/pgconn"
)

// applyTLS gives the primary host and every fallback its own copy of
// tlsConfig. Each copy verifies against the host it dials unless
// tlsConfig pins a ServerName.
func applyTLS(cc *pgconn.Config, tlsConfig *tls.Config) {
	if tlsConfig == nil {
		return
	}
	cc.TLSConfig = hostTLS(tlsConfig, cc.Host)
	for _, fb := range cc.Fallbacks {
		fb.TLSConfig = hostTLS(tlsConfig, fb.Host)
	}
}

func hostTLS(tlsConfig *tls.Config, host string) *tls.Config {
	c := tlsConfig.Clone()
	if c.ServerName == "" && !isSocketPath(host) {
		c.ServerName = host
	}
	return c
}

func isSocketPath(host string) bool {
	return len(host) > 0 && host[0] == '/'
}
