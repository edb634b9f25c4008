// Package region models where an instance runs relative to the database
// leader, and derives the connection string each instance must use.
//
// Instances in the primary region talk to the leader directly. Everywhere else
// the instance reads from the read replica in its own region, which listens on
// a separate port (5433 by default) under a region-prefixed hostname.
package region

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// DefaultReplicaPort is the port regional read replicas accept connections on.
const DefaultReplicaPort = 5433

type Region string

var codeRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{1,15}$`)

// nearestPrefix matches the "topN.nearest.of." DNS prefix that resolves to the
// closest N database instances.
var nearestPrefix = regexp.MustCompile(`^top[0-9]+\.nearest\.of\.`)

// ParseRegion normalises and validates a region code.
func ParseRegion(s string) (Region, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	if !codeRegex.MatchString(code) {
		return "", fmt.Errorf("invalid region code %q", s)
	}
	return Region(code), nil
}

func (r Region) String() string {
	return string(r)
}

// Topology describes the primary region and the region of this instance.
type Topology struct {
	Primary Region
	// Current is empty when the instance is not region aware, e.g. local
	// development. Such an instance is treated as the primary.
	Current     Region
	ReplicaPort int
	// Hosts overrides the derived replica hostname per region.
	Hosts map[Region]string
}

// NewTopology builds a Topology from raw region codes. Empty codes are allowed
// and leave the corresponding field unset.
func NewTopology(primary, current string, replicaPort int, hosts map[string]string) (*Topology, error) {
	t := &Topology{ReplicaPort: replicaPort}

	if primary != "" {
		p, err := ParseRegion(primary)
		if err != nil {
			return nil, fmt.Errorf("primary region: %w", err)
		}
		t.Primary = p
	}
	if current != "" {
		c, err := ParseRegion(current)
		if err != nil {
			return nil, fmt.Errorf("current region: %w", err)
		}
		t.Current = c
	}
	for code, host := range hosts {
		r, err := ParseRegion(code)
		if err != nil {
			return nil, fmt.Errorf("replica host: %w", err)
		}
		if t.Hosts == nil {
			t.Hosts = make(map[Region]string, len(hosts))
		}
		t.Hosts[r] = host
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate reports configuration combinations that cannot route requests.
func (t *Topology) Validate() error {
	if t.Current != "" && t.Primary == "" {
		return fmt.Errorf("primary region is required when the current region is set")
	}
	if t.ReplicaPort < 0 || t.ReplicaPort > 65535 {
		return fmt.Errorf("replica port out of range: %d", t.ReplicaPort)
	}
	return nil
}

// IsPrimary reports whether writes are possible from this instance.
func (t *Topology) IsPrimary() bool {
	return t.Current == "" || t.Current == t.Primary
}

func (t *Topology) replicaPort() int {
	if t.ReplicaPort == 0 {
		return DefaultReplicaPort
	}
	return t.ReplicaPort
}

// DatabaseURL returns the connection string this instance should use. The
// primary region gets base unchanged; other regions get the regional replica.
func (t *Topology) DatabaseURL(base string) (string, error) {
	u, err := parsePostgresURL(base)
	if err != nil {
		return "", err
	}
	if t.IsPrimary() {
		return base, nil
	}

	host := t.Hosts[t.Current]
	if host == "" {
		host = string(t.Current) + "." + nearestPrefix.ReplaceAllString(u.Hostname(), "")
	}
	u.Host = net.JoinHostPort(host, strconv.Itoa(t.replicaPort()))

	return u.String(), nil
}

// Redact returns the URL with its password replaced, for logs and status
// output. Unparsable input is returned as an empty string.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Redacted()
}

// Host returns host:port of a connection string, or "" if it cannot be parsed.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func parsePostgresURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return nil, fmt.Errorf("parse database url: unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("parse database url: missing host")
	}
	return u, nil
}
