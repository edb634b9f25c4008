package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edvin/multiregion/internal/region"
)

// TopologyFile is the optional YAML description of the database deployment.
//
//	primary_region: iad
//	replica_port: 5433
//	regions:
//	  - code: lhr
//	    replica_host: lhr.my-db.internal
type TopologyFile struct {
	PrimaryRegion string           `yaml:"primary_region"`
	ReplicaPort   int              `yaml:"replica_port"`
	Regions       []TopologyRegion `yaml:"regions"`
}

type TopologyRegion struct {
	Code        string `yaml:"code"`
	ReplicaHost string `yaml:"replica_host"`
}

// LoadTopologyFile reads and parses a topology YAML file.
func LoadTopologyFile(path string) (*TopologyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology %s: %w", path, err)
	}
	return ParseTopology(data)
}

// ParseTopology parses topology YAML from raw bytes.
func ParseTopology(data []byte) (*TopologyFile, error) {
	var tf TopologyFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse topology: %w", err)
	}

	seen := make(map[string]bool, len(tf.Regions))
	for i, r := range tf.Regions {
		code := strings.ToLower(strings.TrimSpace(r.Code))
		if code == "" {
			return nil, fmt.Errorf("topology region %d: code is required", i)
		}
		if seen[code] {
			return nil, fmt.Errorf("topology region %q listed twice", code)
		}
		seen[code] = true
		tf.Regions[i].Code = code
	}
	tf.PrimaryRegion = strings.ToLower(strings.TrimSpace(tf.PrimaryRegion))

	return &tf, nil
}

// applyTopologyFile merges the file into the config. Environment variables
// take precedence over file values.
func (c *Config) applyTopologyFile(path string) error {
	tf, err := LoadTopologyFile(path)
	if err != nil {
		return err
	}

	if os.Getenv("PRIMARY_REGION") == "" && tf.PrimaryRegion != "" {
		c.PrimaryRegion = tf.PrimaryRegion
	}
	if os.Getenv("REPLICA_PORT") == "" && tf.ReplicaPort != 0 {
		c.ReplicaPort = tf.ReplicaPort
	}

	for _, r := range tf.Regions {
		if r.ReplicaHost == "" {
			continue
		}
		if c.ReplicaHosts == nil {
			c.ReplicaHosts = make(map[string]string)
		}
		c.ReplicaHosts[r.Code] = r.ReplicaHost
	}
	return nil
}

// Topology builds the region topology from the loaded config.
func (c *Config) Topology() (*region.Topology, error) {
	t, err := region.NewTopology(c.PrimaryRegion, c.Region, c.ReplicaPort, c.ReplicaHosts)
	if err != nil {
		return nil, fmt.Errorf("build topology: %w", err)
	}
	return t, nil
}
