package model

import "time"

// RegionStatus describes how this instance is placed relative to the
// database leader.
type RegionStatus struct {
	Region        string        `json:"region"`
	PrimaryRegion string        `json:"primary_region"`
	IsPrimary     bool          `json:"is_primary"`
	DatabaseHost  string        `json:"database_host"`
	Database      string        `json:"database"`
	Replica       ReplicaStatus `json:"replica"`
}

type ReplicaStatus struct {
	InRecovery bool       `json:"in_recovery"`
	LagSeconds float64    `json:"lag_seconds"`
	CheckedAt  *time.Time `json:"checked_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}
