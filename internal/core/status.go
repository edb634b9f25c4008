package core

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edvin/multiregion/internal/model"
	"github.com/edvin/multiregion/internal/region"
	"github.com/edvin/multiregion/internal/replica"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReplicationChecker takes a fresh replication sample.
type ReplicationChecker interface {
	Check(ctx context.Context) (replica.Sample, error)
}

// StatusService reports where this instance sits relative to the primary.
type StatusService struct {
	topology    *region.Topology
	databaseURL string
	db          Pinger
	replication ReplicationChecker
}

func NewStatusService(topology *region.Topology, databaseURL string, db Pinger, replication ReplicationChecker) *StatusService {
	return &StatusService{
		topology:    topology,
		databaseURL: databaseURL,
		db:          db,
		replication: replication,
	}
}

// Get probes the database and replication state concurrently. Probe failures
// are reported in the status rather than returned.
func (s *StatusService) Get(ctx context.Context) (*model.RegionStatus, error) {
	st := &model.RegionStatus{
		Region:        string(s.topology.Current),
		PrimaryRegion: string(s.topology.Primary),
		IsPrimary:     s.topology.IsPrimary(),
		DatabaseHost:  region.Host(s.databaseURL),
		Database:      "ok",
	}

	var sample replica.Sample
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.db.Ping(ctx); err != nil {
			st.Database = err.Error()
		}
		return nil
	})
	g.Go(func() error {
		sample, _ = s.replication.Check(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	st.Replica = model.ReplicaStatus{
		InRecovery: sample.InRecovery,
		LagSeconds: sample.Lag.Seconds(),
	}
	if !sample.CheckedAt.IsZero() {
		checkedAt := sample.CheckedAt.UTC().Truncate(time.Millisecond)
		st.Replica.CheckedAt = &checkedAt
	}
	if sample.Err != nil {
		st.Replica.Error = sample.Err.Error()
	}

	return st, nil
}
