// Package replica watches replication on the database this instance is
// connected to.
package replica

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// lagQuery reports zero lag when every received WAL record has been replayed,
// so an idle primary does not make a caught-up replica look stale.
const lagQuery = `SELECT pg_is_in_recovery(),
	COALESCE(
		CASE WHEN pg_last_wal_receive_lsn() = pg_last_wal_replay_lsn() THEN 0
		ELSE EXTRACT(EPOCH FROM now() - pg_last_xact_replay_timestamp()) END,
	0)::float8`

var (
	lagSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "replica_lag_seconds",
		Help: "Replication lag of the local database in seconds",
	})
	inRecovery = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "replica_in_recovery",
		Help: "1 if the local database is a standby, 0 if it is the primary",
	})
)

// DB is the subset of pgxpool.Pool the monitor needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Sample is one replication measurement.
type Sample struct {
	InRecovery bool
	Lag        time.Duration
	CheckedAt  time.Time
	Err        error
}

type Monitor struct {
	db       DB
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	last Sample
}

func NewMonitor(db DB, interval time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		db:       db,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Check measures replication once and records the result.
func (m *Monitor) Check(ctx context.Context) (Sample, error) {
	s := Sample{CheckedAt: m.now()}

	var seconds float64
	err := m.db.QueryRow(ctx, lagQuery).Scan(&s.InRecovery, &seconds)
	if err != nil {
		s.Err = fmt.Errorf("check replication lag: %w", err)
	} else {
		s.Lag = time.Duration(seconds * float64(time.Second))
		lagSeconds.Set(seconds)
		if s.InRecovery {
			inRecovery.Set(1)
		} else {
			inRecovery.Set(0)
		}
	}

	m.mu.Lock()
	m.last = s
	m.mu.Unlock()

	return s, s.Err
}

// Run checks replication every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.Check(ctx); err != nil && ctx.Err() == nil {
			m.logger.Warn().Err(err).Msg("replication check failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Lag returns the last measured lag. ok is false when the last check failed
// or the local database is not a standby.
func (m *Monitor) Lag() (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.last.CheckedAt.IsZero() || m.last.Err != nil || !m.last.InRecovery {
		return 0, false
	}
	return m.last.Lag, true
}

// Last returns the most recent sample, zero if none has been taken.
func (m *Monitor) Last() Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}
