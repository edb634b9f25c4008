package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/multiregion/internal/core"
	"github.com/edvin/multiregion/internal/model"
	"github.com/edvin/multiregion/internal/replica"
)

func TestStatusGet_Replica(t *testing.T) {
	svc := core.NewStatusService(replicaTopo, "postgres://app:pw@lhr.db.internal:5433/app", stubPinger{}, stubChecker{sample: replica.Sample{
		InRecovery: true,
		Lag:        250 * time.Millisecond,
		CheckedAt:  time.Now(),
	}})
	rec := httptest.NewRecorder()

	NewStatus(svc).Get(rec, newRequest(http.MethodGet, "/regionz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var st model.RegionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "lhr", st.Region)
	assert.Equal(t, "iad", st.PrimaryRegion)
	assert.False(t, st.IsPrimary)
	assert.Equal(t, "lhr.db.internal:5433", st.DatabaseHost)
	assert.True(t, st.Replica.InRecovery)
	assert.InDelta(t, 0.25, st.Replica.LagSeconds, 0.001)
	assert.NotContains(t, rec.Body.String(), "pw@")
}

func TestStatusGet_DatabaseDown(t *testing.T) {
	svc := core.NewStatusService(primaryTopo, "postgres://app@db.internal:5432/app",
		stubPinger{err: errors.New("connection refused")},
		stubChecker{sample: replica.Sample{CheckedAt: time.Now(), Err: errors.New("check replication lag: connection refused")}},
	)
	rec := httptest.NewRecorder()

	NewStatus(svc).Get(rec, newRequest(http.MethodGet, "/regionz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var st model.RegionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.IsPrimary)
	assert.Equal(t, "connection refused", st.Database)
	assert.Contains(t, st.Replica.Error, "connection refused")
}
