package regionctl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/multiregion/internal/api/response"
	"github.com/edvin/multiregion/internal/model"
	"github.com/edvin/multiregion/internal/replay"
)

func newRegionServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /regionz", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, model.RegionStatus{
			Region:        "lhr",
			PrimaryRegion: "iad",
			DatabaseHost:  "lhr.my-db.internal:5433",
			Database:      "ok",
			Replica:       model.ReplicaStatus{InRecovery: true, LagSeconds: 0.2},
		})
	})
	mux.HandleFunc("POST /api/v1/entries", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(replay.HeaderName, "region=iad")
		response.WriteRegionError(w, http.StatusConflict, "replaying request in iad", "iad")
	})
	mux.HandleFunc("GET /api/v1/entries", func(w http.ResponseWriter, r *http.Request) {
		response.WritePaginated(w, http.StatusOK, []model.Entry{}, "", false)
	})
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(replay.HeaderName, "state=x")
		w.WriteHeader(http.StatusConflict)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Status(t *testing.T) {
	srv := newRegionServer(t)

	st, err := NewClient(srv.URL + "/").Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lhr", st.Region)
	assert.Equal(t, "iad", st.PrimaryRegion)
	assert.True(t, st.Replica.InRecovery)
}

func TestClient_Status_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, http.StatusInternalServerError, "boom")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_Probe_Replayed(t *testing.T) {
	srv := newRegionServer(t)

	res, err := NewClient(srv.URL).Probe(context.Background(), http.MethodPost, "/api/v1/entries", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	require.NotNil(t, res.Directive)
	assert.Equal(t, "iad", res.Directive.Region)
}

func TestClient_Probe_Local(t *testing.T) {
	srv := newRegionServer(t)

	res, err := NewClient(srv.URL).Probe(context.Background(), http.MethodGet, "/api/v1/entries", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Nil(t, res.Directive)
}

func TestClient_Probe_BadDirective(t *testing.T) {
	srv := newRegionServer(t)

	_, err := NewClient(srv.URL).Probe(context.Background(), http.MethodGet, "/broken", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse fly-replay header")
}
