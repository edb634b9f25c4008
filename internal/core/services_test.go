package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/multiregion/internal/region"
)

func TestNewServices(t *testing.T) {
	db := &mockDB{}
	topo := &region.Topology{Primary: "iad", Current: "lhr"}

	svcs := NewServices(db, fakePinger{}, fakeChecker{}, topo, replicaURL)

	require.NotNil(t, svcs)
	require.NotNil(t, svcs.Entry)
	require.NotNil(t, svcs.Status)
	assert.Equal(t, "lhr", svcs.Entry.region)
}

func TestNewServices_SingleRegionWritesAsPrimary(t *testing.T) {
	svcs := NewServices(&mockDB{}, fakePinger{}, fakeChecker{}, &region.Topology{Primary: "iad"}, replicaURL)
	assert.Equal(t, "iad", svcs.Entry.region)
}
