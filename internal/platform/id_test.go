package platform

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewID_ReturnsValidUUIDString(t *testing.T) {
	id := NewID()
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`, id)
}

func TestNewID_SortsByCreation(t *testing.T) {
	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		ids = append(ids, NewID())
	}
	assert.True(t, sort.StringsAreSorted(ids), "ids created in sequence should sort in sequence")

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate ID generated: %s", id)
		seen[id] = true
	}
}

func TestIDTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	at, ok := IDTime(NewID())
	assert.True(t, ok)
	assert.WithinRange(t, at, before, time.Now().Add(time.Second))
}

func TestIDTime_NotV7(t *testing.T) {
	for _, id := range []string{"550e8400-e29b-41d4-a716-446655440000", "nope"} {
		_, ok := IDTime(id)
		assert.False(t, ok, id)
	}
}
