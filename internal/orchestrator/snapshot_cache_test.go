package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshot struct {
	Metrics []int
	Label   string
}

func TestSnapshotCache_MissThenHitOnIdenticalPayload(t *testing.T) {
	c := newSnapshotCache()
	payload := fakeSnapshot{Metrics: []int{1, 2, 3}, Label: "a"}

	_, hit, err := c.lookup("key", payload)
	require.NoError(t, err)
	assert.False(t, hit, "first lookup for a key must always miss")

	require.NoError(t, c.remember("key", payload, "exec-1"))

	id, hit, err := c.lookup("key", payload)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "exec-1", id)
}

func TestSnapshotCache_ChangedPayloadMisses(t *testing.T) {
	c := newSnapshotCache()
	require.NoError(t, c.remember("key", fakeSnapshot{Metrics: []int{1, 2, 3}}, "exec-1"))

	_, hit, err := c.lookup("key", fakeSnapshot{Metrics: []int{1, 2, 4}})
	require.NoError(t, err)
	assert.False(t, hit, "a changed snapshot must not be reported as a cache hit")
}

func TestSnapshotCache_DistinctKeysDoNotCollide(t *testing.T) {
	c := newSnapshotCache()
	payload := fakeSnapshot{Metrics: []int{1}, Label: "shared"}
	require.NoError(t, c.remember("bid:asin-1", payload, "exec-1"))

	_, hit, err := c.lookup("budget", payload)
	require.NoError(t, err)
	assert.False(t, hit, "a snapshot remembered under one key must not answer a lookup under another")
}

func TestSnapshotCache_RememberOverwritesPriorEntry(t *testing.T) {
	c := newSnapshotCache()
	require.NoError(t, c.remember("key", fakeSnapshot{Label: "first"}, "exec-1"))
	require.NoError(t, c.remember("key", fakeSnapshot{Label: "second"}, "exec-2"))

	_, hit, err := c.lookup("key", fakeSnapshot{Label: "first"})
	require.NoError(t, err)
	assert.False(t, hit, "the newest remembered snapshot replaces the old one")

	id, hit, err := c.lookup("key", fakeSnapshot{Label: "second"})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "exec-2", id)
}
