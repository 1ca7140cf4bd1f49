package conn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCapacity(t *testing.T) {
	now := time.Unix(0, 0)
	r := NewRegistry(2, 0, 0)

	require.True(t, r.Add(New(1, "127.0.0.1:1", 80, now, 1<<20)))
	require.True(t, r.Add(New(2, "127.0.0.1:2", 80, now, 1<<20)))
	assert.True(t, r.AtCapacity())
	assert.False(t, r.Add(New(3, "127.0.0.1:3", 80, now, 1<<20)))
	assert.Equal(t, 1, r.Rejected())
	assert.Equal(t, 2, r.Len())

	r.Remove(1)
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Add(New(3, "127.0.0.1:3", 80, now, 1<<20)))
}

func TestRegistrySweepTimeouts(t *testing.T) {
	start := time.Unix(0, 0)
	r := NewRegistry(10, 10*time.Second, 5*time.Second)

	reading := New(1, "a", 80, start, 1<<20)
	reading.State = StateReading
	r.Add(reading)

	keepAlive := New(2, "b", 80, start, 1<<20)
	keepAlive.State = StateKeepAlive
	r.Add(keepAlive)

	writing := New(3, "c", 80, start, 1<<20)
	writing.State = StateWriting
	r.Add(writing)

	later := start.Add(6 * time.Second)
	expired := r.SweepTimeouts(later)
	assert.ElementsMatch(t, []int{2}, expired)

	muchLater := start.Add(11 * time.Second)
	expired = r.SweepTimeouts(muchLater)
	assert.ElementsMatch(t, []int{1, 2, 3}, expired)
}

func TestConnectionBeginKeepAlive(t *testing.T) {
	start := time.Unix(0, 0)
	c := New(1, "a", 80, start, 1<<20)
	c.State = StateWriting

	later := start.Add(time.Second)
	c.BeginKeepAlive(later)

	assert.Equal(t, StateKeepAlive, c.State)
	assert.Equal(t, 1, c.RequestCount)
	assert.Equal(t, later, c.LastActivity)
}
