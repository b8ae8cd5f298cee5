package task

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleeperRun(t *testing.T) {
	s := NewSleeper("quick", 20*time.Millisecond)
	require.NoError(t, s.Run())

	assert.True(t, s.Ran)
	assert.Equal(t, os.Getpid(), s.PID)
	assert.GreaterOrEqual(t, s.Elapsed(), 20*time.Millisecond)
}

func TestSleeperRunFailure(t *testing.T) {
	s := &Sleeper{FailWith: "boom"}
	err := s.Run()
	require.EqualError(t, err, "boom")
	assert.True(t, s.Ran, "state is still recorded when Run fails")
}

func TestSleeperSyncWith(t *testing.T) {
	original := NewSleeper("orig", time.Second)
	copied := *original
	copied.Ran = true
	copied.PID = 99
	copied.StartedAt = time.Now()
	copied.FinishedAt = copied.StartedAt.Add(time.Second)
	copied.Duration = time.Hour

	original.SyncWith(&copied)

	assert.True(t, original.Ran)
	assert.Equal(t, 99, original.PID)
	assert.Equal(t, time.Second, original.Elapsed())
	assert.Equal(t, time.Second, original.Duration, "inputs are not overwritten")

	original.SyncWith(nil)
	assert.True(t, original.Ran)
}

func TestSleeperElapsedBeforeRun(t *testing.T) {
	assert.Zero(t, NewSleeper("idle", time.Second).Elapsed())
}
