package scheduler

import (
	"testing"

	"rentacar-ledger/internal/config"
	"rentacar-ledger/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler(t *testing.T) {
	t.Run("Registers audit", func(t *testing.T) {
		cfg := &config.Config{Scheduler: config.SchedulerConfig{ConservationAudit: "0 */15 * * * *"}}
		s, err := NewScheduler(jobs.NewJobRunner(nil, cfg))
		require.NoError(t, err)
		assert.True(t, s.IsRunning())

		s.Start()
		defer s.Stop()
		assert.False(t, s.NextRun().IsZero())
		assert.Zero(t, s.NextRun().Second())
		assert.Zero(t, s.NextRun().Minute()%15)
	})

	t.Run("Invalid schedule", func(t *testing.T) {
		cfg := &config.Config{Scheduler: config.SchedulerConfig{ConservationAudit: "every now and then"}}
		_, err := NewScheduler(jobs.NewJobRunner(nil, cfg))
		assert.Error(t, err)
	})
}
