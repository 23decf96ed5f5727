package scheduler

import (
	"context"
	"fmt"
	"time"
)

// SweepJobID identifies the idle workspace sweep.
const SweepJobID = "workspace-sweep"

// Sweeper deletes workspaces idle for longer than ttl and returns how many
// it closed.
type Sweeper interface {
	Sweep(ttl time.Duration) int
}

// SweepJob returns a job that sweeps idle workspaces on spec.
func SweepJob(sw Sweeper, spec string, ttl time.Duration) (Job, error) {
	if sw == nil {
		return Job{}, fmt.Errorf("scheduler: sweeper must not be nil")
	}
	if ttl <= 0 {
		return Job{}, fmt.Errorf("scheduler: sweep ttl must be positive, got %s", ttl)
	}
	if err := ValidateSpec(spec); err != nil {
		return Job{}, fmt.Errorf("scheduler: sweep schedule %q: %w", spec, err)
	}
	return Job{
		ID:       SweepJobID,
		Name:     "idle workspace sweep",
		CronExpr: spec,
		Run: func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sw.Sweep(ttl)
			return nil
		},
	}, nil
}
