// Package cron runs the periodic jobs of the bot: the daily digest and the
// trait profile refresh.
package cron

import "context"

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job (used for logging and dedup).
	Name() string

	// Schedule returns a 5-field cron expression (e.g., "59 23 * * *"),
	// evaluated in the scheduler's location.
	Schedule() string

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}

// Observer is told about every finished run.
type Observer interface {
	JobRun(job string, err error)
}
