package jobentity

import "context"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Store is the durable record of every job's lifecycle. It is the only state
// shared across restarts; no in-memory state is trusted to survive a crash.
//
//counterfeiter:generate . Store
type Store interface {
	CreateJob(ctx context.Context, job AudioJob) error
	GetJob(ctx context.Context, jobID string) (AudioJob, error)
	SelectAwaiting(ctx context.Context) ([]AudioJob, error)
	SelectTerminal(ctx context.Context) ([]string, error)
	SetStage(ctx context.Context, jobID string, stage Stage) error
	// SetStageFrom updates the stage only if the current stage matches from.
	// A mismatch fails with fault.StageConflictMark.
	SetStageFrom(ctx context.Context, jobID string, to Stage, from Stage) error
	CountActive(ctx context.Context, userID string) (int, error)
}
