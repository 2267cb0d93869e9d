package build

import "context"

// Sink receives the progress of a training run. Implementations must
// tolerate calls after the run's context is canceled.
type Sink interface {
	Log(text string)
	Finish(artifact Artifact)
	Fail(err error)
}

// Trainer executes a job and reports ordered log lines followed by exactly
// one terminal Finish or Fail. Start must not block on the run itself.
type Trainer interface {
	Start(ctx context.Context, job Job, sink Sink) error
}
