package async

import (
	"context"
	"time"

	"github.com/docuvault/docintel/internal/intel"
)

// Job is one queued intelligence request. OnDone, when set, receives the
// outcome on the worker goroutine.
type Job struct {
	Path        string
	Force       bool
	SubmittedAt time.Time
	OnDone      func(*intel.IntelligenceResult, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
