package backend

import (
	"context"
	"time"
)

// Backend is the capability interface every generative back-end implements.
// Invoke sends a prompt and returns the raw response text; the timeout bounds
// the underlying call and expiry forcibly terminates it.
type Backend interface {
	Name() string
	IsAuthenticated() bool
	Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error)
}

// Registry holds the known back-ends and the configured primary.
type Registry struct {
	primary  string
	backends []Backend
}

func NewRegistry(primary string, backends ...Backend) *Registry {
	return &Registry{primary: primary, backends: backends}
}

// Select picks the back-end for this pipeline run. If exactly one alternate
// is authenticated and the primary is not, the alternate wins; otherwise the
// primary wins when authenticated; otherwise any authenticated alternate (in
// registration order); otherwise nothing, and the caller falls back to the
// heuristic stage.
func (r *Registry) Select() (Backend, bool) {
	var primary Backend
	var authedAlts []Backend
	for _, b := range r.backends {
		if b.Name() == r.primary {
			primary = b
			continue
		}
		if b.IsAuthenticated() {
			authedAlts = append(authedAlts, b)
		}
	}
	primaryAuthed := primary != nil && primary.IsAuthenticated()
	if !primaryAuthed && len(authedAlts) == 1 {
		return authedAlts[0], true
	}
	if primaryAuthed {
		return primary, true
	}
	if len(authedAlts) > 0 {
		return authedAlts[0], true
	}
	return nil, false
}

// List returns all registered back-ends in registration order.
func (r *Registry) List() []Backend {
	out := make([]Backend, len(r.backends))
	copy(out, r.backends)
	return out
}
