package fetch

import (
	"context"
	"sync/atomic"
)

// Submitter is a Request that also remembers whether the last submission
// went through, which forms use to show a confirmation.
type Submitter[P, T any] struct {
	*Request[P, T]
	succeeded atomic.Bool
}

func NewSubmitter[P, T any](fn Func[P, T], opts ...Option) *Submitter[P, T] {
	return &Submitter[P, T]{Request: NewRequest(fn, opts...)}
}

func (s *Submitter[P, T]) Submit(ctx context.Context, params P) (T, error) {
	s.succeeded.Store(false)
	v, err := s.Execute(ctx, params)
	s.succeeded.Store(err == nil)
	return v, err
}

func (s *Submitter[P, T]) Succeeded() bool {
	return s.succeeded.Load()
}

func (s *Submitter[P, T]) Reset() {
	s.Request.Reset()
	s.succeeded.Store(false)
}
