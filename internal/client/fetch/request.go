package fetch

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/communityhub/internal/client/api"
)

// Func is the operation wrapped by a Request.
type Func[P, T any] func(ctx context.Context, params P) (T, error)

// RequestState is a snapshot of a Request. After a completed call exactly
// one of Data and Error is set. While IsLoading the previous values are
// kept.
type RequestState[T any] struct {
	Data      *T
	IsLoading bool
	Error     string
	// ValidationErrors is the backend validation array of the last failure.
	ValidationErrors []json.RawMessage
}

type options struct {
	immediate bool
	onSuccess any
	onError   func(error)
}

type Option func(*options)

// WithImmediate makes Activate run one execute with zero params.
func WithImmediate() Option {
	return func(o *options) { o.immediate = true }
}

// OnSuccess registers a callback run after every successful execute. Its
// type must match the request result type.
func OnSuccess[T any](fn func(T)) Option {
	return func(o *options) { o.onSuccess = fn }
}

func OnError(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

type Request[P, T any] struct {
	fn        Func[P, T]
	immediate bool
	onSuccess func(T)
	onError   func(error)

	mu        sync.Mutex
	state     RequestState[T]
	inflight  int
	activated bool
}

func NewRequest[P, T any](fn Func[P, T], opts ...Option) *Request[P, T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &Request[P, T]{fn: fn, immediate: o.immediate, onError: o.onError}
	if o.onSuccess != nil {
		cb, ok := o.onSuccess.(func(T))
		if !ok {
			panic("fetch: OnSuccess callback does not match the request result type")
		}
		r.onSuccess = cb
	}
	return r
}

// Execute runs the wrapped operation. Errors are recorded in the state and
// returned as well.
func (r *Request[P, T]) Execute(ctx context.Context, params P) (T, error) {
	r.mu.Lock()
	r.inflight++
	r.state.IsLoading = true
	r.state.Error = ""
	r.state.ValidationErrors = nil
	r.mu.Unlock()

	v, err := r.fn(ctx, params)

	r.mu.Lock()
	r.inflight--
	r.state.IsLoading = r.inflight > 0
	if err != nil {
		r.state.Data = nil
		r.state.Error = err.Error()
		r.state.ValidationErrors = api.ValidationErrors(err)
	} else {
		r.state.Data = &v
		r.state.Error = ""
		r.state.ValidationErrors = nil
	}
	r.mu.Unlock()

	if err != nil {
		if r.onError != nil {
			r.onError(err)
		}
		return v, err
	}
	if r.onSuccess != nil {
		r.onSuccess(v)
	}
	return v, nil
}

// Activate runs the immediate execute the first time it is called. It is a
// no-op for requests built without WithImmediate.
func (r *Request[P, T]) Activate(ctx context.Context) error {
	r.mu.Lock()
	if !r.immediate || r.activated {
		r.mu.Unlock()
		return nil
	}
	r.activated = true
	r.mu.Unlock()

	var zero P
	_, err := r.Execute(ctx, zero)
	return err
}

// Reset clears data and error without issuing a request.
func (r *Request[P, T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = RequestState[T]{IsLoading: r.inflight > 0}
}

func (r *Request[P, T]) State() RequestState[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
