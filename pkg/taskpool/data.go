package taskpool

// Outcome is the result of handling one item. Exactly one Outcome exists per
// input item. Index is the item's position in the input slice.
type Outcome[T, U any] struct {
	Index int
	Item  T
	Value U
	Err   error
}

func (o Outcome[T, U]) IsFailure() bool {
	return o.Err != nil
}

// Report collects every Outcome of a Run, ordered by Index.
type Report[T, U any] struct {
	outcomes []Outcome[T, U]
	workers  int
}

func (r Report[T, U]) Outcomes() []Outcome[T, U] {
	return r.outcomes
}

// Workers is the effective concurrency used: min(N, len(items)).
func (r Report[T, U]) Workers() int {
	return r.workers
}

func (r Report[T, U]) Total() int {
	return len(r.outcomes)
}

func (r Report[T, U]) Successes() []Outcome[T, U] {
	var successes []Outcome[T, U]
	for _, o := range r.outcomes {
		if !o.IsFailure() {
			successes = append(successes, o)
		}
	}
	return successes
}

func (r Report[T, U]) Failures() []Outcome[T, U] {
	var failures []Outcome[T, U]
	for _, o := range r.outcomes {
		if o.IsFailure() {
			failures = append(failures, o)
		}
	}
	return failures
}

// FailureHook is called once for every failed item, from the worker that ran it.
type FailureHook func(worker int, index int, identity string, err error)

type options struct {
	onFailure FailureHook
}

type Option func(*options)

// WithFailureHook registers a hook for failed items. The pool uses it to log
// the item's identity.
func WithFailureHook(hook FailureHook) Option {
	return func(o *options) {
		o.onFailure = hook
	}
}
