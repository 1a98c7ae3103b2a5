package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultMaxRetries is how many times a transient failure is retried.
	DefaultMaxRetries = 2
	// DefaultBaseDelay is the wait before the first retry; it doubles each attempt.
	DefaultBaseDelay = time.Second
)

// Kind classifies an operation for the retry policy.
type Kind int

const (
	// KindRead is a query with no side effects.
	KindRead Kind = iota
	// KindIdempotentWrite repeats safely: updates and deletes by primary key,
	// whole reorder transactions, upserts keyed on a unique column.
	KindIdempotentWrite
	// KindInsert is a blind INSERT. A retry after a slow success would duplicate
	// the row, so inserts are attempted exactly once.
	KindInsert
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindIdempotentWrite:
		return "idempotent-write"
	case KindInsert:
		return "insert"
	default:
		return "unknown"
	}
}

// RetryError is returned when an operation still fails with a transient error
// after the retry budget is spent.
type RetryError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor runs data-access closures with bounded retry and exponential
// backoff on transient failures.
type Executor struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
	sleep      SleepFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxRetries overrides DefaultMaxRetries. Negative values are treated as 0.
func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		if n < 0 {
			n = 0
		}
		e.maxRetries = n
	}
}

// WithBaseDelay overrides DefaultBaseDelay.
func WithBaseDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.baseDelay = d
		}
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSleep replaces the backoff wait. Tests use it to record delays.
func WithSleep(fn SleepFunc) Option {
	return func(e *Executor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// NewExecutor creates an Executor with the default policy.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		logger:     slog.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backoff returns the delay before retry number attempt (0-based).
func (e *Executor) Backoff(attempt int) time.Duration {
	return e.baseDelay * time.Duration(1<<attempt)
}

// Execute runs fn, retrying transient failures according to kind.
// Non-transient errors are returned unchanged on the first failure.
func (e *Executor) Execute(ctx context.Context, kind Kind, op string, fn func(ctx context.Context) error) error {
	if e == nil {
		return fn(ctx)
	}

	retries := e.maxRetries
	if kind == KindInsert {
		retries = 0
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt >= retries {
			return &RetryError{Op: op, Attempts: attempt + 1, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &RetryError{Op: op, Attempts: attempt + 1, Err: err}
		}

		delay := e.Backoff(attempt)
		e.logger.WarnContext(ctx, "transient database error, retrying",
			"op", op,
			"kind", kind.String(),
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
		if err := e.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: retry aborted: %w", op, err)
		}
	}
}

// Query is Execute for closures that produce a value.
func Query[T any](ctx context.Context, e *Executor, kind Kind, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := e.Execute(ctx, kind, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
