// Package wait provides the bounded-retry polling primitive used by the
// checkpoint finality checks. A probe is retried at a fixed step until its
// result satisfies a predicate or the attempt budget runs out.
package wait

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrTimedOut is returned when a poll exhausts its attempt budget without
// the predicate ever holding. Callers wrap it with a diagnostic message.
var ErrTimedOut = errors.New("timed out")

const (
	DefaultTimeout = 5 * time.Second
	DefaultStep    = 500 * time.Millisecond
)

// Opts bounds a single poll. The attempt count is ceil(Timeout/Step); the
// zero value for either field falls back to the package default.
type Opts struct {
	// Msg is the caller-supplied diagnostic included in the timeout error.
	Msg     string
	Timeout time.Duration
	Step    time.Duration
}

func (o Opts) withDefaults() Opts {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.Msg == "" {
		o.Msg = "condition not met"
	}
	return o
}

// Attempts returns the number of probe invocations a poll with these
// options performs before giving up.
func (o Opts) Attempts() int {
	o = o.withDefaults()
	return int(math.Ceil(float64(o.Timeout) / float64(o.Step)))
}

// UntilWithValue polls probe until pred holds on its result, returning that
// result. A probe error and a false predicate both count as a failed
// attempt; only exhausting the attempt budget is fatal. The context is
// checked between attempts, so cancellation is cooperative.
func UntilWithValue[T any](ctx context.Context, probe func() (T, error), pred func(T) bool, opts Opts) (T, error) {
	var zero T
	opts = opts.withDefaults()

	attempts := opts.Attempts()
	for i := 0; i < attempts; i++ {
		v, err := probe()
		if err == nil && pred(v) {
			return v, nil
		}
		if i == attempts-1 {
			break // no point sleeping once the budget is spent
		}
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: %w", opts.Msg, ctx.Err())
		case <-time.After(opts.Step):
		}
	}
	return zero, fmt.Errorf("%s: %w", opts.Msg, ErrTimedOut)
}

// Until is the boolean variant of UntilWithValue: the probe's value is the
// condition itself and is discarded.
func Until(ctx context.Context, probe func() (bool, error), opts Opts) error {
	_, err := UntilWithValue(ctx, probe, func(ok bool) bool { return ok }, opts)
	return err
}
