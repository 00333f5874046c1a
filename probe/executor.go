package probe

import (
	"context"
	"fmt"
	"math"
	"time"
)

// BackoffStrategy defines how the delay between attempts grows.
type BackoffStrategy int

const (
	// BackoffConstant uses the same delay between all attempts.
	BackoffConstant BackoffStrategy = iota
	// BackoffLinear increases the delay linearly with the attempt number.
	BackoffLinear
	// BackoffExponential doubles the delay each attempt.
	BackoffExponential
)

// ExecutorConfig configures how checks are executed.
type ExecutorConfig struct {
	// Attempts is the maximum number of attempts per check (including the first).
	// Default: 3
	Attempts int

	// Delay is the pause between attempts. No delay is applied before the
	// first attempt.
	// Default: 1s
	Delay time.Duration

	// MaxDelay caps the delay between attempts for growing strategies.
	// Default: 30s
	MaxDelay time.Duration

	// Strategy selects how the delay grows between attempts.
	// Default: BackoffConstant
	Strategy BackoffStrategy

	// Timeout bounds each individual attempt.
	// Default: 5s
	Timeout time.Duration

	// OnAttempt is called after each failed attempt that will be retried.
	OnAttempt func(attempt int, err error, delay time.Duration)
}

// Outcome is the result of one logical check: a probe run through the
// executor's retry loop. A check that succeeds on any attempt is OK; a check
// whose attempts are all exhausted carries the last attempt's error.
type Outcome struct {
	// OK reports whether any attempt succeeded.
	OK bool

	// Details carries probe-specific data from the deciding attempt.
	Details map[string]any

	// Err is the classified error from the last attempt when OK is false.
	Err error

	// Attempts is the number of attempts performed.
	Attempts int

	// Elapsed is the total wall-clock time across all attempts and the
	// delays between them.
	Elapsed time.Duration

	// CheckedAt is when the check started.
	CheckedAt time.Time
}

// Executor runs probes with bounded retries and per-attempt timeouts.
type Executor struct {
	config ExecutorConfig
}

// NewExecutor creates a new executor.
func NewExecutor(config ExecutorConfig) *Executor {
	// Apply defaults
	if config.Attempts <= 0 {
		config.Attempts = 3
	}
	if config.Delay <= 0 {
		config.Delay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &Executor{config: config}
}

// Run executes one logical check of the probe. The first successful attempt
// wins; after the last failed attempt the outcome carries that attempt's
// error. Cancelling ctx aborts the retry loop between attempts but never
// interrupts the bookkeeping: Run always returns a complete Outcome.
func (e *Executor) Run(ctx context.Context, p Probe) Outcome {
	start := time.Now()
	out := Outcome{CheckedAt: start}

	if p == nil {
		out.Err = fmt.Errorf("%w: nil probe", ErrConfiguration)
		out.Elapsed = time.Since(start)
		return out
	}

	for attempt := 1; attempt <= e.config.Attempts; attempt++ {
		out.Attempts = attempt

		details, err := e.attempt(ctx, p)
		out.Details = details
		out.Err = err

		if err == nil {
			out.OK = true
			break
		}

		if attempt >= e.config.Attempts {
			break
		}

		if ctx.Err() != nil {
			out.Err = ctx.Err()
			break
		}

		delay := e.delayFor(attempt)
		if e.config.OnAttempt != nil {
			e.config.OnAttempt(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			out.Err = ctx.Err()
			out.Elapsed = time.Since(start)
			return out
		case <-time.After(delay):
		}
	}

	out.Elapsed = time.Since(start)
	return out
}

// attempt runs a single probe attempt under the per-attempt timeout, guarding
// against probes that ignore cancellation or panic.
func (e *Executor) attempt(ctx context.Context, p Probe) (map[string]any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	type attemptResult struct {
		details map[string]any
		err     error
	}
	resultCh := make(chan attemptResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- attemptResult{err: fmt.Errorf("probe: panic during check: %v", r)}
			}
		}()
		details, err := p.Check(attemptCtx)
		resultCh <- attemptResult{details: details, err: err}
	}()

	select {
	case res := <-resultCh:
		return res.details, res.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: attempt exceeded %v", ErrTimeout, e.config.Timeout)
	}
}

func (e *Executor) delayFor(attempt int) time.Duration {
	var delay time.Duration

	switch e.config.Strategy {
	case BackoffLinear:
		delay = e.config.Delay * time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(e.config.Delay) * math.Pow(2, float64(attempt-1)))
	default:
		delay = e.config.Delay
	}

	if delay > e.config.MaxDelay {
		delay = e.config.MaxDelay
	}
	return delay
}

// Config returns the executor configuration.
func (e *Executor) Config() ExecutorConfig {
	return e.config
}
