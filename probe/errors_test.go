package probe

import (
	"context"
	"errors"
	"testing"
	"time"
)

// timeoutError implements net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"deadline exceeded", context.DeadlineExceeded, ErrTimeout},
		{"net timeout", timeoutError{}, ErrTimeout},
		{"generic", errors.New("connection refused"), ErrConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Errorf("classify(%v) = %v, want nil", tt.err, got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify_PreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	got := classify(cause)

	if !errors.Is(got, cause) {
		t.Errorf("classify() lost the cause: %v", got)
	}
	if !errors.Is(got, ErrConnection) {
		t.Errorf("classify() = %v, want ErrConnection class", got)
	}
}

func TestClassify_WrappedDeadline(t *testing.T) {
	wrapped := &wrappedErr{inner: context.DeadlineExceeded}
	got := classify(wrapped)

	if !errors.Is(got, ErrTimeout) {
		t.Errorf("classify(wrapped deadline) = %v, want ErrTimeout class", got)
	}
}

type wrappedErr struct{ inner error }

func (w *wrappedErr) Error() string { return "attempt failed: " + w.inner.Error() }
func (w *wrappedErr) Unwrap() error { return w.inner }

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrConfiguration, ErrTimeout, ErrConnection, ErrValidation, ErrUnsupportedKind}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches %v", a, b)
			}
		}
	}
}

// Guards against classify treating ordinary errors as timeouts.
func TestClassify_SlowButNotTimeout(t *testing.T) {
	err := errors.New("handshake rejected after " + (50 * time.Millisecond).String())
	if !errors.Is(classify(err), ErrConnection) {
		t.Errorf("classify() should default to ErrConnection")
	}
}
