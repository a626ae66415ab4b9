package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPolicyDo(t *testing.T) {
	transient := Retryable(errors.New("transient"))
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		policy    Policy
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"success first try", Policy{Attempts: 3}, []error{nil}, 1, nil},
		{"retry then success", Policy{Attempts: 3}, []error{transient, nil}, 2, nil},
		{"exhausted", Policy{Attempts: 3}, []error{transient, transient, transient}, 3, transient},
		{"permanent stops", Policy{Attempts: 3}, []error{permanent}, 1, permanent},
		{"zero policy single attempt", Policy{}, []error{transient}, 1, transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := tt.policy.Do(context.Background(), func() error {
				e := tt.errs[calls]
				calls++
				return e
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) && err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPolicyDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, Delay: time.Hour}

	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		cancel()
		return Retryable(errors.New("down"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPolicyBackoff(t *testing.T) {
	measure := func(p Policy) time.Duration {
		start := time.Now()
		_ = p.Do(context.Background(), func() error { return Retryable(errors.New("x")) })
		return time.Since(start)
	}

	// 3 attempts: fixed waits 2x delay, exponential waits 1x + 2x.
	fixed := measure(Policy{Attempts: 3, Delay: 20 * time.Millisecond, Backoff: Fixed})
	exp := measure(Policy{Attempts: 3, Delay: 20 * time.Millisecond, Backoff: Exponential})
	if fixed < 40*time.Millisecond {
		t.Errorf("fixed backoff took %v, want >= 40ms", fixed)
	}
	if exp < 60*time.Millisecond {
		t.Errorf("exponential backoff took %v, want >= 60ms", exp)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	base := errors.New("base")
	err := Retryable(base)
	if !isRetryable(err) || !errors.Is(err, base) {
		t.Errorf("Retryable(base) = %v, not retryable or lost cause", err)
	}
}
