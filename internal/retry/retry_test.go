package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBoom = errors.New("boom")

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		failures  int // attempts that fail before success
		wantCalls int
		wantErr   bool
	}{
		{name: "first try", policy: Policy{MaxAttempts: 2, Delay: time.Millisecond}, failures: 0, wantCalls: 1},
		{name: "retry succeeds", policy: Policy{MaxAttempts: 2, Delay: time.Millisecond}, failures: 1, wantCalls: 2},
		{name: "exhausted", policy: Policy{MaxAttempts: 2, Delay: time.Millisecond}, failures: 5, wantCalls: 2, wantErr: true},
		{name: "single attempt", policy: Once, failures: 1, wantCalls: 1, wantErr: true},
		{name: "zero attempts still tries once", policy: Policy{}, failures: 1, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), discardLogger(), "test", tt.policy, func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return errBoom
				}
				return nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, errBoom)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDo_WaitsBetweenAttempts(t *testing.T) {
	start := time.Now()
	_ = Do(context.Background(), discardLogger(), "test", Policy{MaxAttempts: 2, Delay: 30 * time.Millisecond}, func(context.Context) error {
		return errBoom
	})
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestDo_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, discardLogger(), "test", Policy{MaxAttempts: 3, Delay: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errBoom
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestValue(t *testing.T) {
	calls := 0
	v, err := Value(context.Background(), discardLogger(), "test", Policy{MaxAttempts: 2, Delay: time.Millisecond}, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errBoom
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}
