package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearListener/internal/chain"
)

func unknownBlockError() error {
	return &chain.RPCError{
		Method:  "block",
		Name:    "HANDLER_ERROR",
		Cause:   &chain.ErrorCause{Name: chain.CauseUnknownBlock, Info: json.RawMessage(`{}`)},
		Code:    -32000,
		Message: "Server error",
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Verdict
	}{
		{"unknown block", unknownBlockError(), VerdictAdvance},
		{"wrapped unknown block", fmt.Errorf("fetch: %w", unknownBlockError()), VerdictAdvance},
		{"legacy unknown block", &chain.RPCError{Code: -32000, Data: json.RawMessage(`"DB Not Found Error: BLOCK HEIGHT: 101 \n Cause: Unknown"`)}, VerdictAdvance},
		{"unknown block over 500", &chain.StatusError{Method: "block", StatusCode: 500, Err: unknownBlockError()}, VerdictAdvance},
		{"server error", &chain.StatusError{Method: "block", StatusCode: 503, Body: "unavailable"}, VerdictRetry},
		{"other handler error", &chain.RPCError{Name: "HANDLER_ERROR", Cause: &chain.ErrorCause{Name: chain.CauseUnknownChunk}}, VerdictFatal},
		{"transport error", errors.New("connection refused"), VerdictFatal},
		{"nil", nil, VerdictFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestFixedBackoff(t *testing.T) {
	b := FixedBackoff{Delay: 5 * time.Second, MaxRetries: 2}

	for attempt := 1; attempt <= 2; attempt++ {
		d, ok := b.Next(attempt)
		require.True(t, ok)
		assert.Equal(t, 5*time.Second, d)
	}
	_, ok := b.Next(3)
	assert.False(t, ok)

	d, ok := FixedBackoff{Delay: time.Second}.Next(1000)
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff{Base: 100 * time.Millisecond, Max: time.Second}

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, w := range want {
		d, ok := b.Next(i + 1)
		require.True(t, ok)
		assert.Equal(t, w, d, "attempt %d", i+1)
	}

	d, ok := ExponentialBackoff{Base: time.Hour}.Next(200)
	require.True(t, ok)
	assert.Positive(t, d)

	_, ok = ExponentialBackoff{MaxRetries: 1}.Next(2)
	assert.False(t, ok)
}

func TestDefaultBackoff(t *testing.T) {
	d, ok := DefaultBackoff().Next(50)
	assert.True(t, ok)
	assert.Equal(t, DefaultServerErrorDelay, d)
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
