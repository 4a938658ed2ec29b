package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreakerIsClosed(t *testing.T) {
	b := New("search-cache")
	assert.Equal(t, "search-cache", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
}

func TestBreakerTransitions(t *testing.T) {
	type step struct {
		ok       bool
		primary  bool // result of RecordSuccess
		opened   bool
		closed   bool
		wantOpen bool
	}
	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name: "opens on the threshold failure",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{ok: false, primary: true},
				{ok: false, primary: true},
				{ok: false, primary: false, opened: true, wantOpen: true},
				{ok: false, primary: false, wantOpen: true},
			},
		},
		{
			name: "success clears the failure streak",
			opts: []Option{WithFailureThreshold(2)},
			steps: []step{
				{ok: false, primary: true},
				{ok: true, primary: true},
				{ok: false, primary: true},
				{ok: false, primary: false, opened: true, wantOpen: true},
			},
		},
		{
			name: "closes after consecutive successes",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{ok: false, opened: true, wantOpen: true},
				{ok: true, primary: false, wantOpen: true},
				{ok: true, primary: true, closed: true},
			},
		},
		{
			name: "failure while open restarts the success streak",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{ok: false, opened: true, wantOpen: true},
				{ok: true, wantOpen: true},
				{ok: false, wantOpen: true},
				{ok: true, wantOpen: true},
				{ok: true, primary: true, closed: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("search-cache", tt.opts...)
			for i, s := range tt.steps {
				if s.ok {
					usePrimary, change := b.RecordSuccess()
					assert.Equal(t, s.primary, usePrimary, "step %d", i)
					assert.Equal(t, s.closed, change.Closed, "step %d", i)
				} else {
					useFallback, change := b.RecordFailure()
					assert.Equal(t, s.wantOpen, useFallback, "step %d", i)
					assert.Equal(t, s.opened, change.Opened, "step %d", i)
				}
				require.Equal(t, s.wantOpen, b.IsOpen(), "step %d", i)
			}
		})
	}
}

func TestResetClosesBreaker(t *testing.T) {
	b := New("search-cache", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	usePrimary, _ := b.RecordSuccess()
	assert.True(t, usePrimary)
}

func TestInvalidThresholdsKeepDefaults(t *testing.T) {
	b := New("search-cache", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for range 4 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}
