package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ratestore "github.com/PabloGalante/farum-wellness/internal/adapters/ratelimit"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newGovernor(t *testing.T) (*Governor, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := NewGovernor(ratestore.NewMemoryStore(0))
	g.now = clock.Now
	return g, clock
}

func TestAdmitTwentyPerMinute(t *testing.T) {
	g, clock := newGovernor(t)
	chat := Policy{Name: "chat", Window: time.Minute, Max: 20}
	ctx := context.Background()

	first, err := g.Admit(ctx, chat, "1.2.3.4-curl")
	require.NoError(t, err)
	require.True(t, first.Allowed)
	assert.Equal(t, 19, first.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), first.ResetAt)

	for i := 2; i <= 20; i++ {
		clock.Advance(time.Second)
		d, err := g.Admit(ctx, chat, "1.2.3.4-curl")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 20-i, d.Remaining)
		assert.Equal(t, first.ResetAt, d.ResetAt)
	}

	clock.Advance(time.Second)
	d, err := g.Admit(ctx, chat, "1.2.3.4-curl")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, first.ResetAt, d.ResetAt)
	assert.Equal(t, 40*time.Second, d.ResetAt.Sub(clock.Now()))
}

func TestAdmitResetsAfterWindow(t *testing.T) {
	g, clock := newGovernor(t)
	p := Policy{Name: "tasks", Window: time.Minute, Max: 2}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := g.Admit(ctx, p, "id")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, err := g.Admit(ctx, p, "id")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	clock.Advance(time.Minute)
	d, err = g.Admit(ctx, p, "id")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), d.ResetAt)
}

func TestPoliciesDoNotShareCounters(t *testing.T) {
	g, _ := newGovernor(t)
	ctx := context.Background()
	chat := Policy{Name: "chat", Window: time.Minute, Max: 1}
	tasks := Policy{Name: "tasks", Window: time.Minute, Max: 1}

	d, err := g.Admit(ctx, chat, "same")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = g.Admit(ctx, tasks, "same")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = g.Admit(ctx, chat, "same")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration, int, time.Time) (domain.RateDecision, error) {
	return domain.RateDecision{}, errors.New("connection refused")
}

func TestAdmitPropagatesStoreErrors(t *testing.T) {
	g := NewGovernor(failingStore{})
	_, err := g.Admit(context.Background(), Policy{Name: "chat", Window: time.Minute, Max: 1}, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAdmitRejectsEmptyPolicy(t *testing.T) {
	g, _ := newGovernor(t)
	_, err := g.Admit(context.Background(), Policy{Name: "broken"}, "x")
	require.Error(t, err)
}

func TestClientIdentifier(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		ua   string
		want string
	}{
		{"address and agent", "203.0.113.7", "ios/1.2", "203.0.113.7-ios/1.2"},
		{"padded address", " 198.51.100.2 ", "curl/8", "198.51.100.2-curl/8"},
		{"nothing", "", "", "unknown-unknown"},
		{"no agent", "1.1.1.1", "", "1.1.1.1-unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientIdentifier(tt.ip, tt.ua))
		})
	}
}
