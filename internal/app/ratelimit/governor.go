// Package ratelimit admits or rejects requests under named fixed-window
// policies. Counting is delegated to a domain.RateStore so the same policy can
// run against process memory or a shared Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

// Policy is a named budget: at most Max admissions per Window per identifier.
type Policy struct {
	Name   string
	Window time.Duration
	Max    int
}

type Governor struct {
	store domain.RateStore
	now   func() time.Time
}

func NewGovernor(store domain.RateStore) *Governor {
	return &Governor{store: store, now: time.Now}
}

// Admit counts one attempt by identifier against policy. Keys are scoped by
// policy name, so two policies never share a counter.
func (g *Governor) Admit(ctx context.Context, p Policy, identifier string) (domain.RateDecision, error) {
	if p.Max <= 0 || p.Window <= 0 {
		return domain.RateDecision{}, fmt.Errorf("rate policy %q: window and max must be positive", p.Name)
	}

	d, err := g.store.Hit(ctx, Key(p.Name, identifier), p.Window, p.Max, g.now())
	if err != nil {
		observability.RateLimitDecisions.WithLabelValues(p.Name, "error").Inc()
		return domain.RateDecision{}, fmt.Errorf("rate policy %q: %w", p.Name, err)
	}

	outcome := "allowed"
	if !d.Allowed {
		outcome = "rejected"
		observability.LoggerFromContext(ctx).Info("rate limit exceeded",
			"policy", p.Name,
			"identifier", identifier,
			"reset_at", d.ResetAt,
		)
	}
	observability.RateLimitDecisions.WithLabelValues(p.Name, outcome).Inc()
	return d, nil
}

func Key(policy, identifier string) string {
	return policy + ":" + identifier
}

// ClientIdentifier joins the client address and user agent into one key.
// ip must already be resolved against the trusted proxy list; raw forwarding
// headers are client-controlled.
func ClientIdentifier(ip, userAgent string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	if userAgent == "" {
		userAgent = "unknown"
	}
	return ip + "-" + userAgent
}
