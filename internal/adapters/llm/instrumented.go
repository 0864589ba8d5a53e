package llm

import (
	"context"
	"time"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

// Instrumented records latency and outcome of every completion call.
type Instrumented struct {
	next domain.CompletionClient
}

func NewInstrumented(next domain.CompletionClient) *Instrumented {
	return &Instrumented{next: next}
}

func (i *Instrumented) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	start := time.Now()
	out, err := i.next.Complete(ctx, req)
	elapsed := time.Since(start)

	observability.CompletionLatency.WithLabelValues(req.Purpose).Observe(elapsed.Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
		observability.LoggerFromContext(ctx).Warn("completion failed",
			"purpose", req.Purpose,
			"latency_ms", elapsed.Milliseconds(),
			"error", err,
		)
	}
	observability.CompletionRequests.WithLabelValues(req.Purpose, outcome).Inc()
	return out, err
}
