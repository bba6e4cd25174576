package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/events"
	"github.com/whikwon/nexusnote/pkg/observability"
)

// Instruments bundles the tracer and metric sinks shared by the services.
// Every field may be nil.
type Instruments struct {
	Tracer    *observability.Tracer
	Metrics   *observability.Metrics
	Collector *observability.Collector
}

// run traces fn and records its latency and outcome under op
func (in *Instruments) run(ctx context.Context, op string, fn func(context.Context) error) error {
	if in == nil {
		return fn(ctx)
	}

	start := time.Now()
	err := in.Tracer.TraceFunction(ctx, op, fn)
	in.Metrics.RecordOperation(ctx, op, time.Since(start), err)
	in.Collector.ObserveOperation(op, err)
	return err
}

type eventSource interface {
	GetUncommittedEvents() []events.DomainEvent
	MarkEventsAsCommitted()
}

// publishEvents sends pending events after a committed write.
// The write already succeeded, so a publish failure is logged only.
func publishEvents(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, sources ...eventSource) {
	var pending []events.DomainEvent
	for _, src := range sources {
		pending = append(pending, src.GetUncommittedEvents()...)
		src.MarkEventsAsCommitted()
	}
	if len(pending) == 0 || publisher == nil {
		return
	}
	if err := publisher.PublishBatch(ctx, pending); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Error(err),
			zap.Int("count", len(pending)),
		)
	}
}
