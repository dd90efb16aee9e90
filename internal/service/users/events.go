package users

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"users_api/internal/model"
)

const (
	eventBuffer    = 256
	publishTimeout = 5 * time.Second
)

type queuedEvent struct {
	event model.UserEvent
	span  trace.SpanContext
}

// enqueue hands the event to RunEvents without blocking. When the buffer is
// full the event is dropped and logged. s.mu must be held.
func (s *Service) enqueue(ctx context.Context, eventType string, user model.User) {
	q := queuedEvent{
		event: model.UserEvent{
			Type:       eventType,
			User:       user,
			OccurredAt: s.now().UTC(),
		},
		span: trace.SpanContextFromContext(ctx),
	}
	select {
	case s.events <- q:
	default:
		s.log.Warn("user event dropped, queue full",
			zap.String("type", eventType),
			zap.String("id", user.ID),
		)
	}
}

// RunEvents publishes queued events one at a time, in the order the
// mutations happened, until ctx is done. Events still queued at that point
// are flushed before it returns.
func (s *Service) RunEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.drainEvents()
			return
		case q := <-s.events:
			s.publish(ctx, q)
		}
	}
}

func (s *Service) drainEvents() {
	for {
		select {
		case q := <-s.events:
			s.publish(context.Background(), q)
		default:
			return
		}
	}
}

func (s *Service) publish(ctx context.Context, q queuedEvent) {
	payload, err := json.Marshal(q.event)
	if err != nil {
		s.log.Error("user event marshal failed", zap.String("type", q.event.Type), zap.Error(err))
		return
	}

	if q.span.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, q.span)
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	routingKey := s.routingPrefix + "." + q.event.Type
	if err := s.pub.Publish(pubCtx, payload, routingKey); err != nil {
		s.log.Warn("user event publish failed",
			zap.String("routing_key", routingKey),
			zap.String("id", q.event.User.ID),
			zap.Error(err),
		)
	}
}
