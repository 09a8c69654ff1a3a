package audit

import (
	"context"
	"fmt"

	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/requestcontext"
)

// Store is the durable sink behind the worker.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher hands events to the background worker without blocking the
// request path. A full buffer drops the event and reports ErrUnavailable.
type Publisher struct {
	inbox chan Event
}

func NewPublisher(buffer int) *Publisher {
	if buffer < 1 {
		buffer = 1
	}
	return &Publisher{inbox: make(chan Event, buffer)}
}

// Emit stamps time and request ID from ctx and enqueues the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return fmt.Errorf("audit buffer full: %w", sentinel.ErrUnavailable)
	}
}

// Inbox is the channel the worker drains.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
