package handler

import (
	"context"
	"sync"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/events"
	pktNats "ai-docqa-be/pkg/nats"
)

const (
	eventModule      = "EVENTS"
	eventDurableName = "docqa-audit"
)

// DomainEventHandler consumes document and answer events from JetStream and
// writes them to the audit log. It keeps per-type counters for inspection.
type DomainEventHandler struct {
	logger logger.ILogger

	mu     sync.Mutex
	counts map[string]int
}

func NewDomainEventHandler(log logger.ILogger) *DomainEventHandler {
	return &DomainEventHandler{logger: log, counts: make(map[string]int)}
}

// Start subscribes to every docqa subject.
func (h *DomainEventHandler) Start(ctx context.Context, sub *pktNats.Subscriber) error {
	return sub.Subscribe(ctx, pktNats.SubjectPrefix+">", eventDurableName, h.Handle)
}

func (h *DomainEventHandler) Handle(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	h.counts[event.EventType()]++
	h.mu.Unlock()

	payload := event.Payload()
	switch event.EventType() {
	case events.TypeDocumentFailed:
		h.logger.Warn(eventModule, "Document processing failed", payload)
	case events.TypeDocumentProcessed, events.TypeAnswerGenerated:
		h.logger.Info(eventModule, event.EventType(), payload)
	default:
		h.logger.Debug(eventModule, "Unhandled event type", map[string]interface{}{"type": event.EventType()})
	}
	return nil
}

func (h *DomainEventHandler) Counts() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}
