package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/apperror"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	consumerModule = "CONSUMER"
	// deliveries per message before a transient failure is given up on
	maxDeliveries = 3
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// DocumentProcessor is the slice of the document service the consumer drives.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, documentId uuid.UUID) (*ProcessResult, error)
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	processor  DocumentProcessor
	logger     logger.ILogger

	mu       sync.Mutex
	attempts map[string]int
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	processor DocumentProcessor,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		processor:  processor,
		logger:     log,
		attempts:   make(map[string]int),
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage acks anything a redelivery cannot fix (bad payloads,
// precondition failures, terminal errors) and nacks transient failures.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishProcessDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	res, err := cs.processor.ProcessDocument(ctx, payload.DocumentId)
	switch {
	case err == nil:
		cs.logger.Info(consumerModule, "Document processed from queue", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"chunks":      len(res.Chunks),
		})
		msg.Ack()
	case errors.Is(err, ErrDocumentNotFound),
		errors.Is(err, ErrDocumentProcessing),
		errors.Is(err, ErrDocumentProcessed):
		cs.logger.Warn(consumerModule, "Skipping document", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"reason":      err.Error(),
		})
		msg.Ack()
	case apperror.IsTransient(err) && cs.redeliver(msg.UUID):
		cs.logger.Warn(consumerModule, "Transient failure, requeueing", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	default:
		cs.logger.Error(consumerModule, "Document processing failed", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Ack()
	}
	cs.forget(msg.UUID)
}

// redeliver counts a delivery and reports whether another one is allowed.
func (cs *consumerService) redeliver(id string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.attempts[id]++
	return cs.attempts[id] < maxDeliveries
}

func (cs *consumerService) forget(id string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.attempts, id)
}
