package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-docqa-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IPublisherService interface {
	PublishProcessDocument(ctx context.Context, documentId uuid.UUID) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (s *publisherService) PublishProcessDocument(ctx context.Context, documentId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishProcessDocumentMessage{DocumentId: documentId})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := s.publisher.Publish(s.topicName, msg); err != nil {
		return fmt.Errorf("failed to publish process request: %w", err)
	}
	return nil
}
