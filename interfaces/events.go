package interfaces

import (
	"context"

	"github.com/customeros/formlayer/dto"
)

type EventPublisher interface {
	PublishSubmissionCaptured(ctx context.Context, message dto.SubmissionCaptured) error
	Close() error
}

type EventListener interface {
	Handle(ctx context.Context, event any) error
	GetEventType() string
	GetQueueName() string
}

type EventSubscriber interface {
	RegisterListener(listener EventListener)
	ListenQueue(queueName string) error
	Close() error
}
