package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"launchpad/pkg/logger"
	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/infrastructure"
)

// eventPublisher отправляет события продуктов в Kafka.
// Ошибки публикации только логируются: данные уже сохранены, а счетчики чинит worker
type eventPublisher struct {
	producer infrastructure.MessagePublisher
}

func (p eventPublisher) publish(ctx context.Context, event entity.ProductEvent) {
	if p.producer == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := p.send(ctx, event); err != nil {
		logger.Error().
			Err(err).
			Str("event_type", event.EventType).
			Str("product_id", event.ProductID).
			Msg("Failed to publish product event")
	}
}

func (p eventPublisher) send(ctx context.Context, event entity.ProductEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal product event: %w", err)
	}

	// Ключ = ProductID, события одного продукта идут в одну партицию
	if err := p.producer.PublishMessage(ctx, event.ProductID, eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}
