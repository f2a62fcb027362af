package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"launchpad/background-worker-service/internal/app/background-worker/entity"
	"launchpad/background-worker-service/internal/app/background-worker/service"
	"launchpad/pkg/logger"
	"launchpad/pkg/metrics"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	metricsServiceName = "background-worker"
	maxProcessAttempts = 3
)

// errPoisonMessage - сообщение, которое не станет корректным при повторе
var errPoisonMessage = errors.New("poison message")

// messageReader - часть kafka.Reader, которой пользуется consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// KafkaConsumer слушает product_events и после каждого UPVOTE_TOGGLED
// сверяет счетчик голосов продукта с реестром
type KafkaConsumer struct {
	reader       messageReader
	topic        string
	groupID      string
	reconcileSvc service.ReconcileServiceInterface
	retryDelay   time.Duration
	log          zerolog.Logger
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	reconcileSvc service.ReconcileServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, topic, groupID, reconcileSvc)
}

func newKafkaConsumer(reader messageReader, topic, groupID string, reconcileSvc service.ReconcileServiceInterface) *KafkaConsumer {
	return &KafkaConsumer{
		reader:       reader,
		topic:        topic,
		groupID:      groupID,
		reconcileSvc: reconcileSvc,
		retryDelay:   time.Second,
		log:          logger.With().Str("topic", topic).Str("group_id", groupID).Logger(),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	c.log.Info().Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

// Stop дожидается обработки текущего сообщения и закрывает reader
func (c *KafkaConsumer) Stop() {
	c.log.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		c.log.Error().Err(err).Msg("Failed to close Kafka reader")
	}
	c.log.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			c.log.Error().Err(err).Msg("Error fetching message")
			metrics.RecordKafkaError(metricsServiceName, c.topic, "fetch")
			if !c.wait(c.retryDelay) {
				return
			}
			continue
		}

		c.handle(ctx, message)

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			c.log.Error().
				Err(err).
				Int64("offset", message.Offset).
				Msg("Error committing message")
			metrics.RecordKafkaError(metricsServiceName, c.topic, "commit")
		}
	}
}

// handle обрабатывает сообщение с повторами. Битые сообщения и сообщения,
// не обработанные за maxProcessAttempts, пропускаются: следующий запуск по расписанию
// исправит счетчик в любом случае
func (c *KafkaConsumer) handle(ctx context.Context, message kafka.Message) {
	start := time.Now()

	for attempt := 1; ; attempt++ {
		err := c.processMessage(ctx, message)
		if err == nil {
			metrics.RecordKafkaMessageConsumed(metricsServiceName, c.topic, c.groupID, time.Since(start))
			return
		}

		event := c.log.Error().
			Err(err).
			Int64("offset", message.Offset).
			Int("partition", message.Partition).
			Int("attempt", attempt)

		if errors.Is(err, errPoisonMessage) || attempt >= maxProcessAttempts {
			event.Msg("Skipping message")
			metrics.RecordKafkaError(metricsServiceName, c.topic, "process")
			return
		}

		event.Msg("Error processing message, retrying")
		if !c.wait(c.retryDelay * time.Duration(attempt)) {
			return
		}
	}
}

// wait возвращает false, если consumer остановили во время ожидания
func (c *KafkaConsumer) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.stopChan:
		return false
	case <-timer.C:
		return true
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ProductEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: failed to unmarshal product event: %v", errPoisonMessage, err)
	}

	if event.EventType != entity.EventTypeUpvoteToggled {
		return nil
	}

	c.log.Debug().
		Str("event_type", event.EventType).
		Str("product_id", event.ProductID).
		Int64("offset", message.Offset).
		Msg("Received upvote event")

	_, err := c.reconcileSvc.ReconcileProduct(ctx, event.ProductID)
	switch {
	case err == nil, errors.Is(err, service.ErrProductNotFound):
		return nil
	case errors.Is(err, service.ErrInvalidProductID):
		return fmt.Errorf("%w: product_id %q", errPoisonMessage, event.ProductID)
	default:
		return fmt.Errorf("failed to reconcile product %s: %w", event.ProductID, err)
	}
}

// GetStats возвращает статистику reader
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
