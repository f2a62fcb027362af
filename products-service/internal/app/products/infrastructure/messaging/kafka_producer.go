package messaging

import (
	"context"
	"fmt"
	"time"

	"launchpad/pkg/logger"
	"launchpad/pkg/metrics"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const serviceName = "products-service"

// messageWriter часть kafka.Writer, которую использует продюсер
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer публикует события продуктов.
// Запись идет через circuit breaker: при недоступном брокере запросы
// не ждут таймаута, а сразу получают ошибку открытого breaker
type KafkaProducer struct {
	writer  messageWriter
	topic   string
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return newKafkaProducer(writer, topic)
}

func newKafkaProducer(writer messageWriter, topic string) *KafkaProducer {
	return &KafkaProducer{
		writer:  writer,
		topic:   topic,
		breaker: newBreaker("kafka-" + topic),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("Circuit breaker state changed")
	}

	return gobreaker.NewCircuitBreaker[struct{}](st)
}

// PublishMessage отправляет сообщение с ключом (ID продукта), чтобы события
// одного продукта попадали в одну партицию
func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	timer := metrics.NewKafkaProduceTimer(serviceName, p.topic)

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, message)
	})
	if err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	timer.Success()
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
