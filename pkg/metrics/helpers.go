package metrics

import (
	"time"
)

// stopwatch - общая часть таймеров: момент старта и прошедшее время в секундах
type stopwatch time.Time

func startStopwatch() stopwatch {
	return stopwatch(time.Now())
}

func (s stopwatch) seconds() float64 {
	return time.Since(time.Time(s)).Seconds()
}

type RedisOperation string

const (
	RedisOpGet      RedisOperation = "get"
	RedisOpSet      RedisOperation = "set"
	RedisOpDel      RedisOperation = "del"
	RedisOpExists   RedisOperation = "exists"
	RedisOpPipeline RedisOperation = "pipeline"
)

// RedisTimer измеряет одну операцию Redis. Использование:
//
//	timer := metrics.NewRedisTimer("auth-service", metrics.RedisOpGet)
//	err := client.Get(ctx, key).Err()
//	timer.Done(err)
type RedisTimer struct {
	service   string
	operation RedisOperation
	started   stopwatch
}

func NewRedisTimer(service string, op RedisOperation) *RedisTimer {
	return &RedisTimer{service: service, operation: op, started: startStopwatch()}
}

// Done фиксирует длительность и, если err != nil, ошибку операции.
// redis.Nil ошибкой не считается, вызывающий код передает nil
func (rt *RedisTimer) Done(err error) {
	RedisOperationDuration.WithLabelValues(rt.service, string(rt.operation)).Observe(rt.started.seconds())
	if err != nil {
		RedisErrors.WithLabelValues(rt.service, string(rt.operation)).Inc()
	}
}

func RecordCacheHit(service, keyPrefix string) {
	RedisCacheHits.WithLabelValues(service, keyPrefix).Inc()
}

func RecordCacheMiss(service, keyPrefix string) {
	RedisCacheMisses.WithLabelValues(service, keyPrefix).Inc()
}

// RecordKafkaMessageConsumed учитывает обработанное сообщение и время его обработки
func RecordKafkaMessageConsumed(service, topic, group string, processingDuration time.Duration) {
	KafkaMessagesConsumed.WithLabelValues(service, topic, group).Inc()
	KafkaConsumeDuration.WithLabelValues(service, topic).Observe(processingDuration.Seconds())
}

// RecordKafkaError учитывает ошибку Kafka. operation: produce, fetch, commit, process
func RecordKafkaError(service, topic, operation string) {
	KafkaErrors.WithLabelValues(service, topic, operation).Inc()
}

type KafkaProduceTimer struct {
	service string
	topic   string
	started stopwatch
}

func NewKafkaProduceTimer(service, topic string) *KafkaProduceTimer {
	return &KafkaProduceTimer{service: service, topic: topic, started: startStopwatch()}
}

func (kt *KafkaProduceTimer) Success() {
	KafkaMessagesProduced.WithLabelValues(kt.service, kt.topic).Inc()
	KafkaProduceDuration.WithLabelValues(kt.service, kt.topic).Observe(kt.started.seconds())
}

func (kt *KafkaProduceTimer) Error() {
	RecordKafkaError(kt.service, kt.topic, "produce")
}

type DbOperation string

const (
	DbOpSelect    DbOperation = "select"
	DbOpInsert    DbOperation = "insert"
	DbOpUpdate    DbOperation = "update"
	DbOpDelete    DbOperation = "delete"
	DbOpAggregate DbOperation = "aggregate"
)

// DbTimer измеряет запрос к PostgreSQL или MongoDB. table - таблица или коллекция
type DbTimer struct {
	service   string
	operation DbOperation
	table     string
	started   stopwatch
}

func NewDbTimer(service string, op DbOperation, table string) *DbTimer {
	return &DbTimer{service: service, operation: op, table: table, started: startStopwatch()}
}

// Done фиксирует длительность и, если err != nil, ошибку операции.
// Ожидаемые "не найдено" вызывающий код передает как nil
func (dt *DbTimer) Done(err error) {
	DbQueryDuration.WithLabelValues(dt.service, string(dt.operation), dt.table).Observe(dt.started.seconds())
	if err != nil {
		DbErrors.WithLabelValues(dt.service, string(dt.operation)).Inc()
	}
}
