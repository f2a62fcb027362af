package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"launchpad/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	serviceName = "products-service"

	productsCollection = "products"
	upvotesCollection  = "upvotes"
	commentsCollection = "comments"
)

// TxRunner выполняет функцию в транзакции MongoDB.
// Транзакции требуют replica set; при enabled=false функция выполняется без сессии
type TxRunner struct {
	client  *mongo.Client
	enabled bool
}

// NewTxRunner создает исполнитель транзакций для клиента MongoDB
func NewTxRunner(client *mongo.Client, enabled bool) *TxRunner {
	return &TxRunner{client: client, enabled: enabled}
}

// Run выполняет fn в транзакции. Ошибка fn отменяет транзакцию и возвращается как есть,
// TransientTransactionError драйвер повторяет сам
func (t *TxRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if t == nil || !t.enabled {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// NormalizeUserRef приводит ссылку на пользователя к единому виду:
// UUID - к канонической строке в нижнем регистре, прочие идентификаторы - без пробелов по краям
func NormalizeUserRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return id.String()
	}
	return ref
}

// parseObjectID разбирает hex-идентификатор; некорректный id эквивалентен отсутствующему документу
func parseObjectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}

// ensureIndexes создает индексы коллекции. Ошибка не прерывает запуск - индекс может уже существовать
func ensureIndexes(collection *mongo.Collection, models []mongo.IndexModel) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
		logger.Warn().
			Err(err).
			Str("collection", collection.Name()).
			Msg("Failed to create indexes")
	}
}
