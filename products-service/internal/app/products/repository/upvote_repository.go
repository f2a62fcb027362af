package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"launchpad/pkg/metrics"
	"launchpad/products-service/internal/app/products/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type upvoteRepository struct {
	upvotes  *mongo.Collection
	products *mongo.Collection
	tx       *TxRunner
}

// NewUpvoteRepository создает реестр голосов.
// Уникальный индекс (user_id, product_id) - единственный механизм, гарантирующий один голос на пару
func NewUpvoteRepository(db *mongo.Database, tx *TxRunner) UpvoteRepository {
	upvotes := db.Collection(upvotesCollection)

	ensureIndexes(upvotes, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetName("user_product_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}},
			Options: options.Index().SetName("product_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created_at_idx"),
		},
	})

	return &upvoteRepository{
		upvotes:  upvotes,
		products: db.Collection(productsCollection),
		tx:       tx,
	}
}

// Toggle переключает голос пользователя за продукт и синхронно меняет upvote_count.
// Сначала пытается удалить запись: удаление атомарно, поэтому два параллельных снятия
// не уменьшат счетчик дважды. Если записи не было - вставляет новую.
// Конфликт уникального индекса возвращается как ErrDuplicateUpvote, транзакция при этом откатывается
func (r *upvoteRepository) Toggle(ctx context.Context, userID string, productID primitive.ObjectID) (*entity.UpvoteResult, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, upvotesCollection)
	userRef := NormalizeUserRef(userID)

	var result entity.UpvoteResult
	err := r.tx.Run(ctx, func(ctx context.Context) error {
		filter := bson.M{"user_id": userRef, "product_id": productID}

		deleted, err := r.upvotes.DeleteOne(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to delete upvote: %w", err)
		}

		if deleted.DeletedCount > 0 {
			count, err := r.adjustCounter(ctx, productID, -1)
			if err != nil {
				return err
			}
			result = entity.UpvoteResult{IsUpvoted: false, UpvoteCount: count}
			return nil
		}

		upvote := entity.Upvote{
			UserID:    userRef,
			ProductID: productID,
			CreatedAt: time.Now(),
		}
		if _, err := r.upvotes.InsertOne(ctx, upvote); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicateUpvote
			}
			return fmt.Errorf("failed to insert upvote: %w", err)
		}

		count, err := r.adjustCounter(ctx, productID, 1)
		if err != nil {
			return err
		}
		result = entity.UpvoteResult{IsUpvoted: true, UpvoteCount: count}
		return nil
	})

	if errors.Is(err, ErrDuplicateUpvote) || errors.Is(err, ErrProductNotFound) {
		timer.Done(nil)
		return nil, err
	}
	timer.Done(err)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// adjustCounter меняет upvote_count на delta и возвращает новое значение.
// Уменьшение не опускает счетчик ниже нуля
func (r *upvoteRepository) adjustCounter(ctx context.Context, productID primitive.ObjectID, delta int64) (int64, error) {
	filter := bson.M{"_id": productID}
	if delta < 0 {
		filter["upvote_count"] = bson.M{"$gt": 0}
	}

	update := bson.M{"$inc": bson.M{"upvote_count": delta}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"upvote_count": 1})

	var product entity.Product
	err := r.products.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if delta < 0 {
				// Счетчик уже 0 или продукт удален параллельно - голос все равно снят
				return 0, nil
			}
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to update upvote counter: %w", err)
	}

	return product.UpvoteCount, nil
}

// Exists проверяет, голосовал ли пользователь за продукт
func (r *upvoteRepository) Exists(ctx context.Context, userID string, productID primitive.ObjectID) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, upvotesCollection)

	filter := bson.M{"user_id": NormalizeUserRef(userID), "product_id": productID}
	count, err := r.upvotes.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	timer.Done(err)
	if err != nil {
		return false, fmt.Errorf("failed to check upvote: %w", err)
	}

	return count > 0, nil
}

// GetByUserID получает голоса пользователя, последние первыми
func (r *upvoteRepository) GetByUserID(ctx context.Context, userID string) ([]entity.Upvote, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, upvotesCollection)

	filter := bson.M{"user_id": NormalizeUserRef(userID)}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.upvotes.Find(ctx, filter, opts)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to find upvotes: %w", err)
	}
	defer cursor.Close(ctx)

	upvotes := []entity.Upvote{}
	err = cursor.All(ctx, &upvotes)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode upvotes: %w", err)
	}

	return upvotes, nil
}

// Count возвращает общее число голосов
func (r *upvoteRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.upvotes.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count upvotes: %w", err)
	}
	return count, nil
}
