package repository

import (
	"context"
	"fmt"

	"launchpad/background-worker-service/internal/app/background-worker/entity"
	"launchpad/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	productsCollection = "products"
	upvotesCollection  = "upvotes"
)

type counterRepository struct {
	products *mongo.Collection
}

// NewCounterRepository создает репозиторий счетчиков поверх базы Products Service
func NewCounterRepository(db *mongo.Database) CounterRepository {
	return &counterRepository{products: db.Collection(productsCollection)}
}

// driftPipeline считает размер реестра для каждого продукта из match и оставляет только расхождения.
// Голоса считаются через $count внутри $lookup, массив голосов в память не попадает
func driftPipeline(match bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: upvotesCollection},
			{Key: "let", Value: bson.D{{Key: "pid", Value: "$_id"}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$product_id", "$$pid"}}}},
				}}},
				bson.D{{Key: "$count", Value: "n"}},
			}},
			{Key: "as", Value: "ledger"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "upvote_count", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$upvote_count", 0}}}},
			{Key: "actual", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$ledger.n", 0}}},
				0,
			}}}},
		}}},
		{{Key: "$match", Value: bson.D{
			{Key: "$expr", Value: bson.D{{Key: "$ne", Value: bson.A{"$upvote_count", "$actual"}}}},
		}}},
	}
}

func (r *counterRepository) FindDrift(ctx context.Context) ([]entity.CounterDrift, int64, error) {
	checked, err := r.products.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	drifts, err := r.aggregate(ctx, driftPipeline(bson.D{}))
	if err != nil {
		return nil, 0, err
	}

	return drifts, checked, nil
}

func (r *counterRepository) FindProductDrift(ctx context.Context, productID primitive.ObjectID) (*entity.CounterDrift, error) {
	count, err := r.products.CountDocuments(ctx, bson.D{{Key: "_id", Value: productID}})
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return nil, ErrProductNotFound
	}

	drifts, err := r.aggregate(ctx, driftPipeline(bson.D{{Key: "_id", Value: productID}}))
	if err != nil {
		return nil, err
	}
	if len(drifts) == 0 {
		return nil, nil
	}

	return &drifts[0], nil
}

func (r *counterRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]entity.CounterDrift, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpAggregate, productsCollection)

	cursor, err := r.products.Aggregate(ctx, pipeline)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to aggregate upvote counters: %w", err)
	}
	defer cursor.Close(ctx)

	drifts := []entity.CounterDrift{}
	err = cursor.All(ctx, &drifts)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode upvote counters: %w", err)
	}

	return drifts, nil
}

// SetUpvoteCount - compare-and-set: параллельный голос меняет счетчик, и тогда запись пропускается
func (r *counterRepository) SetUpvoteCount(ctx context.Context, productID primitive.ObjectID, stored, actual int64) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, productsCollection)

	filter := bson.D{{Key: "_id", Value: productID}}
	if stored == 0 {
		// Поле может отсутствовать у старых документов
		filter = append(filter, bson.E{Key: "upvote_count", Value: bson.D{{Key: "$in", Value: bson.A{0, nil}}}})
	} else {
		filter = append(filter, bson.E{Key: "upvote_count", Value: stored})
	}

	result, err := r.products.UpdateOne(ctx, filter, bson.D{
		{Key: "$set", Value: bson.D{{Key: "upvote_count", Value: actual}}},
	})
	timer.Done(err)
	if err != nil {
		return false, fmt.Errorf("failed to update upvote counter: %w", err)
	}

	return result.ModifiedCount > 0, nil
}
