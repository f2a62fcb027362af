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

type productRepository struct {
	products *mongo.Collection
	upvotes  *mongo.Collection
	comments *mongo.Collection
	tx       *TxRunner
}

// NewProductRepository создает репозиторий продуктов.
// Индексы: (status, created_at) для ленты, (submitted_by, created_at) для профиля, category для статистики
func NewProductRepository(db *mongo.Database, tx *TxRunner) ProductRepository {
	products := db.Collection(productsCollection)

	ensureIndexes(products, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_created_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "submitted_by", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("submitted_by_created_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("category_idx"),
		},
	})

	return &productRepository{
		products: products,
		upvotes:  db.Collection(upvotesCollection),
		comments: db.Collection(commentsCollection),
		tx:       tx,
	}
}

// Create сохраняет новый продукт со счетчиком голосов 0
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, productsCollection)

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.UpvoteCount = 0

	result, err := r.products.InsertOne(ctx, product)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		product.ID = oid
	}

	return nil
}

// GetByID получает продукт по ID в любом статусе
func (r *productRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	objectID, err := parseObjectID(id, ErrProductNotFound)
	if err != nil {
		return nil, err
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, productsCollection)

	var product entity.Product
	err = r.products.FindOne(ctx, bson.M{"_id": objectID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			timer.Done(nil)
			return nil, ErrProductNotFound
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	timer.Done(nil)

	return &product, nil
}

// GetByIDs получает продукты по списку ID с заданным статусом. Порядок не гарантируется
func (r *productRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID, status entity.ProductStatus) ([]entity.Product, error) {
	if len(ids) == 0 {
		return []entity.Product{}, nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}}
	if status != "" {
		filter["status"] = status
	}

	return r.find(ctx, filter, options.Find())
}

// List получает продукты по фильтру, новые первыми
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]entity.Product, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.SubmittedBy != "" {
		query["submitted_by"] = NormalizeUserRef(filter.SubmittedBy)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, query, opts)
}

func (r *productRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]entity.Product, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, productsCollection)

	cursor, err := r.products.Find(ctx, filter, opts)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []entity.Product{}
	err = cursor.All(ctx, &products)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, nil
}

// UpdateStatus выставляет итоговый статус модерации.
// Условие status=pending в фильтре делает переход атомарным при параллельных запросах
func (r *productRepository) UpdateStatus(ctx context.Context, id string, status entity.ProductStatus) (*entity.Product, error) {
	objectID, err := parseObjectID(id, ErrProductNotFound)
	if err != nil {
		return nil, err
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, productsCollection)

	filter := bson.M{"_id": objectID, "status": entity.StatusPending}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product entity.Product
	err = r.products.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err == nil {
		timer.Done(nil)
		return &product, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		timer.Done(err)
		return nil, fmt.Errorf("failed to update product status: %w", err)
	}
	timer.Done(nil)

	// Документ не подошел под фильтр: либо его нет, либо статус уже выставлен
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrStatusConflict
}

// Delete удаляет продукт, его голоса и комментарии в одной транзакции
func (r *productRepository) Delete(ctx context.Context, id string) error {
	objectID, err := parseObjectID(id, ErrProductNotFound)
	if err != nil {
		return err
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, productsCollection)

	err = r.tx.Run(ctx, func(ctx context.Context) error {
		result, err := r.products.DeleteOne(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		if result.DeletedCount == 0 {
			return ErrProductNotFound
		}

		if _, err := r.upvotes.DeleteMany(ctx, bson.M{"product_id": objectID}); err != nil {
			return fmt.Errorf("failed to delete product upvotes: %w", err)
		}

		if _, err := r.comments.DeleteMany(ctx, bson.M{"product_id": objectID}); err != nil {
			return fmt.Errorf("failed to delete product comments: %w", err)
		}

		return nil
	})

	if errors.Is(err, ErrProductNotFound) {
		timer.Done(nil)
		return err
	}
	timer.Done(err)

	return err
}

// CountByCategory считает продукты с заданным статусом по категориям
func (r *productRepository) CountByCategory(ctx context.Context, status entity.ProductStatus) ([]entity.CategoryStat, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpAggregate, productsCollection)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: status}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.products.Aggregate(ctx, pipeline)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer cursor.Close(ctx)

	stats := []entity.CategoryStat{}
	err = cursor.All(ctx, &stats)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode category stats: %w", err)
	}

	return stats, nil
}

// CountByStatus считает продукты в каждом статусе модерации
func (r *productRepository) CountByStatus(ctx context.Context) (map[entity.ProductStatus]int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpAggregate, productsCollection)

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.products.Aggregate(ctx, pipeline)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to aggregate product statuses: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status entity.ProductStatus `bson:"_id"`
		Count  int64                `bson:"count"`
	}
	err = cursor.All(ctx, &rows)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode product statuses: %w", err)
	}

	counts := make(map[entity.ProductStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
