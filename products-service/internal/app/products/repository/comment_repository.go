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

type commentRepository struct {
	collection *mongo.Collection
}

// NewCommentRepository создает репозиторий комментариев.
// Ответы хранят только parent_id, список ответов строится запросом по индексу parent_id
func NewCommentRepository(db *mongo.Database) CommentRepository {
	collection := db.Collection(commentsCollection)

	ensureIndexes(collection, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "product_id", Value: 1},
				{Key: "parent_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("product_parent_created_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("parent_created_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("author_created_at_idx"),
		},
	})

	return &commentRepository{collection: collection}
}

// Create сохраняет комментарий одной записью, родительский документ не меняется
func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, commentsCollection)

	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	comment.AuthorID = NormalizeUserRef(comment.AuthorID)

	result, err := r.collection.InsertOne(ctx, comment)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		comment.ID = oid
	}

	return nil
}

// GetByID получает комментарий по ID
func (r *commentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	objectID, err := parseObjectID(id, ErrCommentNotFound)
	if err != nil {
		return nil, err
	}

	var comment entity.Comment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return &comment, nil
}

// GetTopLevelByProductID получает комментарии верхнего уровня по продукту, старые первыми.
// Фильтр parent_id: null совпадает и с null, и с отсутствующим полем
func (r *commentRepository) GetTopLevelByProductID(ctx context.Context, productID primitive.ObjectID) ([]entity.Comment, error) {
	filter := bson.M{"product_id": productID, "parent_id": nil}
	return r.find(ctx, filter, 1)
}

// GetReplies получает ответы на указанные комментарии одним запросом, старые первыми
func (r *commentRepository) GetReplies(ctx context.Context, parentIDs []primitive.ObjectID) ([]entity.Comment, error) {
	if len(parentIDs) == 0 {
		return []entity.Comment{}, nil
	}

	filter := bson.M{"parent_id": bson.M{"$in": parentIDs}}
	return r.find(ctx, filter, 1)
}

// GetByAuthorID получает комментарии пользователя, новые первыми
func (r *commentRepository) GetByAuthorID(ctx context.Context, authorID string) ([]entity.Comment, error) {
	filter := bson.M{"author_id": NormalizeUserRef(authorID)}
	return r.find(ctx, filter, -1)
}

// Count возвращает общее число комментариев
func (r *commentRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

func (r *commentRepository) find(ctx context.Context, filter bson.M, order int) ([]entity.Comment, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, commentsCollection)

	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: order},
		{Key: "_id", Value: order},
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to find comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []entity.Comment{}
	err = cursor.All(ctx, &comments)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}

	return comments, nil
}
