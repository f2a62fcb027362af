package repository

import (
	"context"
	"errors"

	"launchpad/products-service/internal/app/products/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrProductNotFound = errors.New("product not found")
	ErrCommentNotFound = errors.New("comment not found")
	// ErrStatusConflict - продукт уже прошел модерацию, статус не pending
	ErrStatusConflict = errors.New("product status already set")
	// ErrDuplicateUpvote - уникальный индекс (user_id, product_id) отклонил вставку:
	// параллельный запрос того же пользователя успел создать голос
	ErrDuplicateUpvote = errors.New("upvote already exists")
)

// ProductFilter - условия выборки продуктов, пустые поля не учитываются
type ProductFilter struct {
	Status      entity.ProductStatus
	Category    string
	SubmittedBy string
}

// ProductRepository определяет методы для работы с продуктами в MongoDB
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID, status entity.ProductStatus) ([]entity.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]entity.Product, error)
	// UpdateStatus меняет статус только у продукта в статусе pending
	UpdateStatus(ctx context.Context, id string, status entity.ProductStatus) (*entity.Product, error)
	// Delete удаляет продукт вместе с его голосами и комментариями
	Delete(ctx context.Context, id string) error
	CountByCategory(ctx context.Context, status entity.ProductStatus) ([]entity.CategoryStat, error)
	CountByStatus(ctx context.Context) (map[entity.ProductStatus]int64, error)
}

// UpvoteRepository - реестр голосов и связанный с ним счетчик upvote_count
type UpvoteRepository interface {
	Toggle(ctx context.Context, userID string, productID primitive.ObjectID) (*entity.UpvoteResult, error)
	Exists(ctx context.Context, userID string, productID primitive.ObjectID) (bool, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.Upvote, error)
	Count(ctx context.Context) (int64, error)
}

// CommentRepository определяет методы для работы с комментариями в MongoDB
type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	GetTopLevelByProductID(ctx context.Context, productID primitive.ObjectID) ([]entity.Comment, error)
	GetReplies(ctx context.Context, parentIDs []primitive.ObjectID) ([]entity.Comment, error)
	GetByAuthorID(ctx context.Context, authorID string) ([]entity.Comment, error)
	Count(ctx context.Context) (int64, error)
}
