package service

import (
	"context"

	"launchpad/products-service/internal/app/products/entity"
)

type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, author entity.Identity, req *entity.CreateProductRequest) (*entity.Product, error)
	GetProduct(ctx context.Context, productID, viewerID string) (*entity.ProductResponse, error)
	ListProducts(ctx context.Context, category string) ([]entity.Product, error)
	GetUserProducts(ctx context.Context, userID string) ([]entity.Product, error)
	GetUserUpvotedProducts(ctx context.Context, userID string) ([]entity.Product, error)
	GetCategories(ctx context.Context) ([]entity.CategoryStat, error)
	DeleteProduct(ctx context.Context, requester entity.Identity, productID string) error
	ToggleUpvote(ctx context.Context, userID, productID string) (*entity.UpvoteResult, error)
}

type CommentServiceInterface interface {
	CreateComment(ctx context.Context, author entity.Identity, req *entity.CreateCommentRequest) (*entity.Comment, error)
	GetProductComments(ctx context.Context, productID string) ([]entity.Comment, error)
	GetUserComments(ctx context.Context, userID string) ([]entity.Comment, error)
}

type AdminServiceInterface interface {
	ListProducts(ctx context.Context, status string) ([]entity.Product, error)
	UpdateProductStatus(ctx context.Context, productID string, status entity.ProductStatus) (*entity.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	GetDashboardStats(ctx context.Context) (*entity.DashboardStats, error)
}
