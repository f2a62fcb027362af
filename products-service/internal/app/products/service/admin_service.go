package service

import (
	"context"
	"errors"
	"fmt"

	"launchpad/pkg/metrics"
	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/infrastructure"
	"launchpad/products-service/internal/app/products/repository"
	"launchpad/products-service/internal/app/products/util"
)

// AdminService - модерация продуктов и сводная статистика
type AdminService struct {
	productRepo repository.ProductRepository
	upvoteRepo  repository.UpvoteRepository
	commentRepo repository.CommentRepository
	cache       util.CategoryCache
	events      eventPublisher
}

func NewAdminService(
	productRepo repository.ProductRepository,
	upvoteRepo repository.UpvoteRepository,
	commentRepo repository.CommentRepository,
	cache util.CategoryCache,
	kafkaProducer infrastructure.MessagePublisher,
) *AdminService {
	return &AdminService{
		productRepo: productRepo,
		upvoteRepo:  upvoteRepo,
		commentRepo: commentRepo,
		cache:       cache,
		events:      eventPublisher{producer: kafkaProducer},
	}
}

// ListProducts возвращает продукты в любом статусе, пустой status - все
func (s *AdminService) ListProducts(ctx context.Context, status string) ([]entity.Product, error) {
	filter := repository.ProductFilter{Status: entity.ProductStatus(status)}
	if status != "" && !filter.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// UpdateProductStatus завершает модерацию: pending -> approved | rejected.
// Итоговые статусы не меняются
func (s *AdminService) UpdateProductStatus(ctx context.Context, productID string, status entity.ProductStatus) (*entity.Product, error) {
	if status != entity.StatusApproved && status != entity.StatusRejected {
		return nil, ErrInvalidStatus
	}

	product, err := s.productRepo.UpdateStatus(ctx, productID, status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repository.ErrStatusConflict):
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("failed to update product status: %w", err)
	}

	metrics.ProductStatusChanges.WithLabelValues(string(status)).Inc()
	invalidateCategories(ctx, s.cache)

	s.events.publish(ctx, entity.ProductEvent{
		EventType: entity.EventTypeProductStatusChanged,
		ProductID: product.ID.Hex(),
		Status:    product.Status,
	})

	return product, nil
}

// DeleteProduct удаляет любой продукт без проверки владельца
func (s *AdminService) DeleteProduct(ctx context.Context, productID string) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	return deleteProduct(ctx, s.productRepo, s.cache, s.events, product, "")
}

func (s *AdminService) GetDashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	byStatus, err := s.productRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	upvotes, err := s.upvoteRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count upvotes: %w", err)
	}

	comments, err := s.commentRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	stats := &entity.DashboardStats{
		PendingProducts:  byStatus[entity.StatusPending],
		ApprovedProducts: byStatus[entity.StatusApproved],
		RejectedProducts: byStatus[entity.StatusRejected],
		TotalUpvotes:     upvotes,
		TotalComments:    comments,
	}
	stats.TotalProducts = stats.PendingProducts + stats.ApprovedProducts + stats.RejectedProducts

	return stats, nil
}
