package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"launchpad/pkg/logger"
	"launchpad/pkg/metrics"
	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/infrastructure"
	"launchpad/products-service/internal/app/products/repository"
	"launchpad/products-service/internal/app/products/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultCategoriesTTL = 10 * time.Minute

// Settings - параметры поведения сервиса продуктов
type Settings struct {
	// RequireApproval - новые продукты попадают на модерацию в статусе pending
	RequireApproval    bool
	CategoriesCacheTTL time.Duration
}

// ProductService обрабатывает бизнес-логику продуктов и голосов
type ProductService struct {
	productRepo repository.ProductRepository
	upvoteRepo  repository.UpvoteRepository
	cache       util.CategoryCache
	events      eventPublisher
	settings    Settings
}

func NewProductService(
	productRepo repository.ProductRepository,
	upvoteRepo repository.UpvoteRepository,
	cache util.CategoryCache,
	kafkaProducer infrastructure.MessagePublisher,
	settings Settings,
) *ProductService {
	if settings.CategoriesCacheTTL <= 0 {
		settings.CategoriesCacheTTL = defaultCategoriesTTL
	}

	return &ProductService{
		productRepo: productRepo,
		upvoteRepo:  upvoteRepo,
		cache:       cache,
		events:      eventPublisher{producer: kafkaProducer},
		settings:    settings,
	}
}

// CreateProduct публикует продукт от имени автора.
// Имя автора сохраняется снимком, чтобы лента не ходила в Auth Service
func (s *ProductService) CreateProduct(ctx context.Context, author entity.Identity, req *entity.CreateProductRequest) (*entity.Product, error) {
	status := entity.StatusApproved
	if s.settings.RequireApproval {
		status = entity.StatusPending
	}

	product := &entity.Product{
		Name:          req.Name,
		Tagline:       req.Tagline,
		Description:   req.Description,
		WebsiteURL:    req.WebsiteURL,
		Logo:          req.Logo,
		Images:        req.Images,
		Category:      req.Category,
		SubmittedBy:   repository.NormalizeUserRef(author.UserID),
		SubmitterName: author.Name,
		Status:        status,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	metrics.ProductsSubmitted.WithLabelValues(product.Category).Inc()
	invalidateCategories(ctx, s.cache)

	s.events.publish(ctx, entity.ProductEvent{
		EventType: entity.EventTypeProductCreated,
		ProductID: product.ID.Hex(),
		UserID:    product.SubmittedBy,
		Status:    product.Status,
	})

	return product, nil
}

// GetProduct возвращает продукт в любом статусе.
// Для аутентифицированного пользователя дополнительно проверяет его голос
func (s *ProductService) GetProduct(ctx context.Context, productID, viewerID string) (*entity.ProductResponse, error) {
	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	response := &entity.ProductResponse{Product: *product}
	if viewerID == "" {
		return response, nil
	}

	upvoted, err := s.upvoteRepo.Exists(ctx, viewerID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check upvote: %w", err)
	}
	response.IsUpvoted = upvoted

	return response, nil
}

// ListProducts возвращает одобренные продукты, опционально по категории
func (s *ProductService) ListProducts(ctx context.Context, category string) ([]entity.Product, error) {
	if category != "" && !slices.Contains(entity.Categories, category) {
		return nil, ErrInvalidCategory
	}

	products, err := s.productRepo.List(ctx, repository.ProductFilter{
		Status:   entity.StatusApproved,
		Category: category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// GetUserProducts возвращает одобренные продукты пользователя
func (s *ProductService) GetUserProducts(ctx context.Context, userID string) ([]entity.Product, error) {
	products, err := s.productRepo.List(ctx, repository.ProductFilter{
		Status:      entity.StatusApproved,
		SubmittedBy: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user products: %w", err)
	}

	return products, nil
}

// GetUserUpvotedProducts возвращает одобренные продукты, за которые голосовал пользователь,
// в порядке голосов: последний голос первым
func (s *ProductService) GetUserUpvotedProducts(ctx context.Context, userID string) ([]entity.Product, error) {
	upvotes, err := s.upvoteRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user upvotes: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(upvotes))
	for _, upvote := range upvotes {
		ids = append(ids, upvote.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids, entity.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to get upvoted products: %w", err)
	}

	byID := make(map[primitive.ObjectID]entity.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	ordered := make([]entity.Product, 0, len(products))
	for _, id := range ids {
		if product, ok := byID[id]; ok {
			ordered = append(ordered, product)
		}
	}

	return ordered, nil
}

// GetCategories возвращает все категории с числом одобренных продуктов, включая пустые.
// Паттерн cache-aside: недоступный Redis не ломает ответ
func (s *ProductService) GetCategories(ctx context.Context) ([]entity.CategoryStat, error) {
	cached, err := s.cache.GetCategoryStats(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read category stats from cache")
	} else if cached != nil {
		return cached, nil
	}

	counted, err := s.productRepo.CountByCategory(ctx, entity.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	counts := make(map[string]int64, len(counted))
	for _, stat := range counted {
		counts[stat.Category] = stat.Count
	}

	stats := make([]entity.CategoryStat, 0, len(entity.Categories))
	for _, category := range entity.Categories {
		stats = append(stats, entity.CategoryStat{Category: category, Count: counts[category]})
	}

	if err := s.cache.SetCategoryStats(ctx, stats, s.settings.CategoriesCacheTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache category stats")
	}

	return stats, nil
}

// DeleteProduct удаляет продукт автора вместе с голосами и комментариями
func (s *ProductService) DeleteProduct(ctx context.Context, requester entity.Identity, productID string) error {
	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return err
	}

	if product.SubmittedBy != repository.NormalizeUserRef(requester.UserID) {
		return ErrForbidden
	}

	return deleteProduct(ctx, s.productRepo, s.cache, s.events, product, requester.UserID)
}

// ToggleUpvote переключает голос пользователя за продукт.
// Гонка двух параллельных запросов одного пользователя завершается конфликтом
// уникального индекса: он означает, что голос уже учтен, счетчик не меняется
func (s *ProductService) ToggleUpvote(ctx context.Context, userID, productID string) (*entity.UpvoteResult, error) {
	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	result, err := s.upvoteRepo.Toggle(ctx, userID, product.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUpvote):
			return s.resolveUpvoteConflict(ctx, productID)
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to toggle upvote: %w", err)
	}

	outcome := "removed"
	if result.IsUpvoted {
		outcome = "added"
	}
	metrics.UpvoteToggles.WithLabelValues(outcome).Inc()

	isUpvoted := result.IsUpvoted
	s.events.publish(ctx, entity.ProductEvent{
		EventType: entity.EventTypeUpvoteToggled,
		ProductID: product.ID.Hex(),
		UserID:    repository.NormalizeUserRef(userID),
		IsUpvoted: &isUpvoted,
	})

	return result, nil
}

func (s *ProductService) resolveUpvoteConflict(ctx context.Context, productID string) (*entity.UpvoteResult, error) {
	metrics.UpvoteToggles.WithLabelValues("conflict").Inc()
	logger.Debug().Str("product_id", productID).Msg("Concurrent upvote detected, keeping stored vote")

	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &entity.UpvoteResult{IsUpvoted: true, UpvoteCount: product.UpvoteCount}, nil
}

func (s *ProductService) getProduct(ctx context.Context, productID string) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func invalidateCategories(ctx context.Context, cache util.CategoryCache) {
	if err := cache.DeleteCategoryStats(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate category stats cache")
	}
}

// deleteProduct общая часть удаления для автора и администратора
func deleteProduct(
	ctx context.Context,
	productRepo repository.ProductRepository,
	cache util.CategoryCache,
	events eventPublisher,
	product *entity.Product,
	actorID string,
) error {
	if err := productRepo.Delete(ctx, product.ID.Hex()); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	invalidateCategories(ctx, cache)

	events.publish(ctx, entity.ProductEvent{
		EventType: entity.EventTypeProductDeleted,
		ProductID: product.ID.Hex(),
		UserID:    repository.NormalizeUserRef(actorID),
	})

	return nil
}
