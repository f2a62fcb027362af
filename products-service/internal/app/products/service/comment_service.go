package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"launchpad/pkg/metrics"
	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/infrastructure"
	"launchpad/products-service/internal/app/products/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxCommentLength - максимальная длина комментария в символах
const MaxCommentLength = 500

// CommentService ведет обсуждения продуктов: комментарии верхнего уровня и ответы на них.
// Допускается один уровень вложенности
type CommentService struct {
	commentRepo repository.CommentRepository
	productRepo repository.ProductRepository
	events      eventPublisher
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	productRepo repository.ProductRepository,
	kafkaProducer infrastructure.MessagePublisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		productRepo: productRepo,
		events:      eventPublisher{producer: kafkaProducer},
	}
}

// CreateComment создает комментарий или ответ.
// Ответ сохраняется одной записью с parent_id, родительский комментарий не меняется
func (s *CommentService) CreateComment(ctx context.Context, author entity.Identity, req *entity.CreateCommentRequest) (*entity.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, ErrContentTooLong
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	comment := &entity.Comment{
		Content:    content,
		AuthorID:   author.UserID,
		AuthorName: author.Name,
		ProductID:  product.ID,
	}

	if req.ParentCommentID != "" {
		parent, err := s.commentRepo.GetByID(ctx, req.ParentCommentID)
		if err != nil {
			if errors.Is(err, repository.ErrCommentNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("failed to get parent comment: %w", err)
		}

		if parent.ProductID != product.ID {
			return nil, ErrParentProductMismatch
		}
		if parent.IsReply() {
			return nil, ErrReplyDepthExceeded
		}

		parentID := parent.ID
		comment.ParentID = &parentID
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	kind := "top_level"
	event := entity.ProductEvent{
		EventType: entity.EventTypeCommentCreated,
		ProductID: product.ID.Hex(),
		UserID:    comment.AuthorID,
		CommentID: comment.ID.Hex(),
	}
	if comment.IsReply() {
		kind = "reply"
		event.ParentID = comment.ParentID.Hex()
	}
	metrics.CommentsCreated.WithLabelValues(kind).Inc()
	s.events.publish(ctx, event)

	return comment, nil
}

// GetProductComments возвращает комментарии верхнего уровня по возрастанию даты,
// у каждого заполнены ответы (тоже по возрастанию даты)
func (s *CommentService) GetProductComments(ctx context.Context, productID string) ([]entity.Comment, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	comments, err := s.commentRepo.GetTopLevelByProductID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	if len(comments) == 0 {
		return comments, nil
	}

	parentIDs := make([]primitive.ObjectID, 0, len(comments))
	for _, comment := range comments {
		parentIDs = append(parentIDs, comment.ID)
	}

	replies, err := s.commentRepo.GetReplies(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}

	byParent := make(map[primitive.ObjectID][]entity.Comment, len(comments))
	for _, reply := range replies {
		if reply.ParentID == nil {
			continue
		}
		byParent[*reply.ParentID] = append(byParent[*reply.ParentID], reply)
	}

	for i := range comments {
		comments[i].Replies = byParent[comments[i].ID]
		if comments[i].Replies == nil {
			comments[i].Replies = []entity.Comment{}
		}
	}

	return comments, nil
}

// GetUserComments возвращает комментарии пользователя, новые первыми
func (s *CommentService) GetUserComments(ctx context.Context, userID string) ([]entity.Comment, error) {
	comments, err := s.commentRepo.GetByAuthorID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user comments: %w", err)
	}

	return comments, nil
}
