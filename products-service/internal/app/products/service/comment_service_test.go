package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/repository"
	"launchpad/products-service/internal/app/products/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type commentServiceMocks struct {
	comments  *mocks.MockCommentRepository
	products  *mocks.MockProductRepository
	publisher *mocks.MockMessagePublisher
}

func newTestCommentService() (*CommentService, commentServiceMocks) {
	m := commentServiceMocks{
		comments:  new(mocks.MockCommentRepository),
		products:  new(mocks.MockProductRepository),
		publisher: &mocks.MockMessagePublisher{Messages: make([][]byte, 0)},
	}
	return NewCommentService(m.comments, m.products, m.publisher), m
}

var commentAuthor = entity.Identity{UserID: testUserID, Name: "Bob"}

func TestCreateComment_TopLevel(t *testing.T) {
	service, m := newTestCommentService()
	ctx := context.Background()
	product := &entity.Product{ID: primitive.NewObjectID()}

	m.products.On("GetByID", ctx, product.ID.Hex()).Return(product, nil)
	m.comments.On("Create", ctx, mock.AnythingOfType("*entity.Comment")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Comment).ID = primitive.NewObjectID()
	})
	m.publisher.On("PublishMessage", ctx, product.ID.Hex(), mock.Anything).Return(nil)

	comment, err := service.CreateComment(ctx, commentAuthor, &entity.CreateCommentRequest{
		ProductID: product.ID.Hex(),
		Content:   "  Nice launch!  ",
	})

	require.NoError(t, err)
	assert.Equal(t, "Nice launch!", comment.Content)
	assert.Equal(t, product.ID, comment.ProductID)
	assert.Nil(t, comment.ParentID)
	assert.Equal(t, "Bob", comment.AuthorName)

	event := decodeEvent(t, m.publisher.Messages[0])
	assert.Equal(t, entity.EventTypeCommentCreated, event.EventType)
	assert.Equal(t, comment.ID.Hex(), event.CommentID)
	assert.Empty(t, event.ParentID)
}

func TestCreateComment_Reply(t *testing.T) {
	service, m := newTestCommentService()
	ctx := context.Background()
	product := &entity.Product{ID: primitive.NewObjectID()}
	parent := &entity.Comment{ID: primitive.NewObjectID(), ProductID: product.ID}

	m.products.On("GetByID", ctx, product.ID.Hex()).Return(product, nil)
	m.comments.On("GetByID", ctx, parent.ID.Hex()).Return(parent, nil)
	m.comments.On("Create", ctx, mock.Anything).Return(nil)
	m.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	comment, err := service.CreateComment(ctx, commentAuthor, &entity.CreateCommentRequest{
		ProductID:       product.ID.Hex(),
		Content:         "Agreed",
		ParentCommentID: parent.ID.Hex(),
	})

	require.NoError(t, err)
	require.NotNil(t, comment.ParentID)
	assert.Equal(t, parent.ID, *comment.ParentID)
	// Родительский комментарий не перезаписывается
	m.comments.AssertNumberOfCalls(t, "Create", 1)
	assert.Equal(t, parent.ID.Hex(), decodeEvent(t, m.publisher.Messages[0]).ParentID)
}

func TestCreateComment_ValidationOrder(t *testing.T) {
	productID := primitive.NewObjectID()
	otherProductID := primitive.NewObjectID()
	topLevelParent := primitive.NewObjectID()

	tests := []struct {
		name    string
		req     *entity.CreateCommentRequest
		setup   func(m commentServiceMocks)
		wantErr error
	}{
		{
			name:    "whitespace only content",
			req:     &entity.CreateCommentRequest{ProductID: productID.Hex(), Content: " \n\t "},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "content too long",
			req:     &entity.CreateCommentRequest{ProductID: productID.Hex(), Content: strings.Repeat("a", MaxCommentLength+1)},
			wantErr: ErrContentTooLong,
		},
		{
			name: "product not found",
			req:  &entity.CreateCommentRequest{ProductID: productID.Hex(), Content: "hi"},
			setup: func(m commentServiceMocks) {
				m.products.On("GetByID", mock.Anything, productID.Hex()).Return(nil, repository.ErrProductNotFound)
			},
			wantErr: ErrProductNotFound,
		},
		{
			name: "parent not found",
			req:  &entity.CreateCommentRequest{ProductID: productID.Hex(), Content: "hi", ParentCommentID: "missing"},
			setup: func(m commentServiceMocks) {
				m.products.On("GetByID", mock.Anything, productID.Hex()).Return(&entity.Product{ID: productID}, nil)
				m.comments.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrCommentNotFound)
			},
			wantErr: ErrParentNotFound,
		},
		{
			name: "parent on another product",
			req:  &entity.CreateCommentRequest{ProductID: productID.Hex(), Content: "hi", ParentCommentID: topLevelParent.Hex()},
			setup: func(m commentServiceMocks) {
				m.products.On("GetByID", mock.Anything, productID.Hex()).Return(&entity.Product{ID: productID}, nil)
				m.comments.On("GetByID", mock.Anything, topLevelParent.Hex()).
					Return(&entity.Comment{ID: topLevelParent, ProductID: otherProductID}, nil)
			},
			wantErr: ErrParentProductMismatch,
		},
		{
			name: "reply to reply",
			req:  &entity.CreateCommentRequest{ProductID: productID.Hex(), Content: "hi", ParentCommentID: topLevelParent.Hex()},
			setup: func(m commentServiceMocks) {
				grandParent := primitive.NewObjectID()
				m.products.On("GetByID", mock.Anything, productID.Hex()).Return(&entity.Product{ID: productID}, nil)
				m.comments.On("GetByID", mock.Anything, topLevelParent.Hex()).
					Return(&entity.Comment{ID: topLevelParent, ProductID: productID, ParentID: &grandParent}, nil)
			},
			wantErr: ErrReplyDepthExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newTestCommentService()
			if tt.setup != nil {
				tt.setup(m)
			}

			comment, err := service.CreateComment(context.Background(), commentAuthor, tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, comment)
			m.comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateComment_ValidationKind(t *testing.T) {
	for _, err := range []error{ErrEmptyContent, ErrContentTooLong, ErrParentProductMismatch, ErrReplyDepthExceeded, ErrInvalidStatus} {
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.NotErrorIs(t, ErrProductNotFound, ErrValidation)
	assert.NotErrorIs(t, ErrParentNotFound, ErrValidation)
}

func TestCreateComment_MultibyteLengthLimit(t *testing.T) {
	service, m := newTestCommentService()
	ctx := context.Background()
	product := &entity.Product{ID: primitive.NewObjectID()}

	m.products.On("GetByID", ctx, product.ID.Hex()).Return(product, nil)
	m.comments.On("Create", ctx, mock.Anything).Return(nil)
	m.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	// 500 кириллических символов занимают 1000 байт, но укладываются в лимит
	comment, err := service.CreateComment(ctx, commentAuthor, &entity.CreateCommentRequest{
		ProductID: product.ID.Hex(),
		Content:   strings.Repeat("я", MaxCommentLength),
	})

	require.NoError(t, err)
	assert.NotNil(t, comment)
}

func TestGetProductComments_NestsRepliesOneLevel(t *testing.T) {
	service, m := newTestCommentService()
	ctx := context.Background()
	product := &entity.Product{ID: primitive.NewObjectID()}
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	c1 := entity.Comment{ID: primitive.NewObjectID(), ProductID: product.ID, Content: "C1", CreatedAt: base}
	c2 := entity.Comment{ID: primitive.NewObjectID(), ProductID: product.ID, Content: "C2", CreatedAt: base.Add(time.Minute)}
	r1 := entity.Comment{ID: primitive.NewObjectID(), ProductID: product.ID, Content: "R1", ParentID: &c1.ID, CreatedAt: base.Add(2 * time.Minute)}
	r2 := entity.Comment{ID: primitive.NewObjectID(), ProductID: product.ID, Content: "R2", ParentID: &c1.ID, CreatedAt: base.Add(3 * time.Minute)}

	m.products.On("GetByID", ctx, product.ID.Hex()).Return(product, nil)
	m.comments.On("GetTopLevelByProductID", ctx, product.ID).Return([]entity.Comment{c1, c2}, nil)
	m.comments.On("GetReplies", ctx, []primitive.ObjectID{c1.ID, c2.ID}).Return([]entity.Comment{r1, r2}, nil)

	comments, err := service.GetProductComments(ctx, product.ID.Hex())

	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "C1", comments[0].Content)
	assert.Equal(t, "C2", comments[1].Content)

	require.Len(t, comments[0].Replies, 2)
	assert.Equal(t, "R1", comments[0].Replies[0].Content)
	assert.Equal(t, "R2", comments[0].Replies[1].Content)
	assert.Empty(t, comments[0].Replies[0].Replies)
	assert.NotNil(t, comments[1].Replies)
	assert.Empty(t, comments[1].Replies)
}

func TestGetProductComments_Empty(t *testing.T) {
	service, m := newTestCommentService()
	ctx := context.Background()
	product := &entity.Product{ID: primitive.NewObjectID()}

	m.products.On("GetByID", ctx, product.ID.Hex()).Return(product, nil)
	m.comments.On("GetTopLevelByProductID", ctx, product.ID).Return([]entity.Comment{}, nil)

	comments, err := service.GetProductComments(ctx, product.ID.Hex())

	require.NoError(t, err)
	assert.Empty(t, comments)
	m.comments.AssertNotCalled(t, "GetReplies", mock.Anything, mock.Anything)
}

func TestGetProductComments_ProductNotFound(t *testing.T) {
	service, m := newTestCommentService()
	ctx := context.Background()

	m.products.On("GetByID", ctx, "missing").Return(nil, repository.ErrProductNotFound)

	comments, err := service.GetProductComments(ctx, "missing")

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, comments)
}

func TestGetUserComments(t *testing.T) {
	service, m := newTestCommentService()
	ctx := context.Background()

	m.comments.On("GetByAuthorID", ctx, testUserID).Return([]entity.Comment{{Content: "a"}}, nil)

	comments, err := service.GetUserComments(ctx, testUserID)

	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestGetUserComments_RepoError(t *testing.T) {
	service, m := newTestCommentService()
	ctx := context.Background()

	m.comments.On("GetByAuthorID", ctx, testUserID).Return(nil, errors.New("db error"))

	comments, err := service.GetUserComments(ctx, testUserID)

	assert.Error(t, err)
	assert.Nil(t, comments)
}
