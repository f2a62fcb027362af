package handler

import (
	"net/http"

	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type CommentHandler struct {
	commentService service.CommentServiceInterface
	validator      *validator.Validate
}

func NewCommentHandler(commentService service.CommentServiceInterface) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		validator:      validator.New(),
	}
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req entity.CreateCommentRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, err, "Failed to create comment")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) GetProductComments(c *gin.Context) {
	comments, err := h.commentService.GetProductComments(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, err, "Failed to get comments")
		return
	}

	c.JSON(http.StatusOK, entity.CommentListResponse{Comments: comments, Total: len(comments)})
}

func (h *CommentHandler) GetUserComments(c *gin.Context) {
	comments, err := h.commentService.GetUserComments(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "Failed to get user comments")
		return
	}

	c.JSON(http.StatusOK, entity.CommentListResponse{Comments: comments, Total: len(comments)})
}
