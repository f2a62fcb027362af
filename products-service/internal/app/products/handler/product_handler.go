package handler

import (
	"net/http"

	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ProductHandler struct {
	productService service.ProductServiceInterface
	validator      *validator.Validate
}

func NewProductHandler(productService service.ProductServiceInterface) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validator:      validator.New(),
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.productService.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err, "Failed to get products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{Products: products, Total: len(products)})
}

func (h *ProductHandler) GetCategories(c *gin.Context) {
	stats, err := h.productService.GetCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get categories")
		return
	}

	c.JSON(http.StatusOK, entity.CategoriesResponse{Categories: stats})
}

func (h *ProductHandler) GetUserProducts(c *gin.Context) {
	products, err := h.productService.GetUserProducts(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "Failed to get user products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{Products: products, Total: len(products)})
}

func (h *ProductHandler) GetUserUpvotedProducts(c *gin.Context) {
	products, err := h.productService.GetUserUpvotedProducts(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "Failed to get upvoted products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{Products: products, Total: len(products)})
}

// GetProduct доступен анонимно, is_upvoted заполняется только для аутентифицированных
func (h *ProductHandler) GetProduct(c *gin.Context) {
	var viewerID string
	if identity, ok := identityFromContext(c); ok {
		viewerID = identity.UserID
	}

	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		respondError(c, err, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req entity.CreateProductRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), identity, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Product deleted successfully"})
}

func (h *ProductHandler) ToggleUpvote(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.productService.ToggleUpvote(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to toggle upvote")
		return
	}

	message := "Upvote removed successfully"
	if result.IsUpvoted {
		message = "Product upvoted successfully"
	}

	c.JSON(http.StatusOK, entity.ToggleUpvoteResponse{Message: message, UpvoteResult: *result})
}
