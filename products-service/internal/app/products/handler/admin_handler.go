package handler

import (
	"net/http"

	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// AdminHandler - эндпоинты модерации, доступны только роли admin
type AdminHandler struct {
	adminService service.AdminServiceInterface
	validator    *validator.Validate
}

func NewAdminHandler(adminService service.AdminServiceInterface) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		validator:    validator.New(),
	}
}

func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get dashboard stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListProducts(c *gin.Context) {
	products, err := h.adminService.ListProducts(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err, "Failed to get products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{Products: products, Total: len(products)})
}

func (h *AdminHandler) UpdateProductStatus(c *gin.Context) {
	var req entity.UpdateStatusRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	product, err := h.adminService.UpdateProductStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "Failed to update product status")
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	if err := h.adminService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Product deleted successfully"})
}
