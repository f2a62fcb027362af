package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"launchpad/pkg/logger"
	"launchpad/pkg/metrics"
)

func SetupRoutes(
	productHandler *ProductHandler,
	commentHandler *CommentHandler,
	adminHandler *AdminHandler,
	authMiddleware *AuthMiddleware,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("products-service"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "products-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	products := api.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/categories", productHandler.GetCategories)
		products.GET("/user/:userId", productHandler.GetUserProducts)
		products.GET("/user/:userId/upvoted", productHandler.GetUserUpvotedProducts)
		products.GET("/:id", authMiddleware.OptionalAuthenticate(), productHandler.GetProduct)

		protected := products.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.POST("", productHandler.CreateProduct)
			protected.DELETE("/:id", productHandler.DeleteProduct)
			protected.POST("/:id/upvote", productHandler.ToggleUpvote)
		}
	}

	comments := api.Group("/comments")
	{
		comments.GET("/product/:productId", commentHandler.GetProductComments)
		comments.GET("/user/:userId", commentHandler.GetUserComments)
		comments.POST("", authMiddleware.Authenticate(), commentHandler.CreateComment)
	}

	admin := api.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole("admin"))
	{
		admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
		admin.GET("/products", adminHandler.ListProducts)
		admin.PUT("/products/:id/status", adminHandler.UpdateProductStatus)
		admin.DELETE("/products/:id", adminHandler.DeleteProduct)
	}

	return router
}
