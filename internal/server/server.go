// Package server assembles the HTTP router from handlers and middleware.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"moneta/internal/handlers"
	"moneta/internal/middleware"
	"moneta/internal/services"
)

// Services bundles everything the router needs.
type Services struct {
	Users      services.UserServicer
	AuthFlows  services.AuthFlowServicer
	Expenses   services.ExpenseServicer
	Balances   services.BalanceServicer
	Categories services.CategoryServicer
}

// NewRouter builds the gin engine with every route mounted under /api/v1.
func NewRouter(svc Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.AuthFlows)
	expenseHandler := handlers.NewExpenseHandler(svc.Expenses, svc.Balances)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/register/check", authHandler.CheckRegistration)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/verify-otp", authHandler.VerifyResetCode)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	v1.GET("/category/:kind", categoryHandler.GetCategoriesByKind)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.GET("/balance", expenseHandler.GetBalance)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.PATCH("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	// Staff routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireStaff())

	adminCategories := admin.Group("/category")
	adminCategories.GET("", categoryHandler.ListCategories)
	adminCategories.POST("", categoryHandler.CreateCategory)
	adminCategories.PUT("/:id", categoryHandler.UpdateCategory)
	adminCategories.DELETE("/:id", categoryHandler.DeleteCategory)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
