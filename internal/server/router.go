// Package server assembles the HTTP router from services and handlers.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "budgeting/internal/docs" // swagger spec
	"budgeting/internal/handlers"
	"budgeting/internal/middleware"
	"budgeting/internal/services"
	"budgeting/internal/validator"
)

// Options configures the router.
type Options struct {
	SystemToken string
	JWTSecret   string
	Jobs        services.JobOptions
}

// Deps are the external collaborators of the API.
type Deps struct {
	DB        *gorm.DB
	Identity  middleware.IdentityChecker
	Directory services.AccountDirectory
	Provider  services.TransactionProvider
	Sender    services.NotificationSender
}

// NewRouter wires services and handlers into a gin engine.
func NewRouter(deps Deps, opts Options) *gin.Engine {
	validator.Register()
	db := deps.DB

	categoryService := services.NewCategoryService(db)
	walletService := services.NewWalletService(db, deps.Directory)
	transactionService := services.NewTransactionService(db)
	summaryService := services.NewSummaryService(db)
	budgetService := services.NewBudgetService(db)
	exportService := services.NewExportService(db)
	importService := services.NewImportService(db, deps.Directory, deps.Provider)
	notificationService := services.NewNotificationService(db, deps.Directory, deps.Sender)
	jobService := services.NewJobService(walletService, importService, budgetService, notificationService, opts.Jobs)

	categoryHandler := handlers.NewCategoryHandler(categoryService)
	walletHandler := handlers.NewWalletHandler(walletService, summaryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, exportService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	jobHandler := handlers.NewJobHandler(jobService)

	auth := middleware.NewAuthenticator(opts.SystemToken, opts.JWTSecret, deps.Identity)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.NoRoute(middleware.NoRoute())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/api/health", health)

	v1 := router.Group("/api/v1")
	v1.GET("/health", health)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(auth))

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("/suggest", categoryHandler.SuggestCategory)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	protected.GET("/category-groups", categoryHandler.GetCategoryGroups)

	wallets := protected.Group("/wallets")
	wallets.GET("", walletHandler.GetWallets)
	wallets.POST("", walletHandler.LinkWallet)
	wallets.GET("/balance", walletHandler.GetWalletBalances)
	wallets.DELETE("/:id", walletHandler.DeleteWallet)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/export", transactionHandler.ExportTransactions)
	transactions.GET("/by-month", summaryHandler.GetByDay)
	transactions.GET("/month-summary", summaryHandler.GetMonthSummary)
	transactions.GET("/summary", summaryHandler.GetSummary)
	transactions.GET("/summary-by-category", summaryHandler.GetSummaryByCategory)
	transactions.GET("/summary-category-by-month", summaryHandler.GetCategoryTrend)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	jobs := protected.Group("/jobs", middleware.RequireSystem(opts.SystemToken))
	jobs.POST("/import-plaid-transaction", jobHandler.ImportLinkedWallets)
	jobs.POST("/end-budget-notify", jobHandler.NotifyEndingBudgets)

	return router
}
