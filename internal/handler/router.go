package handler

import (
	"bankapp/internal/config"
	"bankapp/internal/security"
	"bankapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// SetupRouter 配置路由
func SetupRouter(store service.Store, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	jwtManager := security.NewJWTManager(&cfg.JWT)
	h := NewHandler(store, rdb, cfg, jwtManager)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 认证相关（无需令牌）
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/refresh", h.Refresh)
			auth.POST("/logout", h.Logout)
		}

		// 以下路由全部要求有效访问令牌
		authed := api.Group("")
		authed.Use(AuthMiddleware(jwtManager))

		// 客户相关
		customers := authed.Group("/customers")
		{
			customers.GET("", h.ListCustomers)
			customers.GET("/:id", h.GetCustomer)
			customers.GET("/email/:email", h.GetCustomerByEmail)
			customers.PUT("/:id", h.UpdateCustomer)
			customers.DELETE("/:id", h.DeleteCustomer)
		}

		// 账户相关
		accounts := authed.Group("/accounts")
		{
			accounts.POST("", h.CreateAccount)
			accounts.GET("/:id", h.GetAccount)
			accounts.GET("/number/:accountNumber", h.GetAccountByNumber)
			accounts.GET("/customer/:customerId", h.ListCustomerAccounts)
			accounts.PUT("/:id", h.UpdateAccount)
			accounts.DELETE("/:id", h.DeleteAccount)
		}

		// 交易相关
		transactions := authed.Group("/transactions")
		{
			transactions.POST("/deposit", h.Deposit)
			transactions.POST("/withdraw", h.Withdraw)
			transactions.POST("/transfer", h.Transfer)
			transactions.GET("/:id", h.GetTransaction)
			transactions.GET("/account/:accountId", h.ListAccountTransactions)
			transactions.GET("/account/number/:accountNumber", h.ListAccountTransactionsByNumber)
			transactions.GET("/customer/:customerId", h.ListCustomerTransactions)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
