package api

import (
	"net/http"                          // HTTP status codes
	"wallet_ledger/internal/domain"     // Domain models
	"wallet_ledger/internal/ledger"     // Ledger engine
	"wallet_ledger/internal/metrics"    // Prometheus collectors
	"wallet_ledger/internal/middleware" // Auth, logging, rate limiting
	"wallet_ledger/internal/repository" // Resource storage
	"wallet_ledger/internal/security"   // Tokens, passwords, login throttle

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Deps are the process-wide resources built in main
type Deps struct {
	DB             *gorm.DB
	Tokens         *security.TokenService
	Passwords      *security.PasswordHasher
	Throttle       *security.LoginThrottle // May be nil
	Log            logrus.FieldLogger
	RateLimitRPS   int // 0 disables rate limiting
	RateLimitBurst int
	TrustedProxies []string
}

// Services bundles what handlers need; built once per router
type Services struct {
	Deps
	Users        *repository.UserStore
	Wallets      *repository.Store[domain.Wallet]
	Transactions *repository.Store[domain.Transaction]
	Merchants    *repository.Store[domain.Merchant]
	Items        *repository.Store[domain.Item]
	Ledger       *ledger.Engine
}

// NewServices builds repositories and the ledger engine over d.DB
func NewServices(d Deps) *Services {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &Services{
		Deps:         d,
		Users:        repository.NewUserStore(d.DB),
		Wallets:      repository.NewStore[domain.Wallet](d.DB, "Wallet not found"),
		Transactions: repository.NewStore[domain.Transaction](d.DB, "Transaction not found"),
		Merchants:    repository.NewStore[domain.Merchant](d.DB, "Merchant not found"),
		Items:        repository.NewStore[domain.Item](d.DB, "Item not found"),
		Ledger:       ledger.NewEngine(d.DB, d.Log),
	}
}

// NewRouter wires every route onto a new gin engine
func NewRouter(d Deps) (*gin.Engine, error) {
	s := NewServices(d)
	useJSONFieldNames()

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(s.Log),
		metrics.Middleware(),
		middleware.NewRateLimiter(d.RateLimitRPS, d.RateLimitBurst, s.Log).Handler(),
	)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})

	r.GET("/healthz", HealthHandler(s))              // Liveness plus DB ping
	r.GET("/metrics", gin.WrapH(metrics.Handler()))  // Prometheus exposition
	r.POST("/token", TokenHandler(s))                // Login
	r.POST("/token/refresh", RefreshTokenHandler(s)) // Exchange a refresh token
	r.POST("/users/create", CreateUserHandler(s))    // Registration
	r.GET("/items", ListItemsHandler(s))             // Public catalogue
	r.GET("/items/:id", GetItemHandler(s))           // Public item
	r.GET("/merchants", ListMerchantsHandler(s))     // Public merchants
	r.GET("/merchants/:id", GetMerchantHandler(s))   // Public merchant

	// Everything below requires a valid access token
	authed := r.Group("/", middleware.Authenticate(s.Tokens, s.Users))

	authed.GET("/users/me", MeHandler(s))
	authed.GET("/users/:id", GetUserHandler(s))
	authed.PUT("/users/:id/update", UpdateUserHandler(s))
	authed.PUT("/users/:id/change_password", ChangePasswordHandler(s))
	authed.DELETE("/users/:id/delete", DeleteUserHandler(s))

	authed.POST("/wallets", CreateWalletHandler(s))
	authed.GET("/wallets/:id", GetWalletHandler(s))
	authed.GET("/wallets/:id/transactions", WalletTransactionsHandler(s))
	authed.PUT("/wallets/:id", middleware.RequireRoles(domain.RoleAdmin), OverrideBalanceHandler(s))
	authed.DELETE("/wallets/:id", DeleteWalletHandler(s))

	authed.POST("/transactions", CreateTransactionHandler(s))
	authed.GET("/transactions/:id", GetTransactionHandler(s))
	authed.PUT("/transactions/:id", UpdateTransactionHandler(s))
	authed.DELETE("/transactions/:id", DeleteTransactionHandler(s))

	authed.POST("/merchants", CreateMerchantHandler(s))
	authed.PUT("/merchants/:id", UpdateMerchantHandler(s))
	authed.DELETE("/merchants/:id", DeleteMerchantHandler(s))

	authed.POST("/items", CreateItemHandler(s))
	authed.PUT("/items/:id", UpdateItemHandler(s))
	authed.DELETE("/items/:id", DeleteItemHandler(s))

	admin := authed.Group("/admin", middleware.RequireRoles(domain.RoleAdmin))
	admin.GET("", AdminHandler())
	admin.GET("/users", ListUsersHandler(s))               // All users, paginated
	admin.GET("/transactions", ListTransactionsHandler(s)) // All ledger entries, filterable

	return r, nil
}

// HealthHandler reports whether the database answers
func HealthHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := s.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			s.Log.WithError(err).Error("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
