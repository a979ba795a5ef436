package app

import (
	"log"
	"time"

	"friendlink/internal/config"
	"friendlink/internal/middleware"
	"friendlink/internal/model"
	"friendlink/internal/repository"
	"friendlink/internal/service"
	"friendlink/internal/util"
	"friendlink/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	// Set Gin mode
	if cfg.ServerPort == "5000" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware(cfg.ClientURL))

	// Rate limiting middleware (if enabled)
	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}

	// Auto migrate
	if err := db.AutoMigrate(&model.User{}, &model.Friendship{}, &model.Notification{}); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// Initialize Redis with retry logic; the service runs without it
	redisClient := initRedisWithRetry(cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db, redisClient)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize RabbitMQ with retry logic; the service runs without it
	rabbitMQ := initRabbitMQWithRetry(cfg)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	notificationService := service.NewNotificationService(notificationRepo, rabbitMQ)
	notificationService.SetWSHub(wsHub)
	friendshipService := service.NewFriendshipService(friendshipRepo, userRepo, notificationService)
	userService := service.NewUserService(userRepo, friendshipRepo)

	// Initialize notification worker if RabbitMQ is available
	if rabbitMQ != nil {
		notificationWorker := service.NewNotificationWorker(rabbitMQ, wsHub)
		if err := notificationWorker.Start(); err != nil {
			log.Printf("Warning: Failed to start notification worker: %v", err)
		} else {
			log.Println("Notification worker started successfully")
		}
	}

	// Initialize handlers
	authHandler := NewAuthHandler(authService, cfg.JWTSecret)
	userHandler := NewUserHandler(userService)
	friendshipHandler := NewFriendshipHandler(friendshipService)
	notificationHandler := NewNotificationHandler(notificationService)

	// API routes
	api := r.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)

			// Protected routes
			auth.GET("/me", authHandler.AuthMiddleware(), authHandler.GetMe)
		}

		// User routes
		users := api.Group("/users")
		{
			users.Use(authHandler.AuthMiddleware())
			{
				users.GET("/search", userHandler.SearchUsers)
				users.GET("/:id", userHandler.GetUser)
			}
		}

		// Friendship routes
		friendships := api.Group("/friendships")
		{
			friendships.Use(authHandler.AuthMiddleware())
			{
				friendships.POST("/request", friendshipHandler.SendFriendRequest)
				friendships.GET("", friendshipHandler.GetMyFriendships)
				friendships.GET("/pending", friendshipHandler.GetPendingRequests)
				friendships.GET("/pending/count", friendshipHandler.GetPendingCount)
				friendships.GET("/sent", friendshipHandler.GetSentRequests)
				friendships.GET("/friends", friendshipHandler.GetFriends)
				friendships.GET("/status/:userID", friendshipHandler.GetFriendshipStatus)
				friendships.GET("/:id", friendshipHandler.GetFriendship)
				friendships.POST("/:id/accept", friendshipHandler.AcceptFriendRequest)
				friendships.DELETE("/:id", friendshipHandler.DeclineFriendRequest)
			}
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(authHandler.AuthMiddleware())
			{
				notifications.GET("", notificationHandler.GetNotifications)
				notifications.GET("/unread/count", notificationHandler.GetUnreadCount)
				notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
				notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
			}
		}
	}

	// WebSocket route
	r.GET("/ws", func(c *gin.Context) {
		websocket.ServeWS(wsHub, cfg.JWTSecret).ServeHTTP(c.Writer, c.Request)
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "host=" + cfg.PostgresHost +
			" port=" + cfg.PostgresPort +
			" user=" + cfg.PostgresUser +
			" password=" + cfg.PostgresPassword +
			" dbname=" + cfg.PostgresDB +
			" sslmode=" + cfg.PostgresSSLMode
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// initRedisWithRetry attempts to connect to Redis with exponential backoff.
// Returns nil on failure; repositories fall back to the database.
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	maxRetries := 5
	delay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		redisClient, err := util.NewRedisClient(cfg)
		if err == nil {
			log.Println("Redis connected successfully")
			return redisClient
		}

		log.Printf("Redis connection attempt %d/%d failed: %v", attempt, maxRetries, err)
		if attempt < maxRetries {
			time.Sleep(delay)
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}

	log.Println("Redis unavailable, continuing without cache")
	return nil
}

// initRabbitMQWithRetry attempts to connect to RabbitMQ with exponential
// backoff. Returns nil on failure; notifications are pushed directly to the
// WebSocket hub instead.
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	maxRetries := 5
	delay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		rabbitMQ, err := util.NewRabbitMQClient(cfg)
		if err == nil {
			log.Println("RabbitMQ connected successfully")
			return rabbitMQ
		}

		log.Printf("RabbitMQ connection attempt %d/%d failed: %v", attempt, maxRetries, err)
		if attempt < maxRetries {
			time.Sleep(delay)
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}

	log.Println("RabbitMQ unavailable, notifications will be pushed directly")
	return nil
}

// corsMiddleware allows requests from the configured client origin
func corsMiddleware(clientURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == clientURL {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
