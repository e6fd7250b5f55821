package server

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"CodeMart/chat"
	"CodeMart/config"
	"CodeMart/handlers"
	"CodeMart/kafka"
	"CodeMart/limiter"
	custommiddleware "CodeMart/middleware"
	"CodeMart/models"
	"CodeMart/redis"
	"CodeMart/services"
	"CodeMart/storage"
)

type Server struct {
	Echo        *echo.Echo
	DB          *gorm.DB
	Config      *config.Config
	Coordinator *chat.Coordinator
	Redis       *redis.RedisClient

	AuthHandler          *handlers.AuthHandler
	ProjectHandler       *handlers.ProjectHandler
	OrderHandler         *handlers.OrderHandler
	BlogHandler          *handlers.BlogHandler
	ChatLogHandler       *handlers.ChatLogHandler
	ChatWebSocketHandler *handlers.ChatWebSocketHandler

	rateLimiter    *limiter.Manager
	consumer       *kafka.Consumer
	consumerCancel context.CancelFunc
}

func NewServer() *Server {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := models.AutoMigrateAll(db); err != nil {
		log.Fatal("Failed to auto-migrate database:", err)
	}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.PATCH},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength},
		MaxAge:           86400,
	}))

	// Optional collaborators. The chat widget and the API keep working when
	// Redis, Kafka or S3 are not configured; the features backed by them
	// degrade instead of taking the process down.
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, presence and rate limiting disabled:", err)
		redisClient = nil
	}

	producer := newProducer(&cfg.Kafka)

	var uploader chat.Uploader
	if cfg.S3.Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), &cfg.S3)
		if err != nil {
			log.Warn("S3 unavailable, chat file uploads disabled:", err)
		} else {
			uploader = s3Store
		}
	}

	coordinator, err := chat.NewCoordinator(chat.Options{
		WelcomeText: cfg.Chat.WelcomeText,
		BotDelay:    time.Duration(cfg.Chat.BotDelayMS) * time.Millisecond,
		GracePeriod: time.Duration(cfg.Chat.GraceSeconds) * time.Second,
		Rules:       cfg.Chat.Rules,
	}, uploader)
	if err != nil {
		log.Fatal("Failed to build chat coordinator:", err)
	}

	authService := services.NewAuthService(db, &cfg.Auth)
	catalogService := services.NewCatalogService(db)
	orderService := services.NewOrderService(db, producer, cfg.Kafka.OrdersTopic)
	blogService := services.NewBlogService(db)
	chatLogService := services.NewChatLogService(db, producer, cfg.Kafka.MessagesTopic)

	s := &Server{
		Echo:                 e,
		DB:                   db,
		Config:               &cfg,
		Coordinator:          coordinator,
		Redis:                redisClient,
		AuthHandler:          handlers.NewAuthHandler(authService),
		ProjectHandler:       handlers.NewProjectHandler(catalogService),
		OrderHandler:         handlers.NewOrderHandler(orderService),
		BlogHandler:          handlers.NewBlogHandler(blogService),
		ChatLogHandler:       handlers.NewChatLogHandler(chatLogService),
		ChatWebSocketHandler: handlers.NewChatWebSocketHandler(coordinator, redisClient),
	}
	if redisClient != nil {
		s.rateLimiter = limiter.NewManager(redisClient.Client, &limiter.FixedWindowStrategy{})
	}
	s.startFulfillmentConsumer(&cfg.Kafka)

	authMiddleware := custommiddleware.AuthMiddleware(authService)
	adminMiddleware := custommiddleware.AdminAuthMiddleware()
	s.SetupRoutes(authMiddleware, adminMiddleware)
	return s
}

func newProducer(cfg *config.KafkaConfig) *kafka.Producer {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	var (
		saramaCfg *sarama.Config
		err       error
	)
	if cfg.SCRAMMech != "" {
		saramaCfg, err = kafka.NewSaramaConfigWithSCRAM(cfg, cfg.SCRAMMech)
	} else {
		saramaCfg, err = kafka.NewSaramaConfig(cfg)
	}
	if err != nil {
		log.Warn("Kafka config invalid, event publishing disabled:", err)
		return nil
	}
	producer, err := kafka.NewProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		log.Warn("Kafka unreachable, event publishing disabled:", err)
		return nil
	}
	return producer
}

// startFulfillmentConsumer runs the order fulfillment consumer group in the
// background when one is configured.
func (s *Server) startFulfillmentConsumer(cfg *config.KafkaConfig) {
	if len(cfg.Brokers) == 0 || cfg.ConsumerGroup == "" || cfg.OrdersTopic == "" {
		return
	}
	var (
		saramaCfg *sarama.Config
		err       error
	)
	if cfg.SCRAMMech != "" {
		saramaCfg, err = kafka.NewSaramaConfigWithSCRAM(cfg, cfg.SCRAMMech)
	} else {
		saramaCfg, err = kafka.NewSaramaConfig(cfg)
	}
	if err != nil {
		log.Warn("Kafka config invalid, fulfillment consumer disabled:", err)
		return
	}
	consumer, err := kafka.NewConsumer(cfg.Brokers, cfg.ConsumerGroup,
		[]string{cfg.OrdersTopic}, saramaCfg, kafka.NewFulfillmentHandler())
	if err != nil {
		log.Warn("Kafka unreachable, fulfillment consumer disabled:", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.consumer = consumer
	s.consumerCancel = cancel
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error("Fulfillment consumer stopped:", err)
		}
	}()
}

func (s *Server) Start(addr string) {
	log.Fatal(s.Echo.Start(addr))
}

// Shutdown stops the chat timers and releases external connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Coordinator.Shutdown()
	if s.consumerCancel != nil {
		s.consumerCancel()
		s.consumer.Close()
	}
	if s.Redis != nil {
		s.Redis.Close()
	}
	return s.Echo.Shutdown(ctx)
}
