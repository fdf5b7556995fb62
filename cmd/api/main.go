package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"residence/internal/config"
	"residence/internal/database"
	"residence/internal/domain/auth"
	"residence/internal/domain/call"
	"residence/internal/domain/chat"
	"residence/internal/domain/claim"
	"residence/internal/domain/directory"
	"residence/internal/domain/notification"
	"residence/internal/domain/upload"
	"residence/internal/middleware"
	jwtsvc "residence/internal/pkg/jwt"
	"residence/internal/pkg/logger"
	"residence/internal/pkg/metrics"
	"residence/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.Init()
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("database migrate failed", zap.Error(err))
	}

	metrics.Init()

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := realtime.NewHub(zl)
	fileStore := upload.NewStore(cfg.UploadDir, cfg.StaticBase)

	dirRepo := directory.NewRepository(db)
	notifRepo := notification.NewRepository(db)
	claimRepo := claim.NewRepository(db)
	chatRepo := chat.NewRepository(db)
	callRepo := call.NewRepository(db)

	dirService := directory.NewService(dirRepo)
	authService := auth.NewService(dirRepo, tokens)
	notifService := notification.NewService(notifRepo, hub, zl)
	claimService := claim.NewService(claimRepo, dirRepo, fileStore, notifService, zl)
	chatService := chat.NewService(chatRepo, dirRepo, notifService, hub, zl)
	callService := call.NewService(callRepo, chatService, dirRepo, notifService, hub, zl)

	authHandler := auth.NewHandler(authService)
	dirHandler := directory.NewHandler(dirService)
	notifHandler := notification.NewHandler(notifService)
	claimHandler := claim.NewHandler(claimService)
	chatHandler := chat.NewHandler(chatService)
	callHandler := call.NewHandler(callService)
	wsHandler := realtime.NewWSHandler(hub, tokens, chatRepo, zl)

	r := gin.New()
	r.Use(middleware.Logger(zl))
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.Static(cfg.StaticBase, cfg.UploadDir)

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)

		// token comes in as a query param, the handler validates it
		v1.GET("/ws", wsHandler.HandleWebSocket)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(tokens))
		{
			dirHandler.RegisterRoutes(protected)
			claimHandler.RegisterRoutes(protected)
			notifHandler.RegisterRoutes(protected)
			chatHandler.RegisterRoutes(protected)
			callHandler.RegisterRoutes(protected)
		}
	}

	zl.Info("listening", zap.String("addr", cfg.Addr))
	if err := r.Run(cfg.Addr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
