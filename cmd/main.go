package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillhub/backend/internal/api/handler"
	"skillhub/backend/internal/chathub"
	"skillhub/backend/internal/config"
	"skillhub/backend/internal/models"
	"skillhub/backend/internal/presence"
	"skillhub/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	// TranslateError maps unique-key violations to gorm.ErrDuplicatedKey,
	// which the room resolver relies on.
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	if err := db.AutoMigrate(&models.ChatRoom{}, &models.ChatMessage{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting SkillHub chat backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	registry := presence.NewRegistry()
	relay := chathub.NewRelay(s)
	hub := chathub.NewHub(s, registry, relay, cfg.HistoryPageSize)
	hub.Calls = chathub.NewCallCoordinator(registry, hub, cfg.RingTimeout)

	go hub.Run()

	r := gin.Default()
	h := handler.NewHandler(hub, relay, registry, cfg.JWTSecret, cfg.AllowedOrigin, cfg.HistoryPageSize)

	r.GET("/health", h.Health)
	r.GET("/ws", h.Auth(), h.ServeWebSocket)

	chat := r.Group("/chat", h.Auth())
	chat.POST("/createRoom/:userId", h.CreateOrGetChatRoom)
	chat.GET("/room/:roomId/messages", h.GetRoomMessages)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()
	log.Printf("Server listening on :%d", cfg.Port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutdown signal received, closing HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("ERROR: Shutdown did not finish cleanly: %v", err)
	}
}
