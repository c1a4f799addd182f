package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concurseiro-backend/internal/config"
	"concurseiro-backend/internal/database"
	"concurseiro-backend/internal/handlers"
	"concurseiro-backend/internal/middleware"
	"concurseiro-backend/internal/repository"
	"concurseiro-backend/internal/router"
	"concurseiro-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Concurseiro Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("! Unknown timezone %q, falling back to local", cfg.Timezone)
		loc = time.Local
	}

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	concursoRepo := repository.NewConcursoRepo(pool)
	materialRepo := repository.NewMaterialRepo(pool)
	eventRepo := repository.NewReadingEventRepo(pool)
	questionRepo := repository.NewQuestionRepo(pool)
	aiConfigRepo := repository.NewAIConfigRepo(pool)
	planRepo := repository.NewPlanRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClient, jwtAuth)
	extractService := services.NewExtractService()
	youtubeService := services.NewYouTubeService()
	completionClient := services.NewCompletionClient(cfg.OpenAIBaseURL)
	progressService := services.NewProgressService(materialRepo, eventRepo, loc)
	questionService := services.NewQuestionService(
		materialRepo,
		questionRepo,
		aiConfigRepo,
		extractService,
		youtubeService,
		completionClient,
		cfg.OpenAIAPIKey,
	)
	planService := services.NewPlanService(planRepo, loc)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	materialHandler := handlers.NewMaterialHandler(materialRepo, concursoRepo, extractService, youtubeService, cfg.StoragePath, cfg.MaxUploadMB)
	readingHandler := handlers.NewReadingHandler(progressService)
	questionHandler := handlers.NewQuestionHandler(questionService, questionRepo)
	aiConfigHandler := handlers.NewAIConfigHandler(aiConfigRepo)
	planHandler := handlers.NewPlanHandler(planService)
	concursoHandler := handlers.NewConcursoHandler(concursoRepo)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		materialHandler,
		readingHandler,
		questionHandler,
		aiConfigHandler,
		planHandler,
		concursoHandler,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // question generation is synchronous
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Concurseiro Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
