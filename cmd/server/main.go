package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codele_backend/internal/api"
	"codele_backend/internal/api/middleware"
	"codele_backend/internal/app/service"
	"codele_backend/internal/app/worker"
	"codele_backend/internal/common/security"
	"codele_backend/internal/domain/repository"
	"codele_backend/internal/platform/agent"
	"codele_backend/internal/platform/config"
	"codele_backend/internal/platform/database"
	"codele_backend/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("configuration loaded")

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("database connected")

	// 4. Initialize Redis
	rdb, err := queue.ConnectRedis(context.Background())
	if err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	defer rdb.Close()
	logger.Info("redis connected")

	// 5. Initialize Repositories
	problemRepo := repository.NewPgProblemRepository(db)
	themeRepo := repository.NewPgThemeRepository(db)
	transactor := repository.NewTransactor(db)

	// 6. External generator adapter
	agentClient := agent.NewClient(config.AppConfig.AgentBaseURL, config.AppConfig.GeneratorTimeout, logger)

	// 7. Initialize Services
	authService := service.NewAuthService(config.AppConfig.AdminUsername, config.AppConfig.AdminPasswordHash)
	scheduleService := service.NewScheduleService(problemRepo, time.Now)
	themeService := service.NewThemeService(themeRepo, logger, time.Now)
	problemService := service.NewProblemService(problemRepo, transactor, logger, time.Now)
	generationService := service.NewGenerationService(
		problemRepo, themeService, scheduleService,
		agentClient, agentClient,
		transactor, logger,
		config.AppConfig.GeneratorTimeout,
		config.AppConfig.RecentThemesLimit,
		config.AppConfig.DefaultBatchSize,
	)

	// 8. Generation worker (as a goroutine)
	generationWorker := worker.NewGenerationWorker(rdb, generationService, logger)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go generationWorker.Start(workerCtx)

	// 9. Router & HTTP Server
	rateLimiter := middleware.NewRateLimiter(rdb, config.AppConfig.RateLimitRequests, config.AppConfig.RateLimitWindowSeconds, logger)
	router := api.NewRouter(authService, problemService, themeService, scheduleService, generationService, generationWorker, rateLimiter)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		// Synchronous generation plans wait on the LLM agent; the write
		// timeout must outlive the per-call generator timeout.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "port", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	logger.Info("shutting down server")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	logger.Info("server and worker stopped gracefully")
}
