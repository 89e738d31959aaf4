package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpriddy/chorewheel/internal/database"
	"github.com/jpriddy/chorewheel/internal/logging"
	"github.com/jpriddy/chorewheel/internal/rotation"
	"github.com/jpriddy/chorewheel/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("CHOREWHEEL_LOG_LEVEL"), os.Getenv("CHOREWHEEL_LOG_FORMAT"))

	port := os.Getenv("CHOREWHEEL_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CHOREWHEEL_DB_PATH")
	if dbPath == "" {
		dbPath = "chorewheel.db"
	}

	jwtSecret := os.Getenv("CHOREWHEEL_JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("CHOREWHEEL_JWT_SECRET is required")
		os.Exit(1)
	}

	uploadDir := os.Getenv("CHOREWHEEL_UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	strategy, err := rotation.FromName(os.Getenv("CHOREWHEEL_ROTATION_STRATEGY"))
	if err != nil {
		logger.Error("invalid rotation strategy", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, server.Config{
		JWTSecret: jwtSecret,
		UploadDir: uploadDir,
		Strategy:  strategy,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Expired rate-limit entries are swept in the background.
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	go func() {
		fmt.Printf("Chorewheel running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	close(cleanupDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
