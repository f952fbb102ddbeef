package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rumzy/unisettle/internal/database"
	"github.com/rumzy/unisettle/internal/email"
	"github.com/rumzy/unisettle/internal/images"
	"github.com/rumzy/unisettle/internal/logging"
	"github.com/rumzy/unisettle/internal/server"
	unistripe "github.com/rumzy/unisettle/internal/stripe"
)

func main() {
	logger := logging.Setup(os.Getenv("UNISETTLE_LOG_LEVEL"))

	port := os.Getenv("UNISETTLE_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("UNISETTLE_DB_PATH")
	if dbPath == "" {
		dbPath = "unisettle.db"
	}

	baseURL := os.Getenv("UNISETTLE_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", port)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("UNISETTLE_POSTMARK_TOKEN"),
		os.Getenv("UNISETTLE_FROM_EMAIL"),
		baseURL,
	)

	cfg := server.Config{
		Stripe: unistripe.Config{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceID:       os.Getenv("STRIPE_PRICE_ID"),
		},
		Images: images.Config{
			Endpoint:      os.Getenv("S3_ENDPOINT"),
			Bucket:        os.Getenv("S3_BUCKET"),
			Region:        os.Getenv("S3_REGION"),
			AccessKey:     os.Getenv("S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("S3_SECRET_KEY"),
			PublicBaseURL: os.Getenv("S3_PUBLIC_URL"),
		},
		BaseURL:     baseURL,
		EmailClient: emailClient,
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("unisettle api starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
