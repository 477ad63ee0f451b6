package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/causaview/causaview/internal/database"
	"github.com/causaview/causaview/internal/feed"
	"github.com/causaview/causaview/internal/geoip"
	"github.com/causaview/causaview/internal/server"
	"github.com/causaview/causaview/internal/viewer"
)

func main() {
	port := getEnv("PORT", "8080")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	hmacSecret := os.Getenv("HMAC_SECRET")
	if hmacSecret == "" {
		log.Fatal("HMAC_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migrations applied")

	store, err := feed.New(ctx, feed.Config{
		Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
		PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
		Bucket:         getEnv("S3_BUCKET", "causaview"),
		AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		SecretKey:      os.Getenv("S3_SECRET_KEY"),
		Region:         getEnv("S3_REGION", "auto"),
	})
	if err != nil {
		log.Fatalf("feed storage initialization failed: %v", err)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatalf("feed bucket check failed: %v", err)
	}
	log.Println("feed bucket ready")

	loader := feed.NewLoader(store,
		getEnv("FEED_PREFIX", "data"),
		time.Duration(getEnvInt64("FEED_CACHE_TTL_SECONDS", 300))*time.Second,
	)

	var geoResolver *geoip.Resolver
	if path := os.Getenv("GEOIP_DB_PATH"); path != "" {
		geoResolver, err = geoip.New(path)
		if err != nil {
			log.Printf("geoip disabled: %v", err)
		} else {
			defer func() { _ = geoResolver.Close() }()
			log.Println("geoip database loaded")
		}
	}

	sessions := viewer.NewRegistry(
		time.Duration(getEnvInt64("SESSION_TTL_SECONDS", int64(viewer.DefaultSessionTTL/time.Second))) * time.Second,
	)
	pruneCtx, pruneCancel := context.WithCancel(context.Background())
	defer pruneCancel()
	sessions.StartPruneLoop(pruneCtx, 1*time.Minute)

	srv := server.New(server.Config{
		DB:               db.Pool,
		Pinger:           db,
		Feeds:            loader,
		Sessions:         sessions,
		GeoResolver:      geoResolver,
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		HMACSecret:       hmacSecret,
		S3PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
		StrictRender:     getEnv("STRICT_RENDER", "false") == "true",
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("causaview listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	log.Println("shutdown complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
