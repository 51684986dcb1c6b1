package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sanjayjain8513/vdo-image-app/internal/alerts"
	"github.com/sanjayjain8513/vdo-image-app/internal/auth"
	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/middleware"
	"github.com/sanjayjain8513/vdo-image-app/internal/server"
	"github.com/sanjayjain8513/vdo-image-app/internal/store"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
	"github.com/sanjayjain8513/vdo-image-app/internal/video"
)

func main() {
	godotenv.Load()
	config.Load()

	server.PrintBanner()
	util.CheckDependencies()

	if err := store.InitUsers(); err != nil {
		log.Fatalf("Failed to load users: %v", err)
	}
	if err := store.InitJobs(); err != nil {
		log.Fatalf("Failed to load video jobs: %v", err)
	}
	store.InitVisitors()

	util.ClearWorkDirs()
	util.StartCleanupInterval()
	middleware.StartRateLimitCleanup()
	auth.StartSweeper()
	video.StartWorkers()

	srv := server.New()

	go func() {
		log.Printf("Listening on %s", srv.Addr)
		alerts.ServerStarted()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	alerts.ServerStopping()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped.")
}
