package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatepass.dev/internal/config"
	"gatepass.dev/internal/directory"
	"gatepass.dev/internal/httpapi"
	"gatepass.dev/internal/obs"
	"gatepass.dev/internal/session"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("GATEPASS_COMMIT"))

	cfg := config.FromEnv()
	if missing := cfg.MissingSettings(); len(missing) > 0 {
		// Start anyway: /readyz reports the defect, requests answer 500.
		log.Printf("WARNING: missing required settings: %v", missing)
	}

	dir := directory.NewClient(cfg.DirectoryURL, cfg.DirectoryToken)
	issuer := session.NewIssuer(dir, cfg.SessionSecret, session.WithTTL(cfg.SessionTTL))

	probe := httpapi.ReadyProbe{MissingSettings: cfg.MissingSettings}
	api := httpapi.New(probe, version, dir, issuer, cfg.RateBurst, cfg.RatePerSec)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting gatepass-api %s on %s (directory: %s)", version, srv.Addr, cfg.DirectoryURL)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
