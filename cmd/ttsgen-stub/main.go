package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/psilabvnorg/ttsgen/internal/config"
	"github.com/psilabvnorg/ttsgen/internal/observability"
	"github.com/psilabvnorg/ttsgen/internal/stub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	stepDelay := flag.Duration("step-delay", 300*time.Millisecond, "pause between streamed progress events")
	bindAddr := flag.String("bind", cfg.BindAddr, "listen address")
	flag.Parse()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	server := stub.New(*stepDelay, cfg.AllowAnyOrigin, metrics)
	httpServer := &http.Server{
		Addr:    *bindAddr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("stub listening on %s", *bindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
