package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gonzaloobispo/Bioengine/internal/api"
	"github.com/gonzaloobispo/Bioengine/internal/config"
	"github.com/gonzaloobispo/Bioengine/internal/events"
	"github.com/gonzaloobispo/Bioengine/internal/merge"
	"github.com/gonzaloobispo/Bioengine/internal/persistence/postgres"
	"github.com/gonzaloobispo/Bioengine/internal/sources"
	httptransport "github.com/gonzaloobispo/Bioengine/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	weightSources, activitySources := sources.FromConfig(cfg)

	var opts []merge.Option
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		opts = append(opts, merge.WithMirror(postgres.NewMirror(pool)))
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		opts = append(opts, merge.WithPublisher(publisher))
	}

	pipeline := merge.NewPipeline(cfg, weightSources, activitySources, opts...)

	handler := api.NewHandler(pipeline, cfg)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, logger(mux))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("bioengine api listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
