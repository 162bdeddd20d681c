package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gonzaloobispo/Bioengine/internal/config"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/events"
	"github.com/gonzaloobispo/Bioengine/internal/merge"
	"github.com/gonzaloobispo/Bioengine/internal/persistence/postgres"
	"github.com/gonzaloobispo/Bioengine/internal/runlock"
	"github.com/gonzaloobispo/Bioengine/internal/sources"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

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

	report, err := pipeline.Run(ctx)
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			log.Fatalf("another merge run is in progress")
		}
		log.Fatalf("merge failed: %v", err)
	}

	log.Printf("weight master: %d rows", report.WeightRows)
	log.Printf("activity master: %d rows", report.ActivityRows)
	if report.TotalDropped() > 0 {
		reasons := make([]string, 0, len(report.Drops))
		for reason := range report.Drops {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			log.Printf("dropped %d rows: %s", report.Drops[domain.DropReason(reason)], reason)
		}
	}
	for source, msg := range report.SourceErrors {
		log.Printf("source %s unavailable: %s", source, msg)
	}
}
