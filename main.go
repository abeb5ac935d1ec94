package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"

	"goord/adapters/ingest"
	"goord/adapters/memstore"
	"goord/adapters/plot"
	"goord/adapters/rng"
	"goord/internal"
	"goord/internal/config"
	"goord/internal/pipeline"
	"goord/ui"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pl := pipeline.New(pipeline.Deps{
		Reader:   ingest.NewReader(),
		Sessions: memstore.NewSessionStore(),
		Renderer: plot.NewRenderer(cfg.Plot.DPI, cfg.Plot.WidthIn, cfg.Plot.HeightIn),
		RNG:      rng.NewSeededAdapter(),
		Config:   cfg.Analysis,
		Logger:   internal.DefaultLogger,
	})

	ctx := context.Background()
	pl.StartSweeper(ctx, cfg.Session.TTL, cfg.Session.SweepInterval)

	server, err := ui.NewServer(cfg, pl)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	group, _ := errgroup.WithContext(ctx)

	// Start pprof server for performance profiling
	if cfg.Profiling.Enabled {
		group.Go(func() error {
			log.Printf("Performance profiling server starting on :%s", cfg.Profiling.Port)
			return http.ListenAndServe(":"+cfg.Profiling.Port, nil)
		})
	}

	group.Go(func() error {
		log.Printf("Starting ordination server on port %s", cfg.Server.Port)
		return server.Run()
	})

	log.Fatal(group.Wait())
}
