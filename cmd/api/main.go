package main

import (
	"log"

	"goord/adapters/ingest"
	"goord/adapters/memstore"
	"goord/adapters/plot"
	"goord/adapters/rng"
	"goord/internal/config"
	"goord/internal/pipeline"
	"goord/ui"

	"github.com/joho/godotenv"
)

func main() {
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
	})

	app := ui.NewApp(cfg, pl)
	log.Printf("Starting ordination API on port %s", cfg.Server.APIPort)
	log.Fatal(app.Run())
}
