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

	"github.com/kalsim-labs/kalsim/api"
	"github.com/kalsim-labs/kalsim/api/handlers"
	"github.com/kalsim-labs/kalsim/communication"
	"github.com/kalsim-labs/kalsim/config"
	"github.com/kalsim-labs/kalsim/core"
	"github.com/kalsim-labs/kalsim/market"
	"github.com/kalsim-labs/kalsim/simulation"
	"github.com/kalsim-labs/kalsim/storage"
)

func main() {
	addr := flag.String("addr", config.APIAddr(), "API listen address")
	dataDir := flag.String("data-dir", config.DataDir(), "BadgerDB data directory")
	natsURL := flag.String("nats", config.NATSURL(), "NATS URL (empty to embed a server)")
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	store, err := storage.GetDBStorage(*dataDir)
	if err != nil {
		log.Fatalf("Failed to open artifact store: %v", err)
	}
	defer store.Close()

	url := *natsURL
	if url == "" {
		embedded, err := communication.StartEmbeddedNATS()
		if err != nil {
			log.Printf("Embedded NATS unavailable: %v (events disabled)", err)
		} else {
			url = embedded
		}
	}
	if url != "" {
		core.SetupNATS(url)
	}

	var trendFetcher market.TrendFetcher
	if key := config.SerpAPIKey(); key != "" {
		trendFetcher = &market.SerpTrendFetcher{APIKey: key}
	}

	manager := simulation.NewManager(simulation.Options{
		Store:         store,
		TrendFetcher:  trendFetcher,
		ResearchOptIn: config.ResearchMode(),
		OpenAIKey:     config.OpenAIKey(),
	})

	router := api.NewRouter(handlers.New(manager, trendFetcher))
	server := &http.Server{Addr: *addr, Handler: router}

	go func() {
		log.Printf("API server listening on %s", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	manager.Stop()
	manager.WaitForCompletion()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
