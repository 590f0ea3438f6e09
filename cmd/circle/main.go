package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gemstone08/circle/internal/api"
	"github.com/gemstone08/circle/internal/config"
	"github.com/gemstone08/circle/internal/db"
	"github.com/gemstone08/circle/internal/sink"
	"github.com/gemstone08/circle/internal/sink/sheets"
	"github.com/gemstone08/circle/internal/version"
)

var (
	listen      = flag.String("listen", ":8000", "Listen address")
	configFile  = flag.String("config", "", "Path to a JSON config file (defaults apply when empty)")
	dbPath      = flag.String("db", "", "SQLite attempt log path (overrides config and CIRCLE_DB)")
	noDB        = flag.Bool("no-db", false, "Do not keep a local attempt log")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const shutdownTimeout = 5 * time.Second

// loadConfig layers the config file, the environment, then flags.
func loadConfig(path, dbOverride string, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg := config.EmptyConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if dbOverride != "" {
		cfg.DBPath = &dbOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// appenders returns the sinks each attempt is written to. The database may
// be nil.
func appenders(cfg *config.Config, store *db.DB) sink.Multi {
	var out sink.Multi
	if store != nil {
		out = append(out, store)
	}
	if cfg.GetSheetEnabled() {
		out = append(out, sheets.New(sheets.Config{
			SpreadsheetID:   cfg.GetSheetID(),
			SpreadsheetName: cfg.GetSheetName(),
			Worksheet:       cfg.GetSheetWorksheet(),
			CredentialsFile: cfg.GetSheetCredsPath(),
		}))
		if id := cfg.GetSheetID(); id != "" {
			log.Printf("logging attempts to spreadsheet %s", id)
		} else {
			log.Printf("logging attempts to spreadsheet %q", cfg.GetSheetName())
		}
	}
	return out
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := loadConfig(*configFile, *dbPath, os.LookupEnv)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Printf("%s: target_radius=%.0f score_slope=%.0f bins=%d aggregation=%s",
		version.String(), cfg.GetTargetRadius(), cfg.GetScoreSlope(), cfg.GetBins(), cfg.GetAggregation())

	var store *db.DB
	if !*noDB {
		store, err = db.NewDB(cfg.GetDBPath())
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
	}

	notifier := sink.NewNotifier(appenders(cfg, store), cfg.GetSinkQueueSize(), cfg.GetSinkTimeout())

	var lister api.AttemptLister
	if store != nil {
		lister = store
	}
	mux := api.NewServer(cfg, notifier, lister).ServeMux()
	if store != nil {
		if err := store.AttachAdminRoutes(mux); err != nil {
			log.Fatalf("failed to attach admin routes: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              *listen,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		if err := notifier.Close(shutdownCtx); err != nil {
			log.Printf("attempt sink did not drain: %v", err)
		}
		st := notifier.Stats()
		log.Printf("attempt sink: sent=%d failed=%d dropped=%d", st.Sent, st.Failed, st.Dropped)
	}()

	log.Printf("listening on %s", *listen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to start server: %v", err)
	}
	wg.Wait()
	log.Printf("graceful shutdown complete")
}
