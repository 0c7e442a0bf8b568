package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/creatorscout/creatorscout/internal/config"
	"github.com/creatorscout/creatorscout/internal/discover"
	"github.com/creatorscout/creatorscout/internal/httpapi"
	"github.com/creatorscout/creatorscout/internal/llm"
	"github.com/creatorscout/creatorscout/internal/search"
	"github.com/creatorscout/creatorscout/internal/store"
	"github.com/creatorscout/creatorscout/internal/util"
	"github.com/creatorscout/creatorscout/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version", "--version":
		fmt.Println(version.Current)
		return
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "discover":
		os.Exit(runDiscover(os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", strings.TrimSpace(os.Getenv("CONFIG_FILE")), "Path to YAML config file (env: CONFIG_FILE)")
	addr := fs.String("addr", "", "Listen address, overrides config (env: ADDR, PORT)")
	dbPath := fs.String("db", "", "SQLite database path, overrides config (env: DB_PATH)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "store error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}
	defer st.Close()

	svc, err := buildService(ctx, cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}
	logger.Printf("discovery mode: %s", svc.Mode().Label)

	api := httpapi.NewServer(httpapi.Options{
		Discoverer: svc,
		Store:      st,
		Logger:     logger,
		Timeout:    cfg.Discovery.RequestTimeout,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "serve failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}
	logger.Printf("shutdown complete")
	return 0
}

func runDiscover(args []string) int {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", strings.TrimSpace(os.Getenv("CONFIG_FILE")), "Path to YAML config file (env: CONFIG_FILE)")
	keyword := fs.String("keyword", "", "Niche keyword to search for (required)")
	country := fs.String("country", "USA", "Target country")
	minFollowers := fs.Int64("min-followers", 1000, "Minimum follower count")
	maxFollowers := fs.Int64("max-followers", 100000, "Maximum follower count, 0 for unbounded")
	quantity := fs.Int("quantity", 10, "How many profiles to return")
	dbPath := fs.String("db", "", "SQLite database path, overrides config (env: DB_PATH)")
	noStore := fs.Bool("no-store", false, "Print results without persisting them")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*keyword) == "" {
		_, _ = fmt.Fprintln(os.Stderr, "discover requires -keyword")
		return 2
	}

	// Results go to stdout as JSON; logs stay on stderr.
	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildService(ctx, cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	runCtx := ctx
	if cfg.Discovery.RequestTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Discovery.RequestTimeout)
		defer cancel()
	}

	profiles, err := svc.Discover(runCtx, discover.Request{
		Keyword:      *keyword,
		Country:      *country,
		MinFollowers: *minFollowers,
		MaxFollowers: *maxFollowers,
		Quantity:     *quantity,
	})
	if err != nil {
		if errors.Is(err, discover.ErrNotConfigured) {
			_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", err)
			return 2
		}
		_, _ = fmt.Fprintf(os.Stderr, "discover failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}

	if !*noStore {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "store error: %s\n", util.RedactSecrets(err.Error()))
			return 2
		}
		defer st.Close()

		added := 0
		for _, p := range profiles {
			ok, err := st.Add(ctx, p)
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "persist %s failed: %s\n", p.Username, util.RedactSecrets(err.Error()))
				continue
			}
			if ok {
				added++
			}
		}
		if err := st.AddSearch(ctx, store.SearchRecord{
			Keyword:      *keyword,
			MinFollowers: *minFollowers,
			MaxFollowers: *maxFollowers,
			Country:      *country,
			ResultsCount: len(profiles),
		}); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "record history failed: %s\n", err)
		}
		logger.Printf("found %d profiles, added %d new", len(profiles), added)
	}

	out, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "encode results: %s\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func buildService(ctx context.Context, cfg config.Config, logger *log.Logger) (*discover.Service, error) {
	var provider search.Provider
	if cfg.HasSearchProvider() {
		client, err := search.NewClient(search.ClientConfig{
			APIKey:       cfg.Search.APIKey,
			EngineID:     cfg.Search.EngineID,
			BaseURL:      cfg.Search.BaseURL,
			RateLimitRPS: cfg.Search.RateLimitRPS,
		})
		if err != nil {
			return nil, fmt.Errorf("search client: %w", err)
		}
		provider = client
	}

	var model llm.Client
	if cfg.HasGenerativeClient() {
		var err error
		model, err = llm.New(ctx, llm.Config{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("model client: %w", err)
		}
	}

	return discover.NewService(discover.Options{
		SearchProvider: provider,
		Model:          model,
		Logger:         logger,
	}), nil
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `creatorscout: Instagram creator discovery service (Google search + AI pipeline)

Usage:
  creatorscout <command> [flags]

Commands:
  serve     Run the HTTP API server
  discover  Run one discovery pass from the command line
  version   Print the version

Examples:
  creatorscout serve -addr :8001 -db ./influencers.db
  creatorscout discover -keyword "fitness yoga" -country UK -quantity 5

Environment:
  CONFIG_FILE        Path to an optional YAML config file
  PORT, ADDR         Listen address for serve (PORT wins, as ":<port>")
  DB_PATH            SQLite database path
  GOOGLE_API_KEY     Google Custom Search API key
  GOOGLE_CSE_ID      Google Custom Search engine id
  LLM_PROVIDER       anthropic or gemini (auto-detected from keys when unset)
  LLM_MODEL          Model name override
  ANTHROPIC_API_KEY  Anthropic API key
  GEMINI_API_KEY     Gemini API key

Without GOOGLE_* credentials discovery falls back to AI suggestions; with no
credentials at all, discovery requests fail with a configuration error.

`)
}
