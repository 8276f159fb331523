// Command webrote runs the web pattern-learning service.
//
// Usage:
//
//	webrote -config webrote.yaml            # HTTP service
//	webrote -url https://example.com        # one-shot page extraction
//	MCP_TRANSPORT=stdio webrote             # MCP server over stdio
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/webrote"
	"github.com/hazyhaar/webrote/dbopen"
	"github.com/hazyhaar/webrote/observability"
)

func main() {
	configPath := flag.String("config", "", "path to webrote.yaml config file")
	singleURL := flag.String("url", "", "extract a single URL to stdout and exit")
	patternsPath := flag.String("patterns", "", "patterns file path (overrides config and WEBROTE_PATTERNS_PATH)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *singleURL, *patternsPath); err != nil {
		logger.Error("webrote: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL, patternsPath string) error {
	cfg := &webrote.Config{}
	if configPath != "" {
		loaded, err := webrote.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if patternsPath != "" {
		cfg.PatternsPath = patternsPath
	}

	var eventsDB *sql.DB
	if cfg.EventsDB != "" {
		db, err := dbopen.Open(cfg.EventsDB,
			dbopen.WithMkdirAll(),
			dbopen.WithSchema(observability.Schema))
		if err != nil {
			return fmt.Errorf("open events db: %w", err)
		}
		defer db.Close()
		eventsDB = db
	}

	svc := webrote.NewService(cfg, eventsDB, logger)

	if singleURL != "" {
		return runSingle(ctx, svc, singleURL)
	}
	if os.Getenv("MCP_TRANSPORT") == "stdio" {
		return runMCP(ctx, svc, logger)
	}
	return runHTTP(ctx, svc, logger)
}

func runSingle(ctx context.Context, svc *webrote.Service, url string) error {
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer svc.Close()

	content, err := svc.ExtractPage(ctx, url)
	if err != nil {
		return fmt.Errorf("extract %s: %w", url, err)
	}
	data, _ := json.MarshalIndent(content, "", "  ")
	os.Stdout.Write(data)
	os.Stdout.Write([]byte("\n"))
	return nil
}

func runMCP(ctx context.Context, svc *webrote.Service, logger *slog.Logger) error {
	if err := svc.Start(ctx); err != nil {
		logger.Warn("webrote: browser start issue", "error", err)
	}
	defer svc.Close()

	srv := mcp.NewServer(&mcp.Implementation{Name: "webrote", Version: "1.0.0"}, nil)
	svc.RegisterMCP(srv)

	logger.Info("webrote: MCP server on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func runHTTP(ctx context.Context, svc *webrote.Service, logger *slog.Logger) error {
	if err := svc.Start(ctx); err != nil {
		logger.Warn("webrote: browser start issue", "error", err)
	}
	defer svc.Close()

	addr := ":" + env("PORT", "8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("webrote: HTTP listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
