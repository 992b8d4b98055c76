package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/probecase/clinsim/internal/config"
	"github.com/probecase/clinsim/internal/domain/analyzer"
	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/domain/scoring"
	"github.com/probecase/clinsim/internal/llm"
	"github.com/probecase/clinsim/internal/mcp"
	"github.com/probecase/clinsim/internal/report"
	"github.com/probecase/clinsim/internal/sqlite"
	"github.com/probecase/clinsim/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg)

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := applyMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	matchTable := scoring.DefaultMatchTable()
	if cfg.Cases.MatchTable != "" {
		matchTable, err = scoring.LoadMatchTable(cfg.Cases.MatchTable)
		if err != nil {
			logger.Error("failed to load match table", "path", cfg.Cases.MatchTable, "error", err)
			os.Exit(1)
		}
	}

	cases := clinicalcase.NewLoader(cfg.Cases.Dir, logger)
	llmClient := llm.NewClient(llm.Config{Model: cfg.OpenAI.Model}, logger)
	archive := sqlite.NewArchiveRepository(db)

	store := encounter.NewStore(encounter.StoreConfig{
		TTL:           time.Duration(cfg.Session.TTLMinutes) * time.Minute,
		SweepInterval: time.Duration(cfg.Session.SweepIntervalSecs) * time.Second,
	}, logger)
	store.Start()
	defer store.Close()

	rules := scoring.NewRules(llmClient, matchTable, logger)
	feedbackAnalyzer := analyzer.New(rules, logger)
	encounterSvc := encounter.NewService(store, cases, llmClient, llmClient, feedbackAnalyzer, archive, archive, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Encounters: encounterSvc,
			Reports:    report.NewRenderer(),
		},
		AuthEnabled:   cfg.Auth.Enabled,
		AuthToken:     cfg.Auth.Token,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Transport.Mode == "stdio" {
		err = serveStdio(ctx, logger, mcpServer)
	} else {
		err = serveHTTP(ctx, logger, mcpServer, fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	}
	if err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildLogger routes logs to stderr in stdio mode so stdout stays clean
// for JSON-RPC, and optionally to a size-capped file named by
// CLINSIM_LOG_PATH.
func buildLogger(cfg config.Config) *slog.Logger {
	out := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		out = os.Stderr
	}
	if logPath := os.Getenv("CLINSIM_LOG_PATH"); logPath != "" {
		if fileOut, err := openCappedLog(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			out = fileOut
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// serveStdio blocks until stdin closes or the context is canceled.
func serveStdio(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport")
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}

func serveHTTP(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, addr string) error {
	streamHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamHandler)
	mux.Handle("/mcp/", streamHandler)
	mux.Handle("/rpc", mcp.NewHTTPHandler(server, logger))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	httpServer := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func applyMigrations(db *sqlite.DB) error {
	data, err := migrations.FS.ReadFile("001_initial_schema.up.sql")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	if _, err := db.Exec(string(data)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

const maxLogBytes = 8 * 1024 * 1024

// cappedLog writes to a file and rotates it to <path>.old when it
// outgrows maxLogBytes. One generation of history is enough for a
// local tool server.
type cappedLog struct {
	mu   sync.Mutex
	path string
	file *os.File
	size int64
}

func openCappedLog(path string) (*cappedLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	return &cappedLog{path: path, file: file, size: info.Size()}, nil
}

func (l *cappedLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size+int64(len(p)) > maxLogBytes {
		if err := l.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := l.file.Write(p)
	l.size += int64(n)
	return n, err
}

func (l *cappedLog) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(l.path, l.path+".old"); err != nil {
		return err
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	l.file = file
	l.size = 0
	return nil
}
