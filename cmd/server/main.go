package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/config"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/handler"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/observability"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/oracle"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/progression"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/session"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/store"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/ws"
)

const shutdownTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: "dragon-radar",
		Exporter:    cfg.TracingExporter,
		Endpoint:    cfg.TracingEndpoint,
		SampleRatio: cfg.TracingSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing)

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	graph, err := progression.LoadGraphFile(cfg.ProgressionFile)
	if err != nil {
		return fmt.Errorf("load progression: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var source oracle.Source
	if cfg.OracleURL != "" {
		source = oracle.NewHTTPSource(cfg.OracleURL, cfg.OracleAPIKey, cfg.OracleModel, cfg.OracleTimeout)
	} else {
		slog.Warn("no oracle configured, using fallback placement only")
	}
	oracleClient := oracle.NewClient(source, oracle.WithRecorder(metrics))

	sessions := session.NewManager(ctx, graph, oracleClient, st, metrics, session.WithRecorder(metrics))
	defer sessions.Close()

	hub := ws.NewHub()
	router := handler.NewRouter(sessions, cfg.SaveKey)

	hub.OnMessage = router.HandleMessage
	hub.OnDisconnect = router.HandleDisconnect

	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		handleHealth(w, hub, sessions)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(hub, w, r)
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	servers := []*http.Server{srv}

	if cfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux})
	}

	errCh := make(chan error, len(servers))
	for _, s := range servers {
		go func(s *http.Server) {
			slog.Info("server starting", "addr", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(s)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "addr", s.Addr, "error", err)
		}
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.SnapshotStore, error) {
	switch cfg.StoreBackend {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	case "memory":
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(cfg.SavePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func handleHealth(w http.ResponseWriter, hub *ws.Hub, sessions *session.Manager) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"clients":  hub.ClientCount(),
		"sessions": sessions.Count(),
	})
}

func handleWebSocket(hub *ws.Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(uuid.NewString(), hub, conn)
	hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	opts := &slog.HandlerOptions{}

	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	switch cfg.LogFormat {
	case "json":
		h = slog.NewJSONHandler(os.Stdout, opts)
	default:
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
