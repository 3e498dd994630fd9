package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/auth"
	"github.com/fjsui0423-max/pachi-money/internal/cache"
	"github.com/fjsui0423-max/pachi-money/internal/config"
	"github.com/fjsui0423-max/pachi-money/internal/household"
	"github.com/fjsui0423-max/pachi-money/internal/metrics"
	"github.com/fjsui0423-max/pachi-money/internal/middleware"
	"github.com/fjsui0423-max/pachi-money/internal/notify"
	"github.com/fjsui0423-max/pachi-money/internal/service"
	"github.com/fjsui0423-max/pachi-money/internal/storage/sqlite"
	"github.com/fjsui0423-max/pachi-money/internal/transfer"
	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)))
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	entries := cache.NewEntryCache(store.FetchEntries, cfg.CacheSize, cfg.CacheTTL, m)
	go entries.RunJanitor(ctx, cfg.CacheTTL)

	notifier, err := newNotifier(ctx, cfg)
	if err != nil {
		return err
	}
	defer notifier.Close()
	// Every change, local or from another instance, drops the snapshot.
	notifier.OnChange(func(ctx context.Context, msg *notify.LedgerChanged) error {
		entries.Invalidate(msg.HouseholdID)
		return nil
	})

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	households := household.NewManager(store, m)
	xfer := transfer.NewService(store, m)

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager, api.PublicProcedures...),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(
		service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store), interceptors))
	mux.Handle(api.NewHouseholdServiceHandler(
		service.NewHouseholdService(store, households, entries, notifier, cfg.PublicURL), interceptors))
	mux.Handle(api.NewEntryServiceHandler(
		service.NewEntryService(store, households, xfer, entries, notifier), interceptors))
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(corsMiddleware(mux), &http2.Server{})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", cfg.PublicURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newNotifier connects the AMQP fan-out when configured. Without it the
// notifier only reaches handlers in this process.
func newNotifier(ctx context.Context, cfg *config.Config) (*notify.Notifier, error) {
	if cfg.AMQPURL == "" {
		return notify.NewNotifier(nil), nil
	}

	client, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	notifier := notify.NewNotifier(client)
	go func() {
		if err := client.Consume(ctx, notifier.Receive); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Change consumer stopped", "error", err)
		}
	}()
	slog.Info("Change notifications enabled", "exchange", cfg.AMQPExchange)
	return notifier, nil
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
