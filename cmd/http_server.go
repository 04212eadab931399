package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/approval"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/metrics"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/ledger"
	"github.com/frahmantamala/leave-management/internal/policy"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/rest"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	deps, err := initializeDependencies(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	subscribeAudit(deps.Bus, deps.Logger)

	router, err := setupRoutes(deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", cfg.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := internal.ShutdownContext(context.Background())
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.Close(ctx)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) (*chi.Mux, error) {
	cfg := deps.Config

	privateKey, err := cfg.Security.GetPrivateKey()
	if err != nil {
		return nil, err
	}
	publicKey, err := cfg.Security.GetPublicKey()
	if err != nil {
		return nil, err
	}
	tokens := auth.NewJWTTokenGenerator(privateKey, publicKey, cfg.Security.AccessTokenDuration)

	opts := rest.RouterOptions{
		OpenAPIPath: cfg.Server.OpenAPIPath,
		Health: map[string]rest.Pinger{
			"database": deps.SQL,
		},
	}
	if deps.Redis != nil {
		opts.Health["redis"] = rest.PingFunc(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		})
	}
	for _, origin := range strings.Split(cfg.Server.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			opts.AllowedOrigins = append(opts.AllowedOrigins, origin)
		}
	}

	if _, statErr := os.Stat(cfg.Server.OpenAPIPath); statErr == nil {
		doc, err := middleware.LoadOpenAPI(context.Background(), cfg.Server.OpenAPIPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load openapi document: %w", err)
		}
		if opts.Validator, err = middleware.OpenAPIValidator(doc); err != nil {
			return nil, fmt.Errorf("failed to build openapi validator: %w", err)
		}
	} else {
		deps.Logger.Warn("openapi document not found, request validation disabled", "path", cfg.Server.OpenAPIPath)
		opts.OpenAPIPath = ""
	}

	if cfg.Observability.Metrics.Enabled {
		metrics.Register(prometheus.DefaultRegisterer)
		opts.MetricsPath = cfg.Observability.Metrics.Path
		opts.MetricsHandler = metrics.Handler()
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:     auth.NewHandler(tokens),
		Leave:    leave.NewHandler(deps.Leave),
		Approval: approval.NewHandler(deps.Approval),
		Ledger:   ledger.NewHandler(deps.Ledger),
		Policy:   policy.NewHandler(deps.Policy),
		Calendar: calendar.NewHandler(deps.Calendar),
	}, opts, deps.Logger)

	return router, nil
}
