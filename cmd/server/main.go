package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpclib "google.golang.org/grpc"

	"github.com/bharadwajkrishnan/finai/internal/adapter/backend"
	grpcadapter "github.com/bharadwajkrishnan/finai/internal/adapter/grpc"
	"github.com/bharadwajkrishnan/finai/internal/adapter/httpapi"
	"github.com/bharadwajkrishnan/finai/internal/adapter/repository/sqlstore"
	"github.com/bharadwajkrishnan/finai/internal/config"
	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
	"github.com/bharadwajkrishnan/finai/internal/usecase/assetsync"
	"github.com/bharadwajkrishnan/finai/internal/usecase/assistant"
	"github.com/bharadwajkrishnan/finai/internal/usecase/ordering"
	"github.com/bharadwajkrishnan/finai/internal/usecase/selection"
	"github.com/bharadwajkrishnan/finai/internal/usecase/tracker"
)

const healthProbeInterval = 30 * time.Second

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	// 1. Setup view-preference store
	db, err := sqlstore.NewDB(cfg.DBDriver, cfg.DBConnStr)
	if err != nil {
		log.Fatalf("Failed to open preference store: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate preference store: %v", err)
	}

	orderRepo := sqlstore.NewOrderRepository(db)
	tokenRepo := sqlstore.NewTokenRepository(db)

	// 2. Backend client
	client := backend.NewClient(backend.Options{
		BaseURL:        cfg.BackendURL,
		Tokens:         tokenRepo,
		RateLimit:      cfg.BackendRateLimit,
		Burst:          cfg.BackendBurst,
		FamilyCacheTTL: cfg.FamilyCacheTTL,
		OnUnauthorized: func() {
			logger.L.Warn("Session expired, stored tokens cleared; log in again to continue")
		},
	})

	// 3. Services
	ids := assetsync.NewIDGenerator("tmp")
	assetService := assetsync.NewService(client, ids)
	session := tracker.NewSession(assetService, client.FamilyMembers(), ordering.NewStore(orderRepo), selection.NewStore())
	chat := assistant.NewService(client, assetsync.NewIDGenerator("msg"), session.Load)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := session.Load(ctx); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			logger.L.Warn("No valid session token; assets will load after login", "error", err)
		} else {
			logger.L.Error("Initial asset load failed", "error", err)
		}
	}
	go session.RunPriceRefresh(ctx, cfg.PriceRefreshInterval)

	// 4. Start HTTP API
	router := httpapi.NewRouter(httpapi.NewHandler(session, chat), httpapi.Options{
		APIToken:       cfg.APIToken,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.L.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 5. Start gRPC health server
	grpcServer, health := grpcadapter.NewServer(cfg.APIToken, func(ctx context.Context) error {
		_, err := client.List(ctx)
		return err
	})
	go health.Run(ctx, healthProbeInterval)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.GRPCPort, err)
	}
	go func() {
		logger.L.Info("gRPC server listening", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(cancel, session, httpServer, grpcServer, health)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the servers
func waitForShutdown(cancel context.CancelFunc, session *tracker.Session, httpServer *http.Server, grpcServer *grpclib.Server, health *grpcadapter.HealthReporter) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.L.Info("Shutting down gracefully", "signal", sig.String())

	cancel()
	session.Close()
	health.Shutdown()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("HTTP server shutdown failed", "error", err)
	}

	grpcServer.GracefulStop()
	logger.L.Info("Servers stopped")
}
