// Package scheduler wires scheduler runtime dependencies and runs the
// lifecycle sweep loop.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	bookingservice "github.com/pitchside/fieldbook/internal/booking/service"
	"github.com/pitchside/fieldbook/internal/event"
	"github.com/pitchside/fieldbook/internal/match/invite"
	matchservice "github.com/pitchside/fieldbook/internal/match/service"
	notifdomain "github.com/pitchside/fieldbook/internal/notification/domain"
	notifsqlite "github.com/pitchside/fieldbook/internal/notification/storage/sqlite"
	"github.com/pitchside/fieldbook/internal/schedule/registry"
	"github.com/pitchside/fieldbook/internal/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// RuntimeConfig controls scheduler startup, storage paths, and sweep cadence.
type RuntimeConfig struct {
	Port                int
	DBPath              string
	NotificationsDBPath string
	SweepInterval       time.Duration
}

const (
	defaultSchedulerPort   = 8086
	defaultSchedulerDB     = "data/scheduler.db"
	defaultNotificationsDB = "data/notifications.db"
	defaultSweepInterval   = time.Minute
)

// Run starts scheduler runtime dependencies and the lifecycle sweep loop.
// It blocks until ctx is cancelled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultSchedulerPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultSchedulerDB
	}
	if strings.TrimSpace(cfg.NotificationsDBPath) == "" {
		cfg.NotificationsDBPath = defaultNotificationsDB
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	for _, path := range []string{cfg.DBPath, cfg.NotificationsDBPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create scheduler storage dir: %w", err)
			}
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open scheduler sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close scheduler sqlite store: %v", closeErr)
		}
	}()

	notifStore, err := notifsqlite.Open(cfg.NotificationsDBPath)
	if err != nil {
		return fmt.Errorf("open notifications sqlite store: %w", err)
	}
	defer func() {
		if closeErr := notifStore.Close(); closeErr != nil {
			log.Printf("close notifications sqlite store: %v", closeErr)
		}
	}()

	reg := registry.NewRegistry(store)
	slots, err := store.ListSlots(ctx)
	if err != nil {
		return fmt.Errorf("list persisted slots: %w", err)
	}
	if err := reg.Load(slots); err != nil {
		return fmt.Errorf("load slot registry: %w", err)
	}

	logger := slog.Default()
	bus := event.NewBus(logger)

	notifService := notifdomain.NewService(notifStore, nil, nil)
	bus.Subscribe(notifdomain.NewWriter(notifService))
	bus.Subscribe(notifdomain.NewAlerter(logger))

	var verifier *invite.VerifierConfig
	if verifierCfg, verifierErr := invite.LoadVerifierConfigFromEnv(nil); verifierErr != nil {
		logger.Info("join grants disabled", "reason", verifierErr)
	} else {
		verifier = &verifierCfg
	}

	bookingService := bookingservice.NewService(store, reg, store, bus, logger)
	matchService := matchservice.NewService(store, store, store, bus, verifier, logger)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on scheduler port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("scheduler.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	log.Printf("scheduler server listening at %v", listener.Addr())
	return runSweep(ctx, bookingService, matchService, cfg.SweepInterval, logger)
}

// runSweep drives the booking and match expiry sweeps until ctx is cancelled.
func runSweep(ctx context.Context, bookings *bookingservice.Service, matches *matchservice.Service, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := time.Now().UTC()
			expiredBookings, err := bookings.ExpireStale(ctx, now)
			if err != nil {
				logger.Error("booking sweep failed", "error", err)
			}
			expiredMatches, err := matches.ExpireStale(ctx, now)
			if err != nil {
				logger.Error("match sweep failed", "error", err)
			}
			if expiredBookings > 0 || expiredMatches > 0 {
				logger.Info("lifecycle sweep settled stale records",
					"bookings", expiredBookings,
					"matches", expiredMatches,
				)
			}
		}
	}
}
