// Package scheduler parses scheduler command flags and launches the
// scheduler runtime.
package scheduler

import (
	"context"
	"flag"
	"time"

	schedulerapp "github.com/pitchside/fieldbook/internal/app/scheduler"
	entrypoint "github.com/pitchside/fieldbook/internal/platform/cmd"
)

// Config holds scheduler command configuration.
type Config struct {
	Port                int           `env:"FIELDBOOK_SCHEDULER_PORT" envDefault:"8086"`
	DBPath              string        `env:"FIELDBOOK_SCHEDULER_DB_PATH" envDefault:"data/scheduler.db"`
	NotificationsDBPath string        `env:"FIELDBOOK_NOTIFICATIONS_DB_PATH" envDefault:"data/notifications.db"`
	SweepInterval       time.Duration `env:"FIELDBOOK_SCHEDULER_SWEEP_INTERVAL" envDefault:"1m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The scheduler health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The scheduler SQLite database path")
	fs.StringVar(&cfg.NotificationsDBPath, "notifications-db-path", cfg.NotificationsDBPath, "The notifications SQLite database path")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "Booking and match expiry sweep interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the scheduler runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScheduler, func(context.Context) error {
		return schedulerapp.Run(ctx, schedulerapp.RuntimeConfig{
			Port:                cfg.Port,
			DBPath:              cfg.DBPath,
			NotificationsDBPath: cfg.NotificationsDBPath,
			SweepInterval:       cfg.SweepInterval,
		})
	})
}
