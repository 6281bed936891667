package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/flowgen/pkg/activity"
	"github.com/dukex/flowgen/pkg/cmd"
	"github.com/dukex/flowgen/pkg/log"
	"github.com/dukex/flowgen/pkg/metrics"
	"github.com/dukex/flowgen/pkg/otelhelper"
	"github.com/dukex/flowgen/pkg/retention"
	"github.com/dukex/flowgen/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "flowgen-api",
		Usage:                 "Generate and serve automation graphs over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL (memory, file://dir, postgres://..., redis://...)",
				Value:   "memory",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.DurationFlag{
				Name:    "retention",
				Usage:   "Delete stored graphs older than this; 0 keeps them forever",
				Value:   0,
				Sources: cli.EnvVars("RETENTION"),
			},
			&cli.StringFlag{
				Name:    "prune-schedule",
				Usage:   "Cron schedule of the retention sweep",
				Value:   retention.DefaultSchedule,
				Sources: cli.EnvVars("PRUNE_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flowgen API")

			return run(ctx, logger, command)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("Flowgen API stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, command *cli.Command) error {
	opts := []services.GraphsOption{services.WithLogger(logger)}

	if command.Bool("otel-enabled") {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, "flowgen-api")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()

		opts = append(opts, services.WithTracer(tracer))
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	m := metrics.New()
	opts = append(opts, services.WithEventBus(eventBus), services.WithMetrics(m))

	if err := activity.NewListener(logger, m).Register(ctx, eventBus); err != nil {
		return err
	}

	graphService := services.NewGraphs(cmd.NewGenerator(logger), persistence, opts...)

	if maxAge := command.Duration("retention"); maxAge > 0 {
		scheduler := retention.NewScheduler(graphService, command.String("prune-schedule"), maxAge, logger)
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention: %w", err)
		}

		defer func() {
			if err := scheduler.Stop(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to stop retention", "error", err)
			}
		}()
	} else {
		logger.InfoContext(ctx, "Retention disabled")
	}

	api := NewAPI(logger, graphService, m)

	return api.Start(command.Int("port"))
}
