package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/config"
	"github.com/forgecraft/ecsruntime/schedule"
)

// setup builds the demo world and scheduler, loading schedule topology from
// --config when given and falling back to the built-in demo manifest
// otherwise. It returns the world so callers can drive extra ticks or
// inspect state, and the scheduler so they can Tick/Run it.
func setup(cmd *cobra.Command) (*ecs.World, ecs.Scheduler, error) {
	configPath, _ := cmd.Flags().GetString("config")
	workers, _ := cmd.Flags().GetInt("workers")
	logJSON, _ := cmd.Flags().GetBool("log-json")

	world, err := buildDemoWorld()
	if err != nil {
		return nil, nil, fmt.Errorf("build demo world: %w", err)
	}

	sched, err := schedule.NewScheduler(world)
	if err != nil {
		return nil, nil, fmt.Errorf("new scheduler: %w", err)
	}

	manifestData := []byte(defaultManifest)
	if configPath != "" {
		manifestData, err = os.ReadFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}
	doc, err := config.Load(manifestData)
	if err != nil {
		return nil, nil, fmt.Errorf("parse config: %w", err)
	}
	if workers > 0 && doc.AsyncWorkers == 0 {
		doc.AsyncWorkers = workers
	}

	format := "keyvalue"
	if logJSON {
		format = "json"
	}
	doc.Instrumentation.LoggingFormat = format

	if _, err := config.Apply(sched, doc, demoRegistry()); err != nil {
		return nil, nil, fmt.Errorf("apply config: %w", err)
	}
	if err := sched.BuildAllGraphs(); err != nil {
		return nil, nil, fmt.Errorf("build schedule graphs: %w", err)
	}

	return world, sched, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demo world for a fixed number of ticks",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		dt, _ := cmd.Flags().GetDuration("dt")

		_, sched, err := setup(cmd)
		if err != nil {
			return err
		}

		if err := sched.Run(context.Background(), steps, dt); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		fmt.Printf("ran %d ticks\n", steps)
		return nil
	},
}

func init() {
	runCmd.Flags().Int("steps", 200, "number of ticks to run")
	runCmd.Flags().Duration("dt", 16*time.Millisecond, "simulated time delta per tick")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Tick the demo world on a cron schedule until interrupted",
	Long: `serve ticks the world on a cron interval (default: every second) rather
than as fast as possible, mimicking a host that drives the world from its own
timer instead of a tight loop. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, _ := cmd.Flags().GetString("cron")
		dt, _ := cmd.Flags().GetDuration("dt")

		_, sched, err := setup(cmd)
		if err != nil {
			return err
		}

		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

		c := cron.New()
		tick := uint64(0)
		if _, err := c.AddFunc(spec, func() {
			if err := sched.Tick(context.Background(), dt); err != nil {
				logger.Error().Err(err).Msg("tick failed")
				return
			}
			tick++
		}); err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", spec, err)
		}

		c.Start()
		defer c.Stop()
		logger.Info().Str("cron", spec).Msg("serving demo world")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		logger.Info().Uint64("ticks", tick).Msg("shutting down")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("cron", "@every 1s", "robfig/cron spec controlling tick cadence")
	serveCmd.Flags().Duration("dt", time.Second, "simulated time delta passed to each tick")
}
