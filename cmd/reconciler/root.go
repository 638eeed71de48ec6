package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hiremate-backend/internal/bootstrap"
	"hiremate-backend/internal/reconcile"
	"hiremate-backend/internal/shared/config"
	"hiremate-backend/internal/shared/storage/db"
	"hiremate-backend/internal/shared/telemetry"
)

const (
	app = "hiremate-reconciler"

	modeLocal  = "local"
	modeRemote = "remote"
)

// settings is what the command runs with after flags, env and defaults are merged.
type settings struct {
	Mode        string        `mapstructure:"mode"`
	APIBase     string        `mapstructure:"api-base"`
	Token       string        `mapstructure:"token"`
	Interval    time.Duration `mapstructure:"interval"`
	Delay       time.Duration `mapstructure:"delay"`
	CallTimeout time.Duration `mapstructure:"call-timeout"`
	Once        bool          `mapstructure:"once"`
}

var rootCmd = &cobra.Command{
	Use:          app,
	Short:        "Schedules AI interviews for qualified candidates and promotes completed ones",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cfg := config.Load()

	flags := rootCmd.Flags()
	flags.String("mode", modeLocal, "pipeline mode: local (in-process services) or remote (HTTP API)")
	flags.String("api-base", cfg.AutomationAPIBase, "API base URL for remote mode")
	flags.String("token", cfg.AutomationToken, "automation bearer token")
	flags.Duration("interval", cfg.AutomationInterval, "time between ticks")
	flags.Duration("delay", cfg.AutomationDelay, "pause between application actions")
	flags.Duration("call-timeout", cfg.AutomationCallTimeout, "timeout for each pipeline call")
	flags.Bool("once", false, "run a single tick and exit")

	for _, name := range []string{"mode", "api-base", "token", "interval", "delay", "call-timeout", "once"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
	viper.SetEnvPrefix("RECONCILE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func loadSettings() (settings, error) {
	var s settings
	if err := viper.Unmarshal(&s); err != nil {
		return s, err
	}
	s.Mode = strings.ToLower(strings.TrimSpace(s.Mode))
	s.Token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s.Token), "Bearer "))
	switch s.Mode {
	case modeLocal, modeRemote:
	default:
		return s, fmt.Errorf("unknown mode %q", s.Mode)
	}
	return s, nil
}

func run(parent context.Context) error {
	cfg := config.Load()
	telemetry.Init(cfg.LogLevel, cfg.LogFormat)

	s, err := loadSettings()
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, cleanup, err := buildPipeline(ctx, cfg, s)
	if err != nil {
		return err
	}
	defer cleanup()

	loop := reconcile.New(pipeline, reconcile.Config{
		Interval:    s.Interval,
		Delay:       s.Delay,
		CallTimeout: s.CallTimeout,
		Token:       s.Token,
		Engine:      bootstrap.Engine(cfg),
	})

	if s.Once {
		report := loop.Tick(ctx)
		telemetry.Info("reconciler.once", map[string]any{"report": report.String()})
		if report.Failures > 0 {
			return errors.New("tick finished with failures")
		}
		return nil
	}
	return loop.Run(ctx)
}

func buildPipeline(ctx context.Context, cfg config.Config, s settings) (reconcile.Pipeline, func(), error) {
	if s.Mode == modeRemote {
		if s.APIBase == "" {
			return nil, nil, errors.New("remote mode requires --api-base")
		}
		telemetry.Info("reconciler.pipeline", map[string]any{"mode": s.Mode, "api_base": s.APIBase})
		return reconcile.NewRemote(s.APIBase, s.Token), func() {}, nil
	}

	a, err := bootstrap.Build(ctx, cfg, bootstrap.Options{
		DBOptions:  db.DefaultReconcilerOptions(),
		SkipRouter: true,
	})
	if err != nil {
		return nil, nil, err
	}
	telemetry.Info("reconciler.pipeline", map[string]any{"mode": s.Mode, "storage": storageName(a)})
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			telemetry.Warn("reconciler.close", map[string]any{"error": err})
		}
	}
	return a.Pipeline(), cleanup, nil
}

func storageName(a *bootstrap.App) string {
	if a.DB == nil {
		return "memory"
	}
	return "postgres"
}
