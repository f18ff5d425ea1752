package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/staffdesk/internal"
	"github.com/frahmantamala/staffdesk/internal/auth"
	"github.com/frahmantamala/staffdesk/internal/console"
	"github.com/frahmantamala/staffdesk/internal/core/events"
	"github.com/frahmantamala/staffdesk/internal/employee"
	"github.com/frahmantamala/staffdesk/internal/gateway"
	"github.com/frahmantamala/staffdesk/internal/logs"
	"github.com/frahmantamala/staffdesk/internal/session"
	"github.com/frahmantamala/staffdesk/internal/user"
	"github.com/frahmantamala/staffdesk/pkg/logger"
)

var noPersist bool

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive console",
	Long:  `Sign in and manage employees, users and audit logs interactively.`,
	Run: func(cmd *cobra.Command, args []string) {
		startConsole()
	},
}

type Dependencies struct {
	Config   *internal.Config
	Sessions session.Store
	Gateway  *gateway.Client
	App      *console.App
	Logger   *slog.Logger
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	log := logger.LoggerWrapper()

	var sessions session.Store
	if noPersist {
		sessions = session.NewMemoryStore()
	} else {
		statePath, err := cfg.Session.ResolveStatePath()
		if err != nil {
			return nil, err
		}
		sessions, err = session.OpenSQLiteStore(statePath, log)
		if err != nil {
			return nil, err
		}
	}

	api := gateway.NewClient(gateway.Config{
		BaseURL:        cfg.API.BaseURL,
		RequestTimeout: cfg.API.RequestTimeout,
	}, sessions, log)

	bus := events.NewEventBus(log)
	surface := console.NewSurface(os.Stdout)
	prompt := console.NewPrompter(os.Stdin, os.Stdout)

	guard := auth.NewLockoutGuard(surface, bus, log)
	authSvc := auth.NewService(api, sessions, guard, bus, log)
	employeeSvc := employee.NewService(api, log)
	userSvc := user.NewService(api, sessions, log)
	logsSvc := logs.NewService(api, sessions, log)

	app := console.NewApp(authSvc, employeeSvc, userSvc, logsSvc, sessions, bus, surface, prompt, log)

	return &Dependencies{
		Config:   cfg,
		Sessions: sessions,
		Gateway:  api,
		App:      app,
		Logger:   log,
	}, nil
}

func startConsole() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps.Logger.Info("console starting", "api_url", deps.Config.API.BaseURL)

	if err := deps.App.Run(ctx); err != nil {
		deps.Logger.Error("console exited with error", "error", err)
		os.Exit(1)
	}
}

func init() {
	consoleCmd.Flags().BoolVar(&noPersist, "no-persist", false, "keep the session in memory only")
}
