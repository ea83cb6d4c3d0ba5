// ABOUTME: legisbot CLI: session, chat, history and admin commands plus the interactive TUI
// ABOUTME: Every command restores the stored session and applies the same route guard as the TUI

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/config"
	"github.com/2389/legisbot/internal/credential"
	"github.com/2389/legisbot/internal/logging"
	"github.com/2389/legisbot/internal/route"
	"github.com/2389/legisbot/internal/session"
)

var (
	configPath string
	baseURL    string
	verbose    bool
)

var (
	errNotLoggedIn  = errors.New("no hay una sesión activa, ejecutá 'legisbot login'")
	errAdminOnly    = errors.New("esta acción requiere permisos de administrador")
	errUnknownRoute = errors.New("unknown route")
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "legisbot",
	Short: "Consultas sobre documentos legislativos",
	Long: `legisbot is the terminal client for the legislative document Q&A service.

Run without arguments to start the interactive interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $LEGISBOT_CONFIG or ~/.config/legisbot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// app is the wired client stack shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   credential.Store
	client  *api.Client
	session *session.Manager
}

func newApp(ctx context.Context) (*app, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}

	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = zapcore.DebugLevel.String()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	store, err := credential.NewStore(ctx, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	client := api.New(api.Options{
		BaseURL:     cfg.Backend.BaseURL,
		Timeout:     cfg.Backend.Timeout,
		Credentials: store,
		Logger:      logger,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		client:  client,
		session: session.New(store, client, nil, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing credential store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp runs fn with a wired app that is closed afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// require restores the session and checks that r would render for it.
// A pending profile does not block: onboarding is a landing choice made
// after login, not a guard rule.
func (a *app) require(ctx context.Context, r route.Route) (*api.User, error) {
	a.session.Bootstrap(ctx)
	snap := a.session.Snapshot()

	d := route.Decide(snap.CurrentUser, snap.Loading, r)
	if d.Kind == route.Render {
		return snap.CurrentUser, nil
	}
	switch d.To {
	case route.Login:
		return nil, errNotLoggedIn
	case route.Dashboard:
		return nil, errAdminOnly
	}
	return nil, fmt.Errorf("%w: %s", errUnknownRoute, d.To)
}
