package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subcal/internal/cli"
	"subcal/internal/config"
	applog "subcal/internal/log"
	"subcal/internal/output"
	"subcal/internal/services"
	"subcal/internal/storage"
)

// opener returns the subscription store and a close function.
type opener func(ctx context.Context, cfg *config.Config) (services.SubscriptionStore, func() error, error)

func openSQLite(_ context.Context, cfg *config.Config) (services.SubscriptionStore, func() error, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

// app is the per-invocation state shared by subcommands.
type app struct {
	subs    *services.SubscriptionService
	printer output.Printer
	owner   string
	close   func() error
}

type rootOptions struct {
	owner    string
	dbPath   string
	json     bool
	color    bool
	logLevel string
}

func newRootCmd(open opener) *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	root := &cobra.Command{
		Use:           "subcalctl",
		Short:         "Manage subscriptions and inspect the renewal calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, opts, open)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.close != nil {
				return a.close()
			}
			return nil
		},
	}

	cli.LoadEnvFile()
	f := root.PersistentFlags()
	f.StringVar(&opts.owner, "owner", os.Getenv("SUBCAL_OWNER"), "owner id (default $SUBCAL_OWNER)")
	f.StringVar(&opts.dbPath, "db", "", "SQLite database path (default $SQLITE_DB_PATH)")
	f.BoolVar(&opts.json, "json", false, "print JSON instead of tables")
	f.BoolVar(&opts.color, "color", false, "colorize table output")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		listCmd(a),
		addCmd(a),
		endCmd(a),
		statsCmd(a),
		calendarCmd(a),
		yearCmd(a),
		remindersCmd(a),
		brandCmd(a),
	)
	return root
}

var errNoOwner = errors.New("owner is required: pass --owner or set SUBCAL_OWNER")

func (a *app) init(cmd *cobra.Command, opts *rootOptions, open opener) error {
	cfg := config.Load()
	if opts.dbPath != "" {
		cfg.SQLiteDBPath = opts.dbPath
	}
	logger := cli.SetupLogger(opts.logLevel, applog.ComponentCLI)
	logger.Debug("Resolved configuration", "db_path", cfg.SQLiteDBPath, "currency", cfg.Currency)

	a.printer = output.Printer{W: cmd.OutOrStdout(), Symbol: cfg.CurrencySymbol, JSON: opts.json, Color: opts.color}
	if cmd.Annotations[annotationNoStore] == "true" {
		return nil
	}
	if opts.owner == "" {
		return errNoOwner
	}
	a.owner = opts.owner

	store, closeFn, err := open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.close = closeFn
	a.subs = services.NewSubscriptionService(store, cfg.Currency)
	return nil
}

// annotationNoStore marks commands that run without a store or owner.
const annotationNoStore = "subcal/no-store"
