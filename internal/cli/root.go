package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/n6g7/dnstable/internal/config"
	"github.com/n6g7/dnstable/internal/shell"
	"github.com/n6g7/dnstable/internal/storage"
	"github.com/n6g7/dnstable/internal/table"
	"github.com/n6g7/nomtail/pkg/log"
	"github.com/n6g7/nomtail/pkg/version"
	"github.com/spf13/cobra"
)

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once the config is loaded.
type app struct {
	logger *log.Logger
	conf   *config.Config
	table  *table.Table
}

func (a *app) setup(configFile string) error {
	a.logger = log.SetupLogger()
	a.logger.Info("dnstable starting", "version", version.Display(), "go_runtime", runtime.Version())

	conf, err := config.Load(configFile)
	if err != nil {
		a.logger.Error("failed to load config", "err", err)
		return err
	}
	a.logger.Info("setting log level", "level", conf.LogLevel)
	log.SetLevel(conf.LogLevel)
	a.logger.Debug("loaded config", "config", conf)
	a.conf = conf

	backend, err := newBackend(a.logger, conf)
	if err != nil {
		return err
	}

	ctx, cancel := a.context()
	defer cancel()
	if err := backend.Init(ctx); err != nil {
		return fmt.Errorf("storage backend initialization failed: %w", err)
	}
	a.logger.Info("initialized storage backend", "type", conf.Storage.Type)

	if conf.MetricsEnabled() {
		go metrics(a.logger, conf)
	}

	a.table = table.New(a.logger, backend)
	return nil
}

func newBackend(logger *log.Logger, conf *config.Config) (storage.Backend, error) {
	switch conf.Storage.Type {
	case config.File:
		return storage.NewFileBackend(logger, conf.Storage.File), nil
	case config.Pihole:
		return storage.NewPiholeBackend(logger, conf.Storage.Pihole), nil
	case config.Route53:
		return storage.NewRoute53Backend(logger, conf.Storage.Route53), nil
	}
	return nil, fmt.Errorf("unknown storage type '%s'", conf.Storage.Type)
}

// context bounds a single call to the storage backend.
func (a *app) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.conf.Timeout)
}

func (a *app) start() error {
	ctx, cancel := a.context()
	defer cancel()
	return a.table.Start(ctx)
}

func (a *app) stop() error {
	ctx, cancel := a.context()
	defer cancel()
	return a.table.Stop(ctx)
}

func newRootCmd() *cobra.Command {
	var configFile string
	a := &app{}

	cmd := &cobra.Command{
		Use:          "dnstable",
		Short:        "Edit a domain name to IPv4 address table, with undo and redo",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup(configFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			sh := shell.New(a.logger, a.table, a.conf.UpdatesFile, a.conf.Timeout, cmd.OutOrStdout())
			return sh.Run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "read configuration from this file (yaml, toml or json)")
	cmd.AddCommand(
		newApplyCmd(a),
		newLookupCmd(a),
		newAddCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newVersionCmd(),
	)
	return cmd
}
