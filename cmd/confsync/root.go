package main

import (
	"context"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/internal/gitsync"
	"github.com/confsync/confsync/internal/logging"
)

var version = "dev"

type rootParams struct {
	configFiles []string
	logLevel    logging.Level
}

func newRootCommand() *cobra.Command {
	params := &rootParams{logLevel: logging.Info}

	root := &cobra.Command{
		Use:     "confsync",
		Short:   "Keep a configuration directory committed and pushed to a git remote",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVarP(&params.configFiles, "config", "c", []string{config.DefaultPath}, "configuration file(s); later files override earlier ones")
	root.PersistentFlags().Var(
		enumflag.New(&params.logLevel, "level", logging.LevelIDs, enumflag.EnumCaseInsensitive),
		"log-level", "log level (debug, info, warn, error); overrides the configuration file")

	root.AddCommand(
		newRunCommand(params),
		newStatusCommand(params),
		newValidateCommand(params),
		newVersionCommand(),
	)

	return root
}

// load reads the configuration and builds the logger. The --log-level flag
// takes precedence over the configured level.
func (p *rootParams) load(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(p.configFiles...)
	if err != nil {
		return nil, nil, err
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if cmd.Flags().Changed("log-level") {
		level = p.logLevel
	}

	logger := logging.NewLogger(logging.Config{
		Level:  level,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	return cfg, logger, nil
}

// credentials resolves the configured username and password on every remote
// operation, so environment references are read when they are needed.
func credentials(cfg *config.Config) gitsync.CredentialSource {
	return gitsync.CredentialFunc(func(ctx context.Context) (transport.AuthMethod, error) {
		return gitsync.BasicAuth{
			Username: cfg.Username(),
			Password: cfg.RepositoryPassword.Value(),
		}.AuthMethod(ctx)
	})
}
