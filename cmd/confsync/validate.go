package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confsync/confsync/internal/config"
)

func newValidateCommand(params *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file(s)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(params.configFiles...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "repository:   %s\n", cfg.RepositoryURI)
			fmt.Fprintf(out, "local path:   %s\n", cfg.LocalPath)
			fmt.Fprintf(out, "username:     %s\n", cfg.RepositoryUsername)
			fmt.Fprintf(out, "password:     %s\n", cfg.RepositoryPassword)
			fmt.Fprintf(out, "check period: %v\n", cfg.CheckPeriod())
			fmt.Fprintf(out, "committer:    %s <%s>\n", cfg.CommitterName, cfg.CommitterEmail)
			fmt.Fprintln(out, "configuration is valid")
			return nil
		},
	}
}
