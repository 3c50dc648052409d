package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/confsync/confsync/internal/gitsync"
)

func newStatusCommand(params *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the changes the next sync would commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := params.load(cmd)
			if err != nil {
				return err
			}

			repo, err := gitsync.Open(cfg.LocalPath)
			if err != nil {
				return fmt.Errorf("open repository %v: %w", cfg.LocalPath, err)
			}
			repo.AddTransientIgnore(cfg.IgnorePatterns...)

			branch, tip, err := repo.Head()
			if err != nil {
				return err
			}

			changes, err := repo.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "On branch %s at %s\n", branch.Short(), tip)

			if changes.Empty() {
				fmt.Fprintln(out, "working tree clean")
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.Header("Change", "Path")
			for _, c := range changes {
				if err := table.Append(c.Kind.String(), c.Path); err != nil {
					return err
				}
			}

			return table.Render()
		},
	}
}
