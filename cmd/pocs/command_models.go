package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremylan/POCS/pkg/lib/factory"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the registered mount and camera models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := factory.NewDefault()

			var rows [][]string
			for _, kind := range f.Kinds() {
				rows = append(rows, []string{kind, strings.Join(f.Models(kind), ", ")})
			}
			printTable(cmd.OutOrStdout(), []string{"KIND", "MODELS"}, rows)
			return nil
		},
	}
	return cmd
}
