package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremylan/POCS/pkg/lib/observatory"
)

func newTargetCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Print the target the scheduler would observe now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			// picking a target needs no hardware
			cfg.IndiServer = nil

			obs, err := observatory.New(cfg)
			if err != nil {
				return err
			}
			defer obs.Close()

			target, err := obs.GetTarget()
			if err != nil {
				return err
			}

			c := target.Coordinates()
			printTable(cmd.OutOrStdout(), []string{"NAME", "POSITION", "RA", "DEC", "PRIORITY", "EXPOSURE"}, [][]string{{
				target.Name,
				target.Position,
				fmt.Sprintf("%.4f", c.RA),
				fmt.Sprintf("%.4f", c.Dec),
				fmt.Sprintf("%g", target.Priority),
				fmt.Sprintf("%gs", target.ExposureSeconds),
			}})
			return nil
		},
	}
	return cmd
}
