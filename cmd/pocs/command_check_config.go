package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/config"
	"github.com/jeremylan/POCS/pkg/lib/factory"
	"github.com/jeremylan/POCS/pkg/lib/indi"
	"github.com/jeremylan/POCS/pkg/lib/supervisor"
)

func newCheckConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration without starting anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			return checkConfig(cmd.OutOrStdout(), cfg, factory.NewDefault())
		},
	}
	return cmd
}

// checkConfig prints what the configuration resolves to. Problems that would
// abort observatory startup are returned; the rest are only reported.
func checkConfig(w io.Writer, cfg *config.Config, f *factory.Factory) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	rows := [][]string{
		{"location", loc.String()},
		{"timezone", loc.TimeLocation().String()},
		{"pressure", fmt.Sprintf("%.3f bar", loc.Pressure)},
		{"horizon", fmt.Sprintf("%g deg", loc.Horizon)},
	}

	var fatal error
	mountModel := cfg.MountModel()
	if !slices.Contains(f.Models(config.KindMount), mountModel) {
		fatal = lib.NewUnknownModelError(config.KindMount, mountModel)
		rows = append(rows, []string{"mount", mountModel + " (UNKNOWN)"})
	} else {
		rows = append(rows, []string{"mount", mountModel})
	}

	for i, entry := range cfg.Cameras {
		model := cfg.CameraModel(entry)
		state := model
		if !slices.Contains(f.Models(config.KindCamera), model) {
			state += " (UNKNOWN, will be skipped)"
		}
		rows = append(rows, []string{fmt.Sprintf("camera %d", i), fmt.Sprintf("%s %s", entry.Name, state)})
	}

	targets := cfg.TargetsPath()
	switch {
	case targets == "":
		rows = append(rows, []string{"targets", "not configured (no scheduler)"})
	default:
		if _, err := os.Stat(targets); err != nil {
			rows = append(rows, []string{"targets", targets + " (MISSING, no scheduler)"})
		} else {
			rows = append(rows, []string{"targets", targets})
		}
	}

	if cfg.HasDriverServer() {
		binary := cfg.IndiServer.Binary
		if binary == "" {
			binary = indi.DefaultBinary
		}
		path, err := supervisor.Resolve(binary)
		if err != nil {
			rows = append(rows, []string{"driver server", binary + " (NOT FOUND)"})
			if fatal == nil {
				fatal = err
			}
		} else {
			rows = append(rows, []string{"driver server", path})
		}
	} else {
		rows = append(rows, []string{"driver server", "not configured"})
	}

	printTable(w, []string{"ITEM", "VALUE"}, rows)
	return fatal
}
