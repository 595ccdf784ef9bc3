package main

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeremylan/POCS/pkg/lib/config"
)

const configEnv = "POCS_CONFIG"

type rootOptions struct {
	configPath string
	debug      bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "pocs",
		Short:         "Observatory control: driver server, mount, cameras and scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.ErrOrStderr(), opts.debug)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (default $"+configEnv+")")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newStatusCmd())
	root.AddCommand(newTargetCmd(opts))
	root.AddCommand(newModelsCmd())
	root.AddCommand(newCheckConfigCmd(opts))

	return root
}

func setupLogging(out io.Writer, debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(configEnv)
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("no configuration file; use --config or set " + configEnv)
	}
	return config.Load(path)
}
