package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	facturascripts "github.com/abdedarghal111/facturascripts"
	"github.com/abdedarghal111/facturascripts/internal/config"
	"github.com/abdedarghal111/facturascripts/internal/log"
)

// globalFlags are shared by every subcommand. Flags set on the command line
// override fsviews.yaml and the FS_* environment.
type globalFlags struct {
	configPath string
	root       string
	debug      bool
	noPlugins  bool
	plain      bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "fsviews",
		Short:         "Render and inspect FacturaScripts view trees",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.Out = cmd.ErrOrStderr()
			log.Plain = flags.plain
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.FileName, "configuration file")
	pf.StringVar(&flags.root, "root", "", "installation root (overrides config)")
	pf.BoolVar(&flags.debug, "debug", false, "search plugin folders directly instead of Dinamic/View")
	pf.BoolVar(&flags.noPlugins, "no-plugins", false, "ignore plugin folders")
	pf.BoolVar(&flags.plain, "plain", false, "disable colored status output")

	cmd.AddCommand(
		newRenderCmd(flags),
		newFragmentsCmd(flags),
		newPathsCmd(flags),
		newPluginsCmd(flags),
		newDeployCmd(flags),
		newServeCmd(flags),
	)
	return cmd
}

// load resolves the configuration: defaults, file, environment, then flags.
func (f *globalFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	pf := cmd.Flags()
	if pf.Changed("root") {
		cfg.Root = f.root
	}
	if pf.Changed("debug") {
		cfg.Debug = f.debug
	}
	if pf.Changed("no-plugins") {
		cfg.DisablePlugins = f.noPlugins
	}
	if cfg.Root == "" {
		return nil, errors.New("installation root is required")
	}
	return cfg, nil
}

func (f *globalFlags) open(cmd *cobra.Command, opts ...facturascripts.OpenOption) (*facturascripts.Install, *config.Config, error) {
	cfg, err := f.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	inst, err := facturascripts.Open(cfg.HTML(), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.Root, err)
	}
	return inst, cfg, nil
}
