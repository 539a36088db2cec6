package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abdedarghal111/facturascripts/pkg/plugins"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

func newFragmentsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fragments <parent> <position>",
		Short: "List plugin fragments for an insertion point, in include order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, _, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer inst.Close()

			fragments, err := inst.Renderer.Fragments().Collect(args[0], args[1])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tPLUGIN\tPATH")
			for _, f := range fragments {
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.Order, f.Plugin, f.Path)
			}
			return w.Flush()
		},
	}
}

func newPathsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show the registered view namespaces and their search folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inst, _, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer inst.Close()

			resolver, err := inst.Renderer.Resolver()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ns := range resolver.Namespaces() {
				label := "@" + ns
				if ns == views.MainNamespace {
					label = "(main)"
				}
				fmt.Fprintln(out, label)
				for _, dir := range resolver.Paths(ns) {
					fmt.Fprintf(out, "  %s\n", dir)
				}
			}
			return nil
		},
	}
}

func newPluginsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered and installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			registry, err := plugins.Load(cfg.Root)
			if err != nil {
				return err
			}
			installed, err := plugins.Discover(cfg.Root)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tORDER\tSTATUS")
			listed := make(map[string]struct{})
			for _, entry := range registry.Entries() {
				listed[entry.Name] = struct{}{}
				status := "disabled"
				if entry.Enabled {
					status = "enabled"
				}
				if cfg.DisablePlugins {
					status += " (ignored)"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", entry.Name, entry.Order, status)
			}
			for _, name := range installed {
				if _, ok := listed[name]; !ok {
					fmt.Fprintf(w, "%s\t-\tnot registered\n", name)
				}
			}
			return w.Flush()
		},
	}
}
