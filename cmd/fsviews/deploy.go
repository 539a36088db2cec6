package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdedarghal111/facturascripts/internal/log"
)

func newDeployCmd(g *globalFlags) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Rebuild Dinamic/View from the core and enabled plugin views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inst, _, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer inst.Close()

			report, err := inst.Deploy(cmd.Context())
			if err != nil {
				return err
			}
			if verbose {
				for _, o := range report.Overrides {
					log.Info(fmt.Sprintf("%s: %s overrides %s", o.Path, o.Source, o.Replaced))
				}
				for _, rel := range report.Removed {
					log.Warning("removed " + rel)
				}
			}
			log.Success(fmt.Sprintf("deployed %d views (%d overrides, %d removed)",
				len(report.Files), len(report.Overrides), len(report.Removed)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list overrides and removed files")
	return cmd
}
