package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	facturascripts "github.com/abdedarghal111/facturascripts"
	"github.com/abdedarghal111/facturascripts/internal/log"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

type renderFlags struct {
	params []string
	output string
}

func newRenderCmd(g *globalFlags) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render a template to stdout or a file",
		Long: "Render a template by logical name (\"ListFactura.html.twig\" or \"@PluginSales/Tab.html.twig\").\n" +
			"Without a template argument on a terminal, pick one interactively.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, g, flags, args)
		},
	}
	cmd.Flags().StringArrayVar(&flags.params, "param", nil, "template parameter as key=value (repeatable)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runRender(cmd *cobra.Command, g *globalFlags, flags *renderFlags, args []string) error {
	params, err := parseParams(flags.params)
	if err != nil {
		return err
	}

	cfg, err := g.load(cmd)
	if err != nil {
		return err
	}
	var opts []facturascripts.OpenOption
	if _, err := os.Stat(filepath.Join(cfg.Root, "MyFiles", "attachments.db")); err == nil {
		opts = append(opts, facturascripts.WithAttachmentStore())
	}
	inst, err := facturascripts.Open(cfg.HTML(), opts...)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Root, err)
	}
	defer inst.Close()

	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		name, err = pickTemplate(cmd, inst)
		if err != nil {
			return err
		}
	}

	out, err := inst.Render(cmd.Context(), name, params)
	if err != nil {
		return err
	}

	if flags.output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := atomic.WriteFile(flags.output, bytes.NewReader([]byte(out))); err != nil {
		return fmt.Errorf("write %s: %w", flags.output, err)
	}
	log.Success(fmt.Sprintf("rendered %s to %s", name, flags.output))
	return nil
}

func pickTemplate(cmd *cobra.Command, inst *facturascripts.Install) (string, error) {
	if !isTerminal() {
		return "", errors.New("template argument is required when stdin is not a terminal")
	}
	resolver, err := inst.Renderer.Resolver()
	if err != nil {
		return "", err
	}
	names, err := resolver.List(views.MainNamespace, inst.Renderer.Config().Extension)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", errors.New("no templates found")
	}
	return newPicker().Pick(cmd.Context(), "Template to render", names)
}

// parseParams turns key=value pairs into template parameters. A key repeated
// later wins.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}
