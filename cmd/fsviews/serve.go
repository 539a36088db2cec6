package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	facturascripts "github.com/abdedarghal111/facturascripts"
	"github.com/abdedarghal111/facturascripts/pkg/render/template"
	"github.com/abdedarghal111/facturascripts/pkg/views"
	"github.com/abdedarghal111/facturascripts/pkg/watch"
)

const shutdownGrace = 5 * time.Second

type serveFlags struct {
	addr  string
	watch bool
}

func newServeCmd(g *globalFlags) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview rendered views over HTTP at /view/{name}",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g, flags)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "redeploy Dinamic/View when view files change")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalFlags, flags *serveFlags) error {
	inst, cfg, err := g.open(cmd)
	if err != nil {
		return err
	}
	defer inst.Close()

	addr := cfg.Addr
	if cmd.Flags().Changed("addr") {
		addr = flags.addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.watch {
		w, err := startWatch(ctx, inst, cfg.Root, cfg.Debug)
		if err != nil {
			return err
		}
		defer w.Close()
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newServeMux(inst, cfg.Root),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("listening on %s (root %s, debug %t)", addr, cfg.Root, cfg.Debug)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	return nil
}

func newServeMux(inst *facturascripts.Install, root string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /view/{name...}", viewHandler(inst))
	mux.Handle("GET /MyFiles/", http.StripPrefix("/MyFiles/", http.FileServer(http.Dir(filepath.Join(root, "MyFiles")))))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// viewHandler renders the named template. Query parameters become template
// parameters.
func viewHandler(inst *facturascripts.Install) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		params := make(map[string]any, len(r.URL.Query()))
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				params[key] = values[len(values)-1]
			}
		}

		out, err := inst.Render(r.Context(), name, params)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, views.ErrTemplateNotFound) {
				status = http.StatusNotFound
			}
			log.Printf("render %s: %s: %v", name, template.KindOf(err), err)
			http.Error(w, fmt.Sprintf("render %s: %v", name, err), status)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(out)); err != nil {
			log.Printf("write response: %v", err)
		}
	})
}

// startWatch redeploys on every burst of view changes. In debug mode views
// are read from the plugin folders directly, so changes are only reported.
func startWatch(ctx context.Context, inst *facturascripts.Install, root string, debug bool) (*watch.Watcher, error) {
	dirs := watch.ViewDirs(root, inst.Plugins)
	if !debug {
		// Deploy writes Dinamic/View itself.
		dynamic := views.Layout{Root: root}.DynamicViews()
		kept := dirs[:0]
		for _, dir := range dirs {
			if dir != dynamic {
				kept = append(kept, dir)
			}
		}
		dirs = kept
	}

	w, err := watch.New(dirs, func(changed []string) {
		log.Printf("%d view file(s) changed", len(changed))
		if debug {
			return
		}
		report, err := inst.Deploy(ctx)
		if err != nil {
			log.Printf("deploy: %v", err)
			return
		}
		log.Printf("deployed %d views", len(report.Files))
	}, watch.WithErrorHandler(func(err error) {
		log.Printf("watch: %v", err)
	}))
	if err != nil {
		return nil, err
	}
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("watch: %v", err)
		}
	}()
	return w, nil
}
