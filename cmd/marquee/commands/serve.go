package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/marquee/config"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/presets"
	"github.com/teranos/marquee/server"
)

// ServeCmd starts the display server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the display server",
	Long: `Start the marquee display server.

Open http://<addr>/<product>/<content>?<params> in a browser to show a display,
for example /text/Welcome?t=neon. Edits to marquee.toml are applied without a
restart unless --watch=false.`,
	RunE: runServe,
}

var (
	serveAddr  string
	serveWatch bool
)

func init() {
	ServeCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	ServeCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload configuration when marquee.toml changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	cfg = withAddr(cfg)

	log := logger.ComponentLogger("marquee")
	srv, err := server.New(cfg, log)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}

	if serveWatch {
		if w := startWatcher(srv, cfg); w != nil {
			defer w.Stop()
		}
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	printStartupBanner(cmd, cfg, verbosity, len(srv.Presets().Names()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	pterm.Success.Println("Server stopped cleanly")
	return nil
}

// withAddr applies the --addr override to a loaded config
func withAddr(cfg *config.Config) *config.Config {
	if serveAddr == "" {
		return cfg
	}
	cp := *cfg
	cp.Server.Addr = serveAddr
	return &cp
}

// startWatcher hot-reloads display defaults and presets. The listen address
// is fixed for the life of the process.
func startWatcher(srv *server.Server, cfg *config.Config) *config.Watcher {
	files := config.Files()
	dir := server.PresetsDir(cfg)
	if dirExists(dir) {
		// The catalogue may not exist yet; its directory is what gets watched
		files = append(files, filepath.Join(dir, presets.CatalogueFile))
	}
	if len(files) == 0 {
		return nil
	}

	log := logger.ComponentLogger("config")
	w, err := config.NewWatcher(files, nil, log)
	if err != nil {
		log.Warnw("Config hot reload disabled", logger.FieldError, err)
		return nil
	}
	if sub := filepath.Join(dir, "presets"); dirExists(sub) {
		if err := w.WatchDir(sub, "*.toml"); err != nil {
			log.Warnw("Preset files will not be reloaded", logger.FieldError, err)
		}
	}
	w.OnReload(func(next *config.Config) error {
		next = withAddr(next)
		next.Server.Addr = cfg.Server.Addr
		return srv.ApplyConfig(next)
	})
	w.Start()
	return w
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
