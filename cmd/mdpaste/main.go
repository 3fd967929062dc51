// Package main is the entry point for the mdpaste daemon.
//
// mdpaste stores images pasted into markdown documents and resolves their
// in-document references back into renderable URLs. It exposes a small local
// HTTP API for the editor: submit paste events, resolve references, manage
// stored images. The storage backend (directory of files or SQLite blob
// store) is selected once at startup from the configuration file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lmittmann/tint"
	"github.com/maruel/mdpaste/internal/config"
	"github.com/maruel/mdpaste/internal/imgstore"
	"github.com/maruel/mdpaste/internal/paste"
	"github.com/maruel/mdpaste/internal/resolve"
	"github.com/maruel/mdpaste/internal/server"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "mdpaste: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "mdpaste.yaml", "Path to the configuration file (created with defaults if missing)")
	httpAddr := flag.String("http", "", "Address to listen on, overriding the configuration file")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}
	if *version {
		printVersion()
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	ll := &slog.LevelVar{}
	switch cfg.LogLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		ll.Set(slog.LevelInfo)
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	store, err := newStore(&cfg)
	if err != nil {
		return err
	}
	arena := resolve.NewArena()
	h := &server.Handlers{
		Store:    store,
		Pipeline: paste.New(store, nil),
		Resolver: resolve.New(store, arena),
		Arena:    arena,
		Version:  buildVersion(),
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.NewRouter(h, cfg.RatePerMin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Listening", "addr", cfg.HTTPAddr, "backend", cfg.Backend, "data_dir", cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if err := watchExecutable(ctx, stop); err != nil {
		slog.WarnContext(ctx, "Failed to watch executable", "err", err)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newStore builds the storage backend the configuration selected. This is
// the only place that knows the concrete types; everything downstream holds
// the interface.
func newStore(cfg *config.Config) (imgstore.Store, error) {
	switch cfg.Backend {
	case config.BackendDB:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return imgstore.NewDBStore(filepath.Join(cfg.DataDir, "images.db"))
	default:
		return imgstore.NewDirStore(cfg.DataDir, cfg.MaxImageBytes), nil
	}
}

// watchExecutable watches the current executable for modifications and calls
// stop to trigger graceful shutdown when detected. This enables seamless
// restarts during development.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}

func printVersion() {
	fmt.Printf("mdpaste %s\n", buildVersion())
}
