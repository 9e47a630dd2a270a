// Command domsnap captures the full, unclipped content of page elements.
// serve runs the HTTP API, mcp the MCP server on stdio; capture and
// inspect are one-shot operations against a page.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domsnap/browser"
	"github.com/hazyhaar/domsnap/capture"
	"github.com/hazyhaar/domsnap/idgen"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("domsnap", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("missing command")
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "serve":
		return runServe(rest)
	case "mcp":
		return runMCP(rest)
	case "capture":
		return runCapture(rest)
	case "inspect":
		return runInspect(rest)
	case "prune":
		return runPrune(rest)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: domsnap <command> [flags]

Commands:
  serve     run the HTTP capture API
  mcp       run the MCP server on stdio
  capture   one-shot capture of a page element to files
  inspect   print the scroll-limit report for a page element
  prune     delete captures older than the retention window

Run "domsnap <command> -h" for command flags.
`)
}

func loadConfig(path string) (*capture.Config, error) {
	if path == "" {
		return &capture.Config{}, nil
	}
	return capture.LoadConfigFile(path)
}

// buildLogger configures the process logger. The mcp command logs to
// stderr because stdout carries the protocol.
func buildLogger(cfg *capture.Config, verbose bool, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch cfg.Log.Level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if cfg.Log.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func newManager(cfg *capture.Config, logger *slog.Logger) *browser.Manager {
	return browser.NewManager(browser.Config{
		ControlURL:     cfg.Browser.ControlURL,
		Headless:       cfg.Browser.Headless,
		Stealth:        cfg.Browser.Stealth,
		TabTimeout:     cfg.Browser.TabTimeout,
		BlockResources: cfg.Browser.BlockResources,
		Logger:         logger,
	})
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg, *verbose, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr := newManager(cfg, logger)
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	defer mgr.Close()

	svc, err := capture.New(cfg,
		capture.WithLogger(logger),
		capture.WithRenderer(capture.NewBrowserRenderer(mgr)))
	if err != nil {
		return err
	}
	defer svc.Close()
	svc.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg, *verbose, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr := newManager(cfg, logger)
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	defer mgr.Close()

	svc, err := capture.New(cfg,
		capture.WithLogger(logger),
		capture.WithRenderer(capture.NewBrowserRenderer(mgr)))
	if err != nil {
		return err
	}
	defer svc.Close()
	svc.Start(ctx)

	srv := mcp.NewServer(&mcp.Implementation{Name: "domsnap", Version: "1.0.0"}, nil)
	svc.RegisterMCP(srv)

	slog.Info("MCP server starting", "transport", "stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// oneShot builds a renderer-backed Service for the capture and inspect
// commands. Nothing is persisted; without a configured data dir, the
// store lives in a temp dir removed by cleanup.
func oneShot(ctx context.Context, cfg *capture.Config, logger *slog.Logger) (*capture.Service, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.DataDir == "" {
		tmp, err := os.MkdirTemp("", "domsnap-*")
		if err != nil {
			return nil, nil, err
		}
		cfg.DataDir = tmp
		cleanups = append(cleanups, func() { os.RemoveAll(tmp) })
	}

	mgr := newManager(cfg, logger)
	if err := mgr.Start(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("browser: %w", err)
	}
	cleanups = append(cleanups, func() { mgr.Close() })

	svc, err := capture.New(cfg,
		capture.WithLogger(logger),
		capture.WithRenderer(capture.NewBrowserRenderer(mgr)))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { svc.Close() })
	return svc, cleanup, nil
}

func runCapture(args []string) error {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	pageURL := fs.String("url", "", "page URL (required)")
	target := fs.String("target", "", "CSS selector of the element; body when empty")
	placement := fs.String("placement", "", "clone placement: offscreen, visible or unset")
	formats := fs.String("format", "png", "comma-separated artifact formats (png, jpeg, pdf, md)")
	outDir := fs.String("out", ".", "output directory")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	if *pageURL == "" {
		return errors.New("capture: -url is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg, *verbose, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cleanup, err := oneShot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	rendered, err := svc.Render(ctx, capture.Request{
		URL:       *pageURL,
		Selector:  *target,
		Placement: *placement,
		Formats:   strings.Split(*formats, ","),
	})
	if err != nil {
		return err
	}
	logger.Info("captured",
		"url", rendered.URL, "target", rendered.Target,
		"scroll_width", rendered.Dimensions.ScrollWidth,
		"scroll_height", rendered.Dimensions.ScrollHeight,
		"limited", rendered.Limits.Limited)

	name := idgen.Timestamped(idgen.NanoID(8))()
	for _, a := range rendered.Artifacts {
		path := filepath.Join(*outDir, name+"."+a.Format)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Println(path)
	}
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	pageURL := fs.String("url", "", "page URL (required)")
	target := fs.String("target", "", "CSS selector of the element; body when empty")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	if *pageURL == "" {
		return errors.New("inspect: -url is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg, *verbose, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cleanup, err := oneShot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.Inspect(ctx, capture.InspectRequest{URL: *pageURL, Selector: *target})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runPrune(args []string) error {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg, *verbose, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := capture.New(cfg, capture.WithLogger(logger))
	if err != nil {
		return err
	}
	defer svc.Close()

	if cfg.Retention.MaxAge <= 0 {
		logger.Info("retention disabled, nothing to prune")
		return nil
	}
	removed, err := svc.Prune(ctx)
	if err != nil {
		return err
	}
	logger.Info("prune complete", "removed", removed)
	return nil
}
