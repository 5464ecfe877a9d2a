package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/avfleet/avfleet/internal/analytics"
	"github.com/avfleet/avfleet/internal/duckdb"
	"github.com/avfleet/avfleet/internal/httpserver"
	"github.com/avfleet/avfleet/internal/intake"
	"github.com/avfleet/avfleet/internal/push"
)

// runServer starts the ingestion backend with the HTTP API.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	// Initialize DuckDB store
	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	// Push hub for live dashboard updates
	var hub *push.Hub
	if cfg.WSEnabled {
		hub = push.NewHub()
	}

	var events intake.Publisher
	if hub != nil {
		events = hub
	}
	svc := intake.NewService(store, store, store, events)
	engine := analytics.NewEngine(store)

	apiServer := httpserver.NewServer(httpserver.Options{
		Addr:                  cfg.APIAddr,
		APIKey:                cfg.APIKey,
		ThreatRequestsPerHour: cfg.ThreatRateLimit,
	}, svc, engine, store, hub)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now — not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg)

	// Use errgroup for concurrent goroutine lifecycle management. The serve
	// loop and hub loop run as group members; the last member waits for
	// cancellation and unwinds them so Wait returns.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(apiServer.Serve)

	if hub != nil {
		g.Go(func() error {
			hub.Run()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if hub != nil {
			hub.Stop()
		}
		return apiServer.Stop()
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	cancel()
	signal.Stop(sigCh)

	return nil
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "avfleet")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "avfleet.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔═╗╦  ╦╔═╗╦  ╔═╗╔═╗╔╦╗
    ╠═╣╚╗╔╝╠╣ ║  ║╣ ║╣  ║
    ╩ ╩ ╚╝ ╚  ╩═╝╚═╝╚═╝ ╩`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Gateway
	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	if cfg.WSEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Live Push      %s", check, cyan.Render("/ws")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Live Push      %s", dot, dim.Render("disabled")))
	}
	if cfg.APIKey != "" {
		lines = append(lines, fmt.Sprintf("    %s  API Key        %s", check, dim.Render("required")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  API Key        %s", dot, dim.Render("open access")))
	}
	lines = append(lines, "")

	// Storage
	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Storage        %s", check, dim.Render(shortenPath(cfg.DBPath))))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
