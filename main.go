package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"markestedt/emoki/config"
	"markestedt/emoki/platform"
	"markestedt/emoki/storage"
	"markestedt/emoki/systray"
	"markestedt/emoki/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("Configuration loaded", "path", cfg.Path())

	// Open history database
	var db *storage.DB
	if cfg.History.Enabled {
		configDir, err := config.Dir()
		if err != nil {
			slog.Error("Failed to locate data directory", "error", err)
			os.Exit(1)
		}
		db, err = storage.Open(configDir)
		if err != nil {
			slog.Warn("Failed to open history database, history disabled", "error", err)
			db = nil
		} else {
			defer db.Close()
		}
	}

	// Create agent
	agent, err := NewAgent(cfg, platform.NewInput(), loadTable(cfg), db)
	if err != nil {
		slog.Error("Failed to create agent", "error", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Web dashboard mirrors the overlay and serves history
	dashboardURL := ""
	if cfg.Web.Enabled {
		server := web.NewServer(db, cfg, agent)
		agent.AddPresenter(server)
		agent.AddStatusObserver(server)
		agent.AddInjectionObserver(server)
		dashboardURL = server.URL()

		go func() {
			if err := server.Start(ctx); err != nil {
				slog.Error("Web server error", "error", err)
			}
		}()
	}

	if !cfg.Tray.Enabled {
		// Run agent
		if err := agent.Run(ctx); err != nil {
			slog.Error("Agent error", "error", err)
			os.Exit(1)
		}
		slog.Info("Emoki stopped")
		return
	}

	// The tray owns the main goroutine; the agent runs beside it
	tray := systray.NewSystrayManager(agent, dashboardURL, nil)
	agent.AddStatusObserver(tray)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := agent.Run(ctx); err != nil {
			slog.Error("Agent error", "error", err)
		}
		tray.Stop()
	}()

	go func() {
		select {
		case <-tray.WaitForQuit():
			cancel()
		case <-ctx.Done():
		}
	}()

	tray.Run()
	cancel()
	<-done

	slog.Info("Emoki stopped")
}
