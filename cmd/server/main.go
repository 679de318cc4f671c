package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/craftpanel/backend/internal/config"
	"github.com/craftpanel/backend/internal/frontend"
	"github.com/craftpanel/backend/internal/logging"
	"github.com/craftpanel/backend/internal/mock"
	"github.com/craftpanel/backend/internal/rcon"
	"github.com/craftpanel/backend/internal/status"
	"github.com/craftpanel/backend/internal/ws"
	"go.uber.org/zap"
)

func main() {
	mockMode := flag.Bool("mock", false, "Run against a built-in mock RCON server")
	devMode := flag.Bool("dev", false, "Development mode (serve frontend from filesystem, console logging)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Logging.Format = "console"
		if cfg.Server.FrontendDir == "" {
			cfg.Server.FrontendDir = "internal/frontend/static"
		}
	}

	if err := logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	log := logging.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *mockMode {
		cleanup, err := startMock(ctx, cfg)
		if err != nil {
			log.Fatal("starting mock server", zap.Error(err))
		}
		defer cleanup()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	session := rcon.NewSession(cfg.RCONAddr(), cfg.RCON.Password, rcon.Options{
		DialTimeout:    cfg.RCON.DialTimeout,
		CommandTimeout: cfg.RCON.CommandTimeout,
	})
	defer session.Close()

	broadcaster := ws.NewBroadcaster(cfg.Server.MaxWSClients)
	defer broadcaster.Close()

	refresher := status.New(session, status.Options{
		ModsPath:         cfg.Minecraft.ModsPath,
		ServerPath:       cfg.Minecraft.ServerPath,
		AddonExtension:   cfg.Minecraft.AddonExtension,
		ProcessMatch:     cfg.Minecraft.ProcessMatch,
		Interval:         cfg.Refresh.Interval,
		FailureThreshold: cfg.Refresh.FailureThreshold,
		Publisher:        broadcaster,
	})

	var frontendHandler http.Handler
	if cfg.Server.FrontendDir != "" {
		log.Info("serving frontend from filesystem", zap.String("dir", cfg.Server.FrontendDir))
		frontendHandler = http.FileServer(http.Dir(cfg.Server.FrontendDir))
	} else if frontendHandler = frontend.Handler(); frontendHandler != nil {
		log.Info("serving embedded frontend")
	}

	server := ws.NewServer(
		session,
		refresher,
		broadcaster,
		ws.NewAuthenticator(cfg.Auth.Username, cfg.Auth.Password),
		frontendHandler,
		cfg.Server.AllowedOrigins,
	)

	go refresher.Start(ctx)

	httpServer := ws.NewHTTPServer(cfg.ListenAddr(), server.Handler())
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", httpServer.Addr),
			zap.String("rcon", cfg.RCONAddr()),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}

// startMock runs a mock RCON server with sample addon data and points cfg at
// it. Settings the operator already configured are kept.
func startMock(ctx context.Context, cfg *config.Config) (func(), error) {
	password := cfg.RCON.Password
	if password == "" {
		password = "mock"
	}
	srv, err := mock.Start(ctx, password)
	if err != nil {
		return nil, err
	}
	host, portStr, err := net.SplitHostPort(srv.Addr())
	if err != nil {
		srv.Close()
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		srv.Close()
		return nil, err
	}
	cfg.RCON.Host, cfg.RCON.Port, cfg.RCON.Password = host, port, password

	cleanup := func() { srv.Close() }
	if cfg.Minecraft.ServerPath == "" || cfg.Minecraft.ModsPath == "" {
		serverPath, modsPath, err := mock.SeedAddonDir()
		if err != nil {
			srv.Close()
			return nil, err
		}
		if cfg.Minecraft.ServerPath == "" {
			cfg.Minecraft.ServerPath = serverPath
		}
		if cfg.Minecraft.ModsPath == "" {
			cfg.Minecraft.ModsPath = modsPath
		}
		cleanup = func() {
			srv.Close()
			os.RemoveAll(serverPath)
		}
	}

	logging.L().Info("mock rcon server started", zap.String("addr", srv.Addr()))
	return cleanup, nil
}
