package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"printwatch/internal/config"
	"printwatch/internal/cups"
	"printwatch/internal/daemon"
	"printwatch/internal/deps"
	"printwatch/internal/history"
	"printwatch/internal/install"
	"printwatch/internal/ipc"
	"printwatch/internal/logging"
	"printwatch/internal/manager"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewForDaemon(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	statuses := deps.CheckBinaries(deps.Requirements())
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		logger.Warn("required binaries missing",
			logging.String("missing", strings.Join(missing, ", ")),
			logging.String(logging.FieldErrorHint, "install the cups and systemd client tools"),
			logging.String(logging.FieldImpact, "health checks and installs will fail"),
		)
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Warn("history store unavailable, events will not be recorded",
			logging.Error(err),
		)
		store = nil
	}

	client := cups.NewClient(cfg, nil, logger)
	var recorder install.Recorder
	if store != nil {
		recorder = store
	}
	workflow := install.New(cfg, nil, client, nil, recorder, logger)

	socketPath := ipc.SocketPath(cfg)
	mgr := manager.New(cfg, client, workflow, store, manager.RuntimeInfo{
		LockPath:   daemon.LockPath(cfg),
		SocketPath: socketPath,
	}, logger)

	d, err := daemon.New(cfg, store, mgr, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, socketPath, mgr, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("printwatchd shutting down")
}
