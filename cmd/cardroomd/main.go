package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vmtri/cardroom/pkg/config"
	"github.com/vmtri/cardroom/pkg/logging"
	"github.com/vmtri/cardroom/pkg/server"
)

func main() {
	var (
		configPath string
		dbPath     string
		host       string
		port       int
		debugLevel string
		logFile    string
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.StringVar(&host, "host", "", "Host to listen on")
	flag.IntVar(&port, "port", 0, "Port to listen on")
	flag.StringVar(&debugLevel, "debuglevel", "", "Logging level: trace, debug, info, warn, error")
	flag.StringVar(&logFile, "logfile", "", "Rotated log file path (empty = stderr only)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file.
	if dbPath != "" {
		cfg.Server.DBPath = dbPath
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if debugLevel != "" {
		cfg.Server.DebugLevel = debugLevel
	}
	if logFile != "" {
		cfg.Server.LogFile = logFile
	}

	logBackend, err := logging.NewLogBackend(logging.Config{
		LogFile:    cfg.Server.LogFile,
		DebugLevel: cfg.Server.DebugLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer logBackend.Close()
	log := logBackend.Logger("SRVR")

	db, err := server.NewDatabase(cfg.Server.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.NewServer(server.Config{
		Addr:            cfg.Server.Addr(),
		DB:              db,
		Log:             log,
		StartingCredits: cfg.Server.StartingCredits,
		SmallBlind:      cfg.Server.SmallBlind,
		BigBlind:        cfg.Server.BigBlind,
		GracePeriod:     cfg.Server.GracePeriod,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Errorf("server exited: %v", err)
		os.Exit(1)
	}
	log.Infof("shutdown complete")
}
