package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCharnyshevich/voxelsrv/internal/server"
	"github.com/OCharnyshevich/voxelsrv/internal/server/config"
)

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "server port")
	flag.StringVar(&cfg.Address, "address", cfg.Address, "listen address")
	flag.StringVar(&cfg.MOTD, "motd", cfg.MOTD, "server description")
	flag.IntVar(&cfg.MaxPlayers, "max-players", cfg.MaxPlayers, "maximum concurrent players")
	flag.IntVar(&cfg.ViewDistance, "view-distance", cfg.ViewDistance, "chunk rings streamed around each player")
	flag.BoolVar(&cfg.ChunkCompression, "compression", cfg.ChunkCompression, "zlib-compress chunk payloads")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	flag.StringVar(&cfg.GeneratorType, "generator", cfg.GeneratorType, "terrain generator (normal, flat)")
	flag.IntVar(&cfg.WorldBorder, "world-border", cfg.WorldBorder, "world border in chunks (0 = unlimited)")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "world save directory")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	fromFile, ok, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	if ok {
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
		log.Info("config loaded", "path", *configPath)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Error("create server", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
