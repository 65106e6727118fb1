package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/voxelsrv/internal/server/config"
	"github.com/OCharnyshevich/voxelsrv/internal/server/conn"
	"github.com/OCharnyshevich/voxelsrv/internal/server/player"
	"github.com/OCharnyshevich/voxelsrv/internal/server/storage"
	"github.com/OCharnyshevich/voxelsrv/internal/server/stream"
	"github.com/OCharnyshevich/voxelsrv/internal/server/world"
	"github.com/OCharnyshevich/voxelsrv/pkg/gamedata"
	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

// Server is the voxel server: a websocket endpoint in front of the world
// and the chunk streaming scheduler.
type Server struct {
	cfg       *config.Config
	log       *slog.Logger
	blocks    *gamedata.Blocks
	store     *storage.Storage
	world     *world.World
	players   *player.Manager
	scheduler *stream.Scheduler
	conns     *conn.Server
}

// New creates a Server from cfg. It opens the world store when saving is
// enabled; a stored level's seed and generator replace the configured ones.
func New(cfg *config.Config, log *slog.Logger) (*Server, error) {
	blocks, err := loadBlocks(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, log: log, blocks: blocks}

	opts := world.Options{Border: cfg.WorldBorder, TTL: cfg.ChunkTTL}
	if cfg.SaveWorld {
		s.store, err = storage.Open(cfg.DataDir, log)
		if err != nil {
			return nil, err
		}
		if err := s.syncLevel(); err != nil {
			s.store.Close()
			return nil, err
		}
		opts.Store = s.store
	}

	generator, err := NewGenerator(cfg.GeneratorType, cfg.Seed, blocks)
	if err != nil {
		if s.store != nil {
			s.store.Close()
		}
		return nil, err
	}

	s.world = world.NewWorld(generator, log, opts)
	s.players = player.NewManager(cfg.MaxPlayers)
	s.scheduler = stream.NewScheduler(s.world, s.players, blocks,
		stream.Options{
			ViewDistance:  cfg.ViewDistance,
			Compression:   cfg.ChunkCompression,
			QueueCapacity: cfg.QueueCapacity,
		},
		stream.Timing{
			ViewTick:      cfg.ViewTick,
			DeliveryTick:  cfg.DeliveryTick,
			EvictInterval: cfg.EvictInterval,
		},
		log)
	s.conns = conn.NewServer(cfg, log, s.world, s.players, s.scheduler)
	return s, nil
}

// NewGenerator returns the terrain generator named by kind.
func NewGenerator(kind string, seed int64, blocks gamedata.BlockRegistry) (gen.Generator, error) {
	switch kind {
	case "flat":
		g, err := gen.NewFlatGenerator(blocks)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "normal", "":
		g, err := gen.NewNormalGenerator(seed, blocks)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown generator %q", kind)
	}
}

func loadBlocks(cfg *config.Config) (*gamedata.Blocks, error) {
	if cfg.BlockData != "" {
		b, err := gamedata.LoadFile(cfg.BlockData)
		if err != nil {
			return nil, fmt.Errorf("load block data: %w", err)
		}
		return b, nil
	}
	return gamedata.Load("default")
}

// syncLevel adopts the stored level identity, or records the configured
// one for a new world.
func (s *Server) syncLevel() error {
	lvl, err := s.store.LoadLevel()
	if err != nil {
		return err
	}
	if lvl != nil {
		if lvl.Seed != s.cfg.Seed || lvl.Generator != s.cfg.GeneratorType {
			s.log.Info("using stored level settings",
				"seed", lvl.Seed, "generator", lvl.Generator,
				"configuredSeed", s.cfg.Seed, "configuredGenerator", s.cfg.GeneratorType)
		}
		s.cfg.Seed = lvl.Seed
		s.cfg.GeneratorType = lvl.Generator
		return nil
	}
	return s.store.SaveLevel(&storage.Level{
		Name:      s.cfg.Name,
		Seed:      s.cfg.Seed,
		Generator: s.cfg.GeneratorType,
		Created:   time.Now().UTC(),
		Spawn:     s.cfg.Spawn,
	})
}

// World returns the server's world.
func (s *Server) World() *world.World { return s.world }

// Players returns the connected-player manager.
func (s *Server) Players() *player.Manager { return s.players }

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.conns.Handler())
	return mux
}

// Start listens on the configured address and blocks until ctx is
// cancelled. Edited chunks are flushed and the store closed on the way out.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Address, strconv.Itoa(s.cfg.Port))
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve runs the server on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("server started",
		"addr", listener.Addr().String(),
		"motd", s.cfg.MOTD,
		"generator", s.cfg.GeneratorType,
		"seed", s.cfg.Seed,
		"viewDistance", s.cfg.ViewDistance,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		s.conns.Shutdown()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	return errors.Join(err, s.close())
}

func (s *Server) close() error {
	if s.store == nil {
		return nil
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.world.Flush(flushCtx)
	if err != nil {
		s.log.Error("flush world", "error", err)
	}
	return errors.Join(err, s.store.Close())
}
