package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	Port         int    `yaml:"port"`
	Address      string `yaml:"address"`
	Name         string `yaml:"name"`
	MOTD         string `yaml:"motd"`
	MaxPlayers   int    `yaml:"max_players"`
	ViewDistance int    `yaml:"view_distance"` // ring count around the player's chunk
	// ChunkCompression zlib-compresses chunk payloads on delivery.
	ChunkCompression bool `yaml:"chunk_compression"`

	Seed          int64  `yaml:"seed"`
	GeneratorType string `yaml:"generator"`    // "normal" or "flat"
	WorldBorder   int    `yaml:"world_border"` // world boundary in chunks (0 = infinite)
	Spawn         [3]int `yaml:"spawn"`
	SaveWorld     bool   `yaml:"save_world"`
	DataDir       string `yaml:"data_dir"`
	BlockData     string `yaml:"block_data"` // optional JSON palette from fetchdata

	ViewTick      time.Duration `yaml:"view_tick"`
	DeliveryTick  time.Duration `yaml:"delivery_tick"`
	EvictInterval time.Duration `yaml:"evict_interval"`
	ChunkTTL      time.Duration `yaml:"chunk_ttl"`
	QueueCapacity int           `yaml:"queue_capacity"`
	InboundRate   float64       `yaml:"inbound_rate"` // client messages per second
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:          3000,
		Address:       "0.0.0.0",
		Name:          "voxelsrv",
		MOTD:          "A voxel world",
		MaxPlayers:    10,
		ViewDistance:  5,
		GeneratorType: "normal",
		WorldBorder:   24,
		Spawn:         [3]int{0, 100, 0},
		SaveWorld:     true,
		DataDir:       "./data",
		ViewTick:      time.Second,
		DeliveryTick:  50 * time.Millisecond,
		EvictInterval: 10 * time.Second,
		ChunkTTL:      time.Minute,
		QueueCapacity: 4096,
		InboundRate:   40,
	}
}

// Load reads a YAML config file on top of the defaults. A missing file is
// not an error: the defaults are returned with ok=false.
func Load(path string) (cfg *Config, ok bool, err error) {
	cfg = DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, false, nil
		}
		return nil, false, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, true, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.MaxPlayers <= 0:
		return fmt.Errorf("max_players must be positive, got %d", c.MaxPlayers)
	case c.ViewDistance < 0 || c.ViewDistance > 32:
		return fmt.Errorf("view_distance must be in [0, 32], got %d", c.ViewDistance)
	case c.GeneratorType != "normal" && c.GeneratorType != "flat":
		return fmt.Errorf("unknown generator %q", c.GeneratorType)
	case c.WorldBorder < 0:
		return fmt.Errorf("world_border must not be negative, got %d", c.WorldBorder)
	case c.ViewTick <= 0 || c.DeliveryTick <= 0:
		return errors.New("view_tick and delivery_tick must be positive")
	case c.ChunkTTL < 0:
		return fmt.Errorf("chunk_ttl must not be negative, got %v", c.ChunkTTL)
	case c.ChunkTTL > 0 && c.ChunkTTL <= c.ViewTick:
		return fmt.Errorf("chunk_ttl %v must exceed view_tick %v", c.ChunkTTL, c.ViewTick)
	case c.QueueCapacity <= 0:
		return fmt.Errorf("queue_capacity must be positive, got %d", c.QueueCapacity)
	case c.InboundRate <= 0:
		return fmt.Errorf("inbound_rate must be positive, got %v", c.InboundRate)
	}
	return nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["port"] {
		cfg.Port = fromFile.Port
	}
	if !explicitFlags["address"] {
		cfg.Address = fromFile.Address
	}
	if !explicitFlags["motd"] {
		cfg.MOTD = fromFile.MOTD
	}
	if !explicitFlags["max-players"] {
		cfg.MaxPlayers = fromFile.MaxPlayers
	}
	if !explicitFlags["view-distance"] {
		cfg.ViewDistance = fromFile.ViewDistance
	}
	if !explicitFlags["compression"] {
		cfg.ChunkCompression = fromFile.ChunkCompression
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["generator"] {
		cfg.GeneratorType = fromFile.GeneratorType
	}
	if !explicitFlags["world-border"] {
		cfg.WorldBorder = fromFile.WorldBorder
	}
	if !explicitFlags["data-dir"] {
		cfg.DataDir = fromFile.DataDir
	}

	// File-only settings.
	cfg.Name = fromFile.Name
	cfg.Spawn = fromFile.Spawn
	cfg.SaveWorld = fromFile.SaveWorld
	cfg.BlockData = fromFile.BlockData
	cfg.ViewTick = fromFile.ViewTick
	cfg.DeliveryTick = fromFile.DeliveryTick
	cfg.EvictInterval = fromFile.EvictInterval
	cfg.ChunkTTL = fromFile.ChunkTTL
	cfg.QueueCapacity = fromFile.QueueCapacity
	cfg.InboundRate = fromFile.InboundRate
}
