package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/masqueradebot/masquerade/internal/dependencies/clock"
	"github.com/masqueradebot/masquerade/internal/dependencies/random"
	"github.com/masqueradebot/masquerade/internal/registry"
	memoryregistry "github.com/masqueradebot/masquerade/internal/registry/memory"
	redisregistry "github.com/masqueradebot/masquerade/internal/registry/redis"
	"github.com/masqueradebot/masquerade/internal/services/round"
	"github.com/masqueradebot/masquerade/internal/shuffle"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Registry
	Registry registry.Registry

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Engine          *shuffle.Engine
	RoundController *round.Controller
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the registry backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisregistry.Config
	// MaxShuffleAttempts bounds the engine's rejection-sampling phase
	// (0 selects the engine default)
	MaxShuffleAttempts int
	// Messenger is the message-delivery transport (required)
	Messenger round.Messenger
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	if cfg.Messenger == nil {
		return nil, errors.New("Messenger is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var reg registry.Registry
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		reg = memoryregistry.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisReg, err := redisregistry.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		reg = redisReg
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	engine := shuffle.New(rnd, cfg.MaxShuffleAttempts, logger)
	controller := round.NewController(reg, engine, cfg.Messenger, clk, logger)

	return &App{
		Registry:        reg,
		Clock:           clk,
		Random:          rnd,
		Engine:          engine,
		RoundController: controller,
	}, nil
}
