// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all world and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"math"
	"os"
	"strconv"
)

// =============================================================================
// WORLD CONFIGURATION
// =============================================================================

// WorldConfig holds the geometric and kinematic constants that define the
// arena and every player's movement envelope.
type WorldConfig struct {
	Width                  float64 // World bounding box width
	Height                 float64 // World bounding box height
	ArenaCenterX           float64
	ArenaCenterY           float64
	ArenaRadius            float64
	PlayerSpeed            float64 // units/sec once a player has moved
	PlayerTurnSpeed        float64 // steering lerp factor, radians/sec per radian of error
	TrailPointDistance     float64 // minimum spacing between recorded trail points
	StartingTerritorySize  float64 // diameter of the initial seed territory
	MinSpawnDistance       float64 // extra clearance beyond the seed radius between a spawn point and the nearest vertex of any live territory; dropped by the relaxed spawn fallback
	TickRate               int     // simulation ticks per second
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Width:                 5000,
		Height:                5000,
		ArenaCenterX:          2500,
		ArenaCenterY:          2500,
		ArenaRadius:           2500,
		PlayerSpeed:           500,
		PlayerTurnSpeed:       12,
		TrailPointDistance:    10,
		StartingTerritorySize: 300,
		MinSpawnDistance:      500,
		TickRate:              60,
	}
}

// WorldFromEnv returns world configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if w := getEnvFloat("WORLD_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvFloat("WORLD_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if tr := getEnvInt("SERVER_TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}

	cfg.ArenaCenterX = cfg.Width / 2
	cfg.ArenaCenterY = cfg.Height / 2
	cfg.ArenaRadius = math.Min(cfg.Width, cfg.Height) / 2
	return cfg
}

// TickInterval returns the fixed per-tick duration implied by TickRate.
func (w WorldConfig) TickInterval() float64 {
	return 1.0 / float64(w.TickRate)
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls population bounds and DoS protection.
type ResourceLimits struct {
	MaxHumansPerRoom        int // logged at startup; joins are not checked against it
	MinHumansForBots        int // below this human count bots are spawned
	TargetTotalPlayers      int // bot population manager's fill target
	MaxSpawnAttempts        int // random placement attempts before relaxation fallback
	BotDecisionHz           float64
	BotPopulationIntervalMs int
	DeadBotRemovalMs        int
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxHumansPerRoom:        10,
		MinHumansForBots:        3,
		TargetTotalPlayers:      4,
		MaxSpawnAttempts:        20,
		BotDecisionHz:           6,
		BotPopulationIntervalMs: 2000,
		DeadBotRemovalMs:        1000,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP/WebSocket transport settings.
type ServerConfig struct {
	Port       int
	NodeEnv    string // loaded from the environment; no component reads it, and no static client files are served in any mode
	MaxPlayers int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:       3000,
		NodeEnv:    "development",
		MaxPlayers: 100,
	}
}

// ServerFromEnv returns server configuration with environment variable
// overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if env := os.Getenv("NODE_ENV"); env != "" {
		cfg.NodeEnv = env
	}
	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 {
		cfg.MaxPlayers = mp
	}

	return cfg
}

// =============================================================================
// SPATIAL CONFIGURATION
// =============================================================================

// SpatialConfig holds spatial indexing settings.
type SpatialConfig struct {
	GridCellSize float64 // SpatialHash cell size in world units
}

// DefaultSpatial returns the default spatial configuration.
func DefaultSpatial() SpatialConfig {
	return SpatialConfig{
		GridCellSize: 100,
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World   WorldConfig
	Server  ServerConfig
	Limits  ResourceLimits
	Spatial SpatialConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:   WorldFromEnv(),
		Server:  ServerFromEnv(),
		Limits:  DefaultLimits(),
		Spatial: DefaultSpatial(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
