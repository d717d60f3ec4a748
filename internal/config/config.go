// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for capture, engine and server settings.
//
// IMPORTANT: When changing defaults, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// Version is stamped into saved encounters and heartbeats.
const Version = "1.2.0"

// =============================================================================
// CAPTURE CONFIGURATION
// =============================================================================

// CaptureConfig selects where game frames come from: a live device or a
// recorded pcap file. File takes precedence when set.
type CaptureConfig struct {
	Device string // Network device to sniff
	Port   uint16 // Game server TCP port
	File   string // Optional pcap file to replay instead of live capture
}

// DefaultCapture returns the default capture configuration.
func DefaultCapture() CaptureConfig {
	return CaptureConfig{
		Device: "eth0",
		Port:   6040,
	}
}

// CaptureFromEnv returns capture configuration with environment variable overrides.
func CaptureFromEnv() CaptureConfig {
	cfg := DefaultCapture()

	if d := os.Getenv("CAPTURE_DEVICE"); d != "" {
		cfg.Device = d
	}
	if p := getEnvInt("CAPTURE_PORT", 0); p > 0 && p < 65536 {
		cfg.Port = uint16(p)
	}
	if f := os.Getenv("CAPTURE_FILE"); f != "" {
		cfg.File = f
	}

	return cfg
}

// =============================================================================
// ENGINE CONFIGURATION
// =============================================================================

// MeterConfig tunes the tracking engine.
type MeterConfig struct {
	LowPerformance bool   // Stretch the snapshot interval for weak machines
	BossOnlyDamage bool   // Start with non-boss damage filtered out
	LocalStorePath string // Local player cache file
	RegionPath     string // Region file written by the launcher
}

// DefaultMeter returns the default engine configuration.
func DefaultMeter() MeterConfig {
	return MeterConfig{
		LocalStorePath: "data/local_players.json",
		RegionPath:     "data/current_region",
	}
}

// MeterFromEnv returns engine configuration with environment variable overrides.
func MeterFromEnv() MeterConfig {
	cfg := DefaultMeter()

	if os.Getenv("LOW_PERFORMANCE_MODE") == "true" {
		cfg.LowPerformance = true
	}
	if os.Getenv("BOSS_ONLY_DAMAGE") == "true" {
		cfg.BossOnlyDamage = true
	}
	if p := os.Getenv("LOCAL_STORE_PATH"); p != "" {
		cfg.LocalStorePath = p
	}
	if p := os.Getenv("REGION_PATH"); p != "" {
		cfg.RegionPath = p
	}

	return cfg
}

// =============================================================================
// DATABASE CONFIGURATION
// =============================================================================

// DatabaseConfig locates the encounter database.
type DatabaseConfig struct {
	Path string
}

// DefaultDatabase returns the default database configuration.
func DefaultDatabase() DatabaseConfig {
	return DatabaseConfig{Path: "data/encounters.db"}
}

// DatabaseFromEnv returns database configuration with environment variable overrides.
func DatabaseFromEnv() DatabaseConfig {
	cfg := DefaultDatabase()

	if p := os.Getenv("DATABASE_PATH"); p != "" {
		cfg.Path = p
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds the websocket/command server settings.
type ServerConfig struct {
	Addr           string   // Listen address for the API server
	DebugAddr      string   // Localhost-only metrics/pprof server, "" disables
	AllowedOrigins []string // CORS origins for the presentation layer
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Addr:           "127.0.0.1:6310",
		DebugAddr:      "127.0.0.1:6311",
		AllowedOrigins: []string{"http://localhost:5173", "app://localhost"},
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if a := os.Getenv("SERVER_ADDR"); a != "" {
		cfg.Addr = a
	}
	if a, ok := os.LookupEnv("DEBUG_ADDR"); ok {
		cfg.DebugAddr = a
	}

	return cfg
}

// =============================================================================
// HEARTBEAT CONFIGURATION
// =============================================================================

// HeartbeatConfig points at the analytics endpoint; empty URL disables beats.
type HeartbeatConfig struct {
	URL string
}

// HeartbeatFromEnv returns heartbeat configuration with environment variable overrides.
func HeartbeatFromEnv() HeartbeatConfig {
	return HeartbeatConfig{URL: os.Getenv("HEARTBEAT_URL")}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Capture   CaptureConfig
	Meter     MeterConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Heartbeat HeartbeatConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Capture:   CaptureFromEnv(),
		Meter:     MeterFromEnv(),
		Database:  DatabaseFromEnv(),
		Server:    ServerFromEnv(),
		Heartbeat: HeartbeatFromEnv(),
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
