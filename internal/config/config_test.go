package config

import "testing"

// TestDefaults tests the shipped defaults without any environment overrides.
func TestDefaults(t *testing.T) {
	t.Setenv("CAPTURE_DEVICE", "")
	t.Setenv("CAPTURE_PORT", "")
	t.Setenv("CAPTURE_FILE", "")
	t.Setenv("LOW_PERFORMANCE_MODE", "")
	t.Setenv("BOSS_ONLY_DAMAGE", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("SERVER_ADDR", "")

	cfg := Load()
	if cfg.Capture.Device != "eth0" || cfg.Capture.Port != 6040 {
		t.Errorf("capture defaults = %+v", cfg.Capture)
	}
	if cfg.Meter.LowPerformance || cfg.Meter.BossOnlyDamage {
		t.Errorf("meter toggles should default off: %+v", cfg.Meter)
	}
	if cfg.Database.Path != "data/encounters.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Server.Addr != "127.0.0.1:6310" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
}

// TestEnvOverrides tests that environment variables override defaults.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAPTURE_DEVICE", "lo")
	t.Setenv("CAPTURE_PORT", "7777")
	t.Setenv("CAPTURE_FILE", "session.pcap")
	t.Setenv("LOW_PERFORMANCE_MODE", "true")
	t.Setenv("BOSS_ONLY_DAMAGE", "true")
	t.Setenv("DATABASE_PATH", "/tmp/enc.db")
	t.Setenv("SERVER_ADDR", "0.0.0.0:9000")
	t.Setenv("HEARTBEAT_URL", "http://example.test/beat")

	cfg := Load()
	if cfg.Capture.Device != "lo" || cfg.Capture.Port != 7777 || cfg.Capture.File != "session.pcap" {
		t.Errorf("capture overrides = %+v", cfg.Capture)
	}
	if !cfg.Meter.LowPerformance || !cfg.Meter.BossOnlyDamage {
		t.Errorf("meter overrides = %+v", cfg.Meter)
	}
	if cfg.Database.Path != "/tmp/enc.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
	if cfg.Heartbeat.URL != "http://example.test/beat" {
		t.Errorf("heartbeat url = %q", cfg.Heartbeat.URL)
	}
}

// TestInvalidPortIgnored tests that an out-of-range port keeps the default.
func TestInvalidPortIgnored(t *testing.T) {
	t.Setenv("CAPTURE_PORT", "70000")
	if cfg := CaptureFromEnv(); cfg.Port != 6040 {
		t.Errorf("port = %d, want default 6040", cfg.Port)
	}
	t.Setenv("CAPTURE_PORT", "junk")
	if cfg := CaptureFromEnv(); cfg.Port != 6040 {
		t.Errorf("port = %d, want default 6040", cfg.Port)
	}
}

// TestDebugAddrCanBeDisabled tests that an explicitly empty DEBUG_ADDR turns
// the debug server off rather than falling back to the default.
func TestDebugAddrCanBeDisabled(t *testing.T) {
	t.Setenv("DEBUG_ADDR", "")
	if cfg := ServerFromEnv(); cfg.DebugAddr != "" {
		t.Errorf("debug addr = %q, want disabled", cfg.DebugAddr)
	}
}
