package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, name := range []string{EnvPort, EnvListenIP, EnvLogLevel, EnvGitHubToken, EnvAPITimeout, EnvCacheTTL, EnvMaxConns, EnvAppsFile} {
		t.Setenv(name, "")
	}

	cfg := Load()

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.ListenIP != DefaultListenIP {
		t.Errorf("ListenIP = %q, want %q", cfg.ListenIP, DefaultListenIP)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.GitHubToken != "" {
		t.Errorf("GitHubToken = %q, want empty", cfg.GitHubToken)
	}
	if cfg.APITimeout != DefaultAPITimeout {
		t.Errorf("APITimeout = %v, want %v", cfg.APITimeout, DefaultAPITimeout)
	}
	if cfg.CacheTTL != DefaultCacheTTL {
		t.Errorf("CacheTTL = %v, want %v", cfg.CacheTTL, DefaultCacheTTL)
	}
	if cfg.MaxConns != DefaultMaxConns {
		t.Errorf("MaxConns = %d, want %d", cfg.MaxConns, DefaultMaxConns)
	}
	if cfg.AppsFile != "" {
		t.Errorf("AppsFile = %q, want empty", cfg.AppsFile)
	}
	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q, want 0.0.0.0:8080", got)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvListenIP, "::1")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvGitHubToken, " ghp_test ")
	t.Setenv(EnvAPITimeout, "45s")
	t.Setenv(EnvCacheTTL, "0s")
	t.Setenv(EnvMaxConns, "16")
	t.Setenv(EnvAppsFile, "/etc/termlibs/apps.toml")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "WARN" {
		t.Errorf("LogLevel = %q, want WARN", cfg.LogLevel)
	}
	if cfg.GitHubToken != "ghp_test" {
		t.Errorf("GitHubToken = %q, want ghp_test", cfg.GitHubToken)
	}
	if cfg.APITimeout != 45*time.Second {
		t.Errorf("APITimeout = %v, want 45s", cfg.APITimeout)
	}
	if cfg.CacheTTL != 0 {
		t.Errorf("CacheTTL = %v, want 0", cfg.CacheTTL)
	}
	if cfg.MaxConns != 16 {
		t.Errorf("MaxConns = %d, want 16", cfg.MaxConns)
	}
	if cfg.AppsFile != "/etc/termlibs/apps.toml" {
		t.Errorf("AppsFile = %q", cfg.AppsFile)
	}
	if got := cfg.Addr(); got != "[::1]:9090" {
		t.Errorf("Addr() = %q, want [::1]:9090", got)
	}
}

func TestGetPort(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int
	}{
		{"empty uses default", "", DefaultPort},
		{"valid", "3000", 3000},
		{"not a number", "http", DefaultPort},
		{"zero", "0", DefaultPort},
		{"too large", "70000", DefaultPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvPort, tt.envValue)
			if got := GetPort(); got != tt.want {
				t.Errorf("GetPort() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetListenIP(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     string
	}{
		{"empty uses default", "", DefaultListenIP},
		{"ipv4", "127.0.0.1", "127.0.0.1"},
		{"hostname rejected", "localhost", DefaultListenIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvListenIP, tt.envValue)
			if got := GetListenIP(); got != tt.want {
				t.Errorf("GetListenIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetAPITimeout(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
	}{
		{"empty uses default", "", DefaultAPITimeout},
		{"valid", "1m", time.Minute},
		{"invalid format", "soon", DefaultAPITimeout},
		{"too low clamps", "10ms", time.Second},
		{"too high clamps", "1h", 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvAPITimeout, tt.envValue)
			if got := GetAPITimeout(); got != tt.want {
				t.Errorf("GetAPITimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCacheTTL(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
	}{
		{"empty uses default", "", DefaultCacheTTL},
		{"disabled", "0", 0},
		{"negative clamps", "-1m", 0},
		{"too high clamps", "48h", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvCacheTTL, tt.envValue)
			if got := GetCacheTTL(); got != tt.want {
				t.Errorf("GetCacheTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetMaxConns(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int
	}{
		{"empty uses default", "", DefaultMaxConns},
		{"valid", "8", 8},
		{"zero", "0", DefaultMaxConns},
		{"garbage", "many", DefaultMaxConns},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvMaxConns, tt.envValue)
			if got := GetMaxConns(); got != tt.want {
				t.Errorf("GetMaxConns() = %d, want %d", got, tt.want)
			}
		})
	}
}
