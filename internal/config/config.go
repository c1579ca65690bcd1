package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvPort is the TCP port the server listens on
	EnvPort = "PORT"

	// EnvListenIP is the address the server binds to
	EnvListenIP = "LISTEN_IP"

	// EnvLogLevel selects DEBUG, INFO, WARN or ERROR logging
	EnvLogLevel = "LOG_LEVEL"

	// EnvGitHubToken authenticates GitHub API requests
	EnvGitHubToken = "GITHUB_TOKEN"

	// EnvAPITimeout is the timeout for a single GitHub API request
	EnvAPITimeout = "TERMLIBS_API_TIMEOUT"

	// EnvCacheTTL is how long a fetched release asset list is reused
	EnvCacheTTL = "TERMLIBS_CACHE_TTL"

	// EnvMaxConns caps simultaneous client connections
	EnvMaxConns = "TERMLIBS_MAX_CONNS"

	// EnvAppsFile points at a TOML file replacing the built-in app registry
	EnvAppsFile = "TERMLIBS_APPS_FILE"

	DefaultPort       = 8080
	DefaultListenIP   = "0.0.0.0"
	DefaultLogLevel   = "DEBUG"
	DefaultAPITimeout = 30 * time.Second
	DefaultCacheTTL   = 5 * time.Minute
	DefaultMaxConns   = 256
)

// Config is the process configuration, collected once at startup.
type Config struct {
	Port        int
	ListenIP    string
	LogLevel    string
	GitHubToken string
	APITimeout  time.Duration
	CacheTTL    time.Duration
	MaxConns    int
	AppsFile    string
}

// Load reads the configuration from the environment. Invalid values are
// reported on stderr and replaced with their defaults.
func Load() Config {
	return Config{
		Port:        GetPort(),
		ListenIP:    GetListenIP(),
		LogLevel:    GetLogLevel(),
		GitHubToken: GitHubToken(),
		APITimeout:  GetAPITimeout(),
		CacheTTL:    GetCacheTTL(),
		MaxConns:    GetMaxConns(),
		AppsFile:    strings.TrimSpace(os.Getenv(EnvAppsFile)),
	}
}

// Addr returns the host:port the server should listen on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.ListenIP, strconv.Itoa(c.Port))
}

// GetPort returns PORT, or DefaultPort if unset or not a valid port number.
func GetPort() int {
	envValue := os.Getenv(EnvPort)
	if envValue == "" {
		return DefaultPort
	}

	port, err := strconv.Atoi(envValue)
	if err != nil || port < 1 || port > 65535 {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %d\n",
			EnvPort, envValue, DefaultPort)
		return DefaultPort
	}
	return port
}

// GetListenIP returns LISTEN_IP, or DefaultListenIP if unset or not an IP.
func GetListenIP() string {
	envValue := strings.TrimSpace(os.Getenv(EnvListenIP))
	if envValue == "" {
		return DefaultListenIP
	}
	if net.ParseIP(envValue) == nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %s\n",
			EnvListenIP, envValue, DefaultListenIP)
		return DefaultListenIP
	}
	return envValue
}

// GetLogLevel returns LOG_LEVEL upper-cased, or DefaultLogLevel if unset.
func GetLogLevel() string {
	envValue := strings.TrimSpace(os.Getenv(EnvLogLevel))
	if envValue == "" {
		return DefaultLogLevel
	}
	return strings.ToUpper(envValue)
}

// GitHubToken returns GITHUB_TOKEN, empty for anonymous access.
func GitHubToken() string {
	return strings.TrimSpace(os.Getenv(EnvGitHubToken))
}

// GetAPITimeout returns TERMLIBS_API_TIMEOUT clamped to 1s..10m.
// Accepts duration strings like "30s", "1m", "2m30s".
func GetAPITimeout() time.Duration {
	return durationFromEnv(EnvAPITimeout, DefaultAPITimeout, time.Second, 10*time.Minute)
}

// GetCacheTTL returns TERMLIBS_CACHE_TTL clamped to 0..24h. Zero disables
// the release cache.
func GetCacheTTL() time.Duration {
	return durationFromEnv(EnvCacheTTL, DefaultCacheTTL, 0, 24*time.Hour)
}

// GetMaxConns returns TERMLIBS_MAX_CONNS, or DefaultMaxConns if unset or
// not a positive integer.
func GetMaxConns() int {
	envValue := os.Getenv(EnvMaxConns)
	if envValue == "" {
		return DefaultMaxConns
	}

	n, err := strconv.Atoi(envValue)
	if err != nil || n < 1 {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %d\n",
			EnvMaxConns, envValue, DefaultMaxConns)
		return DefaultMaxConns
	}
	return n
}

func durationFromEnv(name string, def, lo, hi time.Duration) time.Duration {
	envValue := os.Getenv(name)
	if envValue == "" {
		return def
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			name, envValue, def)
		return def
	}

	if duration < lo {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n",
			name, duration, lo)
		return lo
	}
	if duration > hi {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n",
			name, duration, hi)
		return hi
	}

	return duration
}
