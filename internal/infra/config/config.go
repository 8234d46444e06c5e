/*
 * file: config.go
 * package: config
 * description:
 *     Process configuration: command-line flags layered over optional
 *     .env defaults, the same two-stage pattern other game servers in
 *     this family use for local development versus deployed settings.
 */

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Port         int
	MaxClients   int64
	LogLevel     string
	MetricsAddr  string
}

// Load parses .env (if present, silently ignored otherwise), then
// command-line flags, then validates required values. Port has no
// default and must be supplied via -p/--port.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("jeux-server", pflag.ContinueOnError)
	port := fs.IntP("port", "p", envInt("JEUX_PORT", 0), "listen port (required)")
	maxClients := fs.Int64("max-clients", envInt64("JEUX_MAX_CLIENTS", 64), "maximum concurrent connections")
	logLevel := fs.String("log-level", envString("JEUX_LOG_LEVEL", "info"), "zerolog level: debug, info, warn, error")
	metricsAddr := fs.String("metrics-addr", envString("JEUX_METRICS_ADDR", ""), "address for the /metrics endpoint, empty disables it")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *port == 0 {
		return nil, fmt.Errorf("jeux-server: -p/--port is required")
	}

	return &Config{
		Port:        *port,
		MaxClients:  *maxClients,
		LogLevel:    *logLevel,
		MetricsAddr: *metricsAddr,
	}, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}
