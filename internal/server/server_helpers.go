package server

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultRefreshInterval = 10 * time.Second

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// grpcAddrFromEnv returns "" when RADIATOR_GRPC_ADDR is set but empty.
func grpcAddrFromEnv() string {
	v, ok := os.LookupEnv("RADIATOR_GRPC_ADDR")
	if !ok {
		return ":9090"
	}
	return strings.TrimSpace(v)
}

func refreshIntervalFromEnv() time.Duration {
	raw := strings.TrimSpace(envOrDefault("RADIATOR_REFRESH_SECONDS", "10"))
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		slog.Warn("invalid refresh interval, using default", "value", raw, "default", defaultRefreshInterval)
		return defaultRefreshInterval
	}
	return time.Duration(secs) * time.Second
}

// parseGroupedParam reads the optional grouped query parameter.
func parseGroupedParam(raw string, fallback bool) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseBool(raw)
}
