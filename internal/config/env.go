package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvMaxTotalCost = "ATSSCOUT_MAX_TOTAL_COST"
	EnvSearchToken  = "ATSSCOUT_SEARCH_TOKEN"
	EnvDataDir      = "ATSSCOUT_DATA_DIR"
	EnvSearchMode   = "ATSSCOUT_SEARCH_MODE"
	EnvProxyURLs    = "ATSSCOUT_PROXY_URLS"
)

// LoadDotEnv loads .env files into the process environment. Missing files
// are fine; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with ATSSCOUT_* variables.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSearchMode)); v != "" {
		cfg.Search.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvProxyURLs)); v != "" {
		var proxies []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				proxies = append(proxies, p)
			}
		}
		cfg.Direct.Proxies = proxies
	}
}

// CostCeiling reads the run cost ceiling. Absent or empty means no ceiling.
func CostCeiling() (*float64, error) {
	v := strings.TrimSpace(os.Getenv(EnvMaxTotalCost))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s=%q: %w", EnvMaxTotalCost, v, err)
	}
	if f < 0 {
		return nil, fmt.Errorf("%s must be >= 0, got %v", EnvMaxTotalCost, f)
	}
	return &f, nil
}
