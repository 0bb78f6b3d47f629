package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, path, "search:\n  mode: delegated\nplatforms: [lever.co]\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "delegated", cfg.Search.Mode)
	assert.Equal(t, []string{"lever.co"}, cfg.Platforms)
	assert.Equal(t, 10, cfg.Search.MaxResultsPerSource)
	assert.Equal(t, 3, cfg.Direct.Attempts)
	assert.Equal(t, "sqlite", cfg.Output.Driver)
}

func TestShippedDefaultConfigIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yml"))
	require.NoError(t, err)
	_, v := NormalizeAndValidate(cfg)
	assert.Empty(t, v.Errors)
	assert.Len(t, cfg.Platforms, 13)
}

func TestNormalizeAndValidate(t *testing.T) {
	t.Run("normalizes lists and defaults", func(t *testing.T) {
		cfg := Defaults()
		cfg.Platforms = []string{" Lever.co ", "lever.co", "", "greenhouse.io"}
		cfg.Search.Mode = " Direct "
		cfg.Output.Driver = ""

		out, v := NormalizeAndValidate(cfg)
		assert.True(t, v.OK(), v.Errors)
		assert.Equal(t, []string{"lever.co", "greenhouse.io"}, out.Platforms)
		assert.Equal(t, "direct", out.Search.Mode)
		assert.Equal(t, OutputSQLite, out.Output.Driver)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.App.Port = 0 }, "app.port"},
		{"bad mode", func(c *Config) { c.Search.Mode = "scrape" }, "search.mode"},
		{"platform with path", func(c *Config) { c.Platforms = []string{"jobs.lever.co/acme"} }, "platforms[0]"},
		{"zero attempts", func(c *Config) { c.Direct.Attempts = 0 }, "direct.attempts"},
		{"relative proxy", func(c *Config) { c.Direct.Proxies = []string{"proxy:8080"} }, "direct.proxies[0]"},
		{"delegated without actor", func(c *Config) { c.Search.Mode = "delegated"; c.Delegated.Actor = "" }, "delegated.actor"},
		{"postgres without dsn", func(c *Config) { c.Output.Driver = "postgres" }, "output.dsn"},
		{"ndjson without path", func(c *Config) { c.Output.Driver = "ndjson" }, "output.path"},
		{"unknown driver", func(c *Config) { c.Output.Driver = "csv" }, "output.driver"},
		{"watch without query", func(c *Config) { c.Watches = []Watch{{Query: "  "}} }, "watches[0].query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			_, v := NormalizeAndValidate(cfg)
			require.False(t, v.OK())
			assert.Contains(t, v.Errors[0], tt.wantErr)
		})
	}
}

func TestSaveAtomicKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := Defaults()
	require.NoError(t, SaveAtomic(path, cfg))

	cfg.Search.MaxResultsPerSource = 25
	require.NoError(t, SaveAtomic(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Search.MaxResultsPerSource)

	bak, err := Load(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, 10, bak.Search.MaxResultsPerSource)

	cfg.App.Port = -1
	assert.Error(t, SaveAtomic(path, cfg))
}

func TestEnsureUserConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	path, err := EnsureUserConfig(dir, filepath.Join(dir, "missing.yml"))
	require.NoError(t, err)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults().App.Port, cfg.App.Port)

	// an existing file is left alone
	writeFile(t, path, "app:\n  port: 9000\n")
	again, err := EnsureUserConfig(dir, "unused")
	require.NoError(t, err)
	assert.Equal(t, path, again)
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.App.Port)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/atsscout")
	t.Setenv(EnvSearchMode, "delegated")
	t.Setenv(EnvProxyURLs, "http://p1:8080, ,http://p2:8080")

	cfg := Defaults()
	ApplyEnv(&cfg)
	assert.Equal(t, "/tmp/atsscout", cfg.App.DataDir)
	assert.Equal(t, "delegated", cfg.Search.Mode)
	assert.Equal(t, []string{"http://p1:8080", "http://p2:8080"}, cfg.Direct.Proxies)
}

func TestCostCeiling(t *testing.T) {
	t.Run("unset disables", func(t *testing.T) {
		t.Setenv(EnvMaxTotalCost, "")
		c, err := CostCeiling()
		require.NoError(t, err)
		assert.Nil(t, c)
	})
	t.Run("parsed", func(t *testing.T) {
		t.Setenv(EnvMaxTotalCost, " 0.25 ")
		c, err := CostCeiling()
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.InDelta(t, 0.25, *c, 1e-12)
	})
	t.Run("garbage", func(t *testing.T) {
		t.Setenv(EnvMaxTotalCost, "lots")
		_, err := CostCeiling()
		assert.Error(t, err)
	})
	t.Run("negative", func(t *testing.T) {
		t.Setenv(EnvMaxTotalCost, "-1")
		_, err := CostCeiling()
		assert.Error(t, err)
	})
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, EnvSearchMode+"=delegated\n"+EnvMaxTotalCost+"=1.5\n")
	t.Setenv(EnvSearchMode, "direct")
	t.Setenv(EnvMaxTotalCost, "")
	require.NoError(t, os.Unsetenv(EnvMaxTotalCost))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "direct", os.Getenv(EnvSearchMode))
	assert.Equal(t, "1.5", os.Getenv(EnvMaxTotalCost))
}
