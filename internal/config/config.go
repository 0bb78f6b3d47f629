// engine/internal/config/config.go
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Watch is a saved search that the engine re-runs on a timer.
type Watch struct {
	Query            string `yaml:"query" json:"query"`
	Location         string `yaml:"location" json:"location"`
	PostedWithinDays int    `yaml:"posted_within_days" json:"postedWithinDays"`
	Country          string `yaml:"country" json:"country"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"dataDir"`
	} `yaml:"app" json:"app"`

	Search struct {
		Mode                string `yaml:"mode" json:"mode"`
		MaxResultsPerSource int    `yaml:"max_results_per_source" json:"maxResultsPerSource"`
		Location            string `yaml:"location" json:"location"`
		FreshnessHours      int    `yaml:"freshness_hours" json:"freshnessHours"`
	} `yaml:"search" json:"search"`

	Platforms []string `yaml:"platforms" json:"platforms"`

	Direct struct {
		Endpoint       string   `yaml:"endpoint" json:"endpoint"`
		Attempts       int      `yaml:"attempts" json:"attempts"`
		BackoffMS      int      `yaml:"backoff_ms" json:"backoffMs"`
		TimeoutSeconds int      `yaml:"timeout_seconds" json:"timeoutSeconds"`
		ReqPerSec      float64  `yaml:"req_per_sec" json:"reqPerSec"`
		Burst          int      `yaml:"burst" json:"burst"`
		Proxies        []string `yaml:"proxies" json:"proxies"`
	} `yaml:"direct" json:"direct"`

	Delegated struct {
		BaseURL        string `yaml:"base_url" json:"baseUrl"`
		Actor          string `yaml:"actor" json:"actor"`
		WaitSeconds    int    `yaml:"wait_seconds" json:"waitSeconds"`
		TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeoutSeconds"`
	} `yaml:"delegated" json:"delegated"`

	Cost struct {
		StartCost     float64 `yaml:"start_cost" json:"startCost"`
		PerResultCost float64 `yaml:"per_result_cost" json:"perResultCost"`
	} `yaml:"cost" json:"cost"`

	Output struct {
		Driver string `yaml:"driver" json:"driver"` // sqlite | postgres | ndjson
		DSN    string `yaml:"dsn" json:"dsn"`
		Path   string `yaml:"path" json:"path"`
	} `yaml:"output" json:"output"`

	Watches []Watch `yaml:"watches" json:"watches"`

	Polling struct {
		WatchSeconds int `yaml:"watch_seconds" json:"watchSeconds"`
	} `yaml:"polling" json:"polling"`
}

const (
	OutputSQLite   = "sqlite"
	OutputPostgres = "postgres"
	OutputNDJSON   = "ndjson"
)

// Defaults is what an empty file means.
func Defaults() Config {
	var c Config
	c.App.Port = 38471
	c.Search.Mode = "direct"
	c.Search.MaxResultsPerSource = 10
	c.Search.Location = "Remote"
	c.Search.FreshnessHours = 3
	c.Direct.Attempts = 3
	c.Direct.BackoffMS = 1000
	c.Direct.TimeoutSeconds = 30
	c.Direct.ReqPerSec = 0.5
	c.Direct.Burst = 1
	c.Delegated.BaseURL = "https://api.apify.com"
	c.Delegated.Actor = "apify/google-search-scraper"
	c.Delegated.WaitSeconds = 60
	c.Delegated.TimeoutSeconds = 90
	c.Cost.StartCost = 0.005
	c.Cost.PerResultCost = 0.0015
	c.Output.Driver = OutputSQLite
	c.Polling.WatchSeconds = 3600
	return c
}

// Load reads path over Defaults, so keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) Freshness() time.Duration {
	return time.Duration(c.Search.FreshnessHours) * time.Hour
}

func (c Config) DirectBackoff() time.Duration {
	return time.Duration(c.Direct.BackoffMS) * time.Millisecond
}

func (c Config) DirectTimeout() time.Duration {
	return time.Duration(c.Direct.TimeoutSeconds) * time.Second
}

func (c Config) DelegatedTimeout() time.Duration {
	return time.Duration(c.Delegated.TimeoutSeconds) * time.Second
}

func (c Config) WatchInterval() time.Duration {
	return time.Duration(c.Polling.WatchSeconds) * time.Second
}
