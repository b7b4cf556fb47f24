package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Pair struct {
	Pair  string `yaml:"pair"`
	Depth int    `yaml:"depth"`
}

type Config struct {
	Workers int    `yaml:"workers"`
	Pairs   []Pair `yaml:"pairs"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
		QueryTimeoutMs      int    `yaml:"query_timeout_ms"`
	} `yaml:"server"`
	Bittrex struct {
		RestURL               string  `yaml:"rest_url"`
		SocketURL             string  `yaml:"socket_url"`
		Hub                   string  `yaml:"hub"`
		APIKey                string  `yaml:"api_key"`
		APISecret             string  `yaml:"api_secret"`
		WatchdogSeconds       int     `yaml:"watchdog_seconds"`
		SnapshotRatePerSecond float64 `yaml:"snapshot_rate_per_second"`
		SnapshotBurst         int     `yaml:"snapshot_burst"`
		BreakerFailures       uint32  `yaml:"breaker_failures"`
		BreakerCooldownSecs   int     `yaml:"breaker_cooldown_seconds"`
	} `yaml:"bittrex"`
}

func defaultConfig() Config {
	var c Config
	c.Workers = 3
	c.Pairs = []Pair{{Pair: "BTC-USD", Depth: 25}, {Pair: "ETH-USD", Depth: 25}}
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":8080"
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.QueryTimeoutMs = 2000
	c.Bittrex.RestURL = "https://api.bittrex.com/v3"
	c.Bittrex.SocketURL = "https://socket-v3.bittrex.com/signalr"
	c.Bittrex.Hub = "c3"
	c.Bittrex.WatchdogSeconds = 10
	c.Bittrex.SnapshotRatePerSecond = 5
	c.Bittrex.SnapshotBurst = 5
	c.Bittrex.BreakerFailures = 5
	c.Bittrex.BreakerCooldownSecs = 30
	return c
}

// Load reads defaults, then the YAML file named by MARKETSTATUS_CONFIG, then
// environment overrides. API keys are only taken from the environment or file.
func Load() (Config, error) {
	c := defaultConfig()
	if path := os.Getenv("MARKETSTATUS_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("WORKER_CNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("WORKER_CNT: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("MARKETSTATUS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MARKETSTATUS_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MARKETSTATUS_PAIRS"); v != "" {
		pairs, err := parsePairs(v)
		if err != nil {
			return c, fmt.Errorf("MARKETSTATUS_PAIRS: %w", err)
		}
		c.Pairs = pairs
	}
	if v := os.Getenv("BITTREX_API_KEY"); v != "" {
		c.Bittrex.APIKey = v
	}
	if v := os.Getenv("BITTREX_API_SECRET"); v != "" {
		c.Bittrex.APISecret = v
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if len(c.Pairs) == 0 {
		return errors.New("at least one pair is required")
	}
	seen := make(map[string]struct{}, len(c.Pairs))
	for _, p := range c.Pairs {
		if p.Pair == "" {
			return errors.New("pair name is empty")
		}
		if p.Depth <= 0 {
			return fmt.Errorf("pair %s: depth must be positive", p.Pair)
		}
		if _, ok := seen[p.Pair]; ok {
			return fmt.Errorf("pair %s configured twice", p.Pair)
		}
		seen[p.Pair] = struct{}{}
	}
	return nil
}

func (c Config) PairNames() []string {
	out := make([]string, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		out = append(out, p.Pair)
	}
	return out
}

func (c Config) QueryTimeout() time.Duration {
	return time.Duration(c.Server.QueryTimeoutMs) * time.Millisecond
}

// parsePairs reads "BTC-USD:25,ETH-USD:25".
func parsePairs(s string) ([]Pair, error) {
	var out []Pair
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, depth, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("%q: expected PAIR:DEPTH", item)
		}
		n, err := strconv.Atoi(depth)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", item, err)
		}
		out = append(out, Pair{Pair: strings.TrimSpace(name), Depth: n})
	}
	return out, nil
}
