package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultServerID is used when no server configs are present and as the
// partition for back-filled legacy data.
const DefaultServerID = 426

type Config struct {
	StoreURL        string
	TranslationURL  string
	DBPath          string
	ListenAddr      string
	Fetcher         FetcherConfig
	RetentionDays   int
	LegacyDualWrite bool
	Servers         []ServerConfig
}

type FetcherConfig struct {
	Interval time.Duration
	Cron     string
	Timeout  time.Duration
}

// ServerConfig identifies one marketplace server tracked by the daemon.
type ServerConfig struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StoreURL:       getEnv("STORE_URL", "https://metin2alerts.com/store/"),
		TranslationURL: os.Getenv("TRANSLATION_URL"),
		DBPath:         getEnv("DB_PATH", "price_history.db"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":5001"),
		Fetcher: FetcherConfig{
			Interval: 5 * time.Minute,
			Cron:     os.Getenv("FETCH_CRON"),
			Timeout:  time.Duration(getEnvInt("FETCH_TIMEOUT_S", 15)) * time.Second,
		},
		RetentionDays:   getEnvInt("RETENTION_DAYS", 0),
		LegacyDualWrite: os.Getenv("LEGACY_DUAL_WRITE") == "true",
	}

	if interval := os.Getenv("FETCH_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Fetcher.Interval = d
		}
	}

	if err := cfg.loadServerConfigs(); err != nil {
		return nil, err
	}

	if len(cfg.Servers) == 0 {
		cfg.Servers = []ServerConfig{{ID: DefaultServerID, Name: "Default"}}
	}

	return cfg, nil
}

func (c *Config) loadServerConfigs() error {
	configDir := "config/servers"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var server ServerConfig
		if err := yaml.Unmarshal(data, &server); err != nil {
			return err
		}
		if server.ID == 0 {
			continue
		}

		c.Servers = append(c.Servers, server)
	}

	sort.Slice(c.Servers, func(i, j int) bool { return c.Servers[i].ID < c.Servers[j].ID })
	return nil
}

// KnownServer reports whether id is one of the configured servers.
func (c *Config) KnownServer(id int) bool {
	for _, s := range c.Servers {
		if s.ID == id {
			return true
		}
	}
	return false
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
