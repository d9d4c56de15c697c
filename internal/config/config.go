package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Corpus struct {
		Paths []string `yaml:"paths"`
	} `yaml:"corpus"`
	AI struct {
		Provider string `yaml:"provider"` // openai, azure or gemini
		Model    string `yaml:"model"`    // model name, or deployment name for azure
		APIKey   string `yaml:"api_key"`
		Endpoint string `yaml:"endpoint"`
		Timeout  int    `yaml:"timeout_seconds"`
	} `yaml:"ai"`
	Server struct {
		Addr   string `yaml:"addr"`
		DBPath string `yaml:"db_path"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Defaults returns a usable configuration without any config file present.
func Defaults() *Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.DBPath = "rubricon.db"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return &cfg
}

// LoadConfig reads configuration in layers: defaults, then an optional YAML
// file, then environment variables. A missing file is not an error so the
// CLI works out of the box.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Defaults()

	// 2. Load YAML config
	if path != "" {
		file, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// 3. Override with Environment Variables if present
	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RUBRICON_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := os.Getenv("RUBRICON_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("RUBRICON_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("RUBRICON_AI_ENDPOINT"); v != "" {
		cfg.AI.Endpoint = v
	}
	if v := os.Getenv("RUBRICON_AI_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.AI.Timeout = secs
		}
	}
	if v := os.Getenv("RUBRICON_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RUBRICON_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("RUBRICON_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RUBRICON_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Azure credentials keep their conventional variable names so existing
	// deployments work unchanged.
	if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" && cfg.AI.APIKey == "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("AZURE_OPENAI_ENDPOINT"); v != "" && cfg.AI.Endpoint == "" {
		cfg.AI.Endpoint = v
	}
}

// AITimeout returns the configured enhancement timeout as a duration.
func (c *Config) AITimeout() time.Duration {
	if c.AI.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.AI.Timeout) * time.Second
}
