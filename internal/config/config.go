package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	// Admin chat receives notifications; the same identity (with any
	// leading "-" stripped) is the only one allowed to run admin commands.
	Admin struct {
		ChatID string `yaml:"chat_id"`
	} `yaml:"admin"`

	Storage struct {
		DataFile string `yaml:"data_file"`
		LogFile  string `yaml:"log_file"`
	} `yaml:"storage"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	RateLimit struct {
		PerUserPerMinute int `yaml:"per_user_per_minute"`
		Burst            int `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Storage.DataFile == "" {
		cfg.Storage.DataFile = "data/booking_data.json"
	}
	if cfg.Storage.LogFile == "" {
		cfg.Storage.LogFile = "data/booking_logs.json"
	}
	if cfg.RateLimit.PerUserPerMinute <= 0 {
		cfg.RateLimit.PerUserPerMinute = 20
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}

	for _, p := range []string{cfg.Storage.DataFile, cfg.Storage.LogFile} {
		if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	return &cfg, nil
}
