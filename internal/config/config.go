package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Bot      BotConfig      `yaml:"bot"`
	Session  SessionConfig  `yaml:"session"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

// BotConfig carries the fixed operator identity and the branch copy that the
// conversation embeds into replies.
type BotConfig struct {
	AdminChatID   int64  `yaml:"admin_chat_id"`
	BranchPhone   string `yaml:"branch_phone"`
	BranchAddress string `yaml:"branch_address"`
	WebAppURL     string `yaml:"web_app_url"`
}

type SessionConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("invalid config: database.host is required")
	}
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("invalid config: rabbitmq.host is required")
	}
	if c.Bot.AdminChatID == 0 {
		return fmt.Errorf("invalid config: bot.admin_chat_id is required")
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.Session.MaxEntries == 0 {
		c.Session.MaxEntries = 10000
	}
	return nil
}
