package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type AuthorConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type Config struct {
	Remote string       `yaml:"remote"`
	Store  string       `yaml:"store,omitempty"`
	Author AuthorConfig `yaml:"author,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Store: DefaultStoreName,
		Author: AuthorConfig{
			Name:  DefaultAuthor,
			Email: DefaultEmail,
		},
	}
}

func LoadConfig(scope Scope) (*Config, error) {
	path := scope.ConfigPath()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Store == "" {
		cfg.Store = DefaultStoreName
	}
	if cfg.Author.Name == "" {
		cfg.Author.Name = DefaultAuthor
	}
	if cfg.Author.Email == "" {
		cfg.Author.Email = DefaultEmail
	}

	return &cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(scope.Root, 0755); err != nil {
		return fmt.Errorf("create store root: %w", err)
	}
	if err := os.WriteFile(scope.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
