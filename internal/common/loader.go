package common

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile overlays a YAML file onto the env-derived config. Zero-value
// fields in the file keep their env/default values, so a partial file is
// fine. Duration settings stay env-only.
func LoadConfigFile(path string) (*Config, error) {
	cfg := LoadConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	overlay(cfg, &file)
	return cfg, nil
}

func overlay(dst, src *Config) {
	if src.Database.Driver != "" {
		dst.Database.Driver = src.Database.Driver
	}
	if src.Database.DSN != "" {
		dst.Database.DSN = src.Database.DSN
	}
	if src.Database.MaxConns != 0 {
		dst.Database.MaxConns = src.Database.MaxConns
	}
	if src.Database.MinConns != 0 {
		dst.Database.MinConns = src.Database.MinConns
	}
	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	if src.LLM.BaseURL != "" {
		dst.LLM.BaseURL = src.LLM.BaseURL
	}
	if src.LLM.Model != "" {
		dst.LLM.Model = src.LLM.Model
	}
	if src.LLM.APIKey != "" {
		dst.LLM.APIKey = src.LLM.APIKey
	}
	if src.LLM.Temperature != 0 {
		dst.LLM.Temperature = src.LLM.Temperature
	}
}
