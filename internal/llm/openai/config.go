package openai

import "time"

// Config for the OpenAI-compatible chat/completions transport.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float32
	Timeout      time.Duration // aborts one in-flight call, retry included separately
	RetryBackoff time.Duration // fixed pause before the single automatic retry
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.Timeout == 0 {
		c.Timeout = 45 * time.Second
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 2 * time.Second
	}
	return c
}
