package config

import "testing"

func validConfig() *Config {
	c := &Config{Environment: "test"}
	c.Engine.Symbols = []string{"AAPL"}
	c.Engine.TargetUsers = []string{"default"}
	c.Alpaca.APIKey = "key"
	c.Alpaca.APISecret = "secret"
	c.Postgres.Host = "localhost"
	return c
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateMissingNewsKeyDisablesSentiment(t *testing.T) {
	c := validConfig()
	c.Sentiment.Enabled = true

	if err := c.Validate(); err != nil {
		t.Fatalf("missing news key must not fail startup: %v", err)
	}
	if c.Sentiment.Enabled {
		t.Fatal("sentiment should be disabled when the news key is absent")
	}
}

func TestValidateKeepsSentimentEnabledWithKey(t *testing.T) {
	c := validConfig()
	c.Sentiment.Enabled = true
	c.NewsAPI.APIKey = "news-key"

	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Sentiment.Enabled {
		t.Fatal("sentiment should stay enabled when the news key is present")
	}
}

func TestValidateRequiredSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing alpaca creds", func(c *Config) { c.Alpaca.APIKey = "" }},
		{"missing postgres host", func(c *Config) { c.Postgres.Host = "" }},
		{"no symbols", func(c *Config) { c.Engine.Symbols = nil }},
		{"no target users", func(c *Config) { c.Engine.TargetUsers = nil }},
		{"kafka enabled without brokers", func(c *Config) { c.Kafka.Enabled = true }},
	}
	for _, tc := range cases {
		c := validConfig()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
