package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Feed struct {
		URL           string        `yaml:"url" json:"url" jsonschema:"required,description=Feed URL to poll"`
		PollInterval  time.Duration `yaml:"poll_interval" json:"poll_interval" jsonschema:"default=2m,description=Interval between feed polls"`
		Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Feed fetch timeout"`
		MaxBacklog    int           `yaml:"max_backlog" json:"max_backlog" jsonschema:"default=20,description=Maximum undelivered items processed per tick"`
		CatchupWindow int           `yaml:"catchup_window" json:"catchup_window" jsonschema:"default=5,description=Number of newest items checked for delivery gaps"`
		Pacing        time.Duration `yaml:"pacing" json:"pacing" jsonschema:"default=30s,description=Delay between consecutive item deliveries"`
	} `yaml:"feed" json:"feed" jsonschema:"description=Feed polling configuration"`

	Ledger struct {
		Path     string `yaml:"path" json:"path" jsonschema:"default=ledger.json,description=Delivery ledger file path"`
		RingSize int    `yaml:"ring_size" json:"ring_size" jsonschema:"default=250,description=Sent-item history kept per destination"`
		Gist     struct {
			Token    string `yaml:"token" json:"token" jsonschema:"description=GitHub token for the gist mirror (can use environment variable)"`
			ID       string `yaml:"id" json:"id" jsonschema:"description=Gist ID holding the ledger mirror"`
			FileName string `yaml:"file_name" json:"file_name" jsonschema:"default=ledger.json,description=File name inside the gist"`
		} `yaml:"gist" json:"gist" jsonschema:"description=Optional remote ledger mirror"`
	} `yaml:"ledger" json:"ledger" jsonschema:"description=Ledger configuration"`

	History struct {
		DSN string `yaml:"dsn" json:"dsn" jsonschema:"default=file:history.db?cache=shared&mode=rwc,description=Delivery audit database connection string"`
	} `yaml:"history" json:"history" jsonschema:"description=Delivery audit log configuration"`

	Health struct {
		FailureThreshold int           `yaml:"failure_threshold" json:"failure_threshold" jsonschema:"default=5,description=Consecutive failures before alerting"`
		CooldownCap      time.Duration `yaml:"cooldown_cap" json:"cooldown_cap" jsonschema:"default=30m,description=Maximum destination cooldown"`
	} `yaml:"health" json:"health" jsonschema:"description=Destination health tracking"`

	Publish struct {
		Retries    int           `yaml:"retries" json:"retries" jsonschema:"default=3,description=Delivery attempts per destination"`
		RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=5s,description=Initial backoff delay between attempts"`
		Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=20s,description=HTTP timeout per delivery attempt"`
	} `yaml:"publish" json:"publish" jsonschema:"description=Shared delivery retry settings"`

	Targets struct {
		Path string `yaml:"path" json:"path" jsonschema:"default=targets.json,description=Enabled destinations file, re-read every tick"`
	} `yaml:"targets" json:"targets" jsonschema:"description=Destination routing configuration"`

	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=localhost:8080,description=Ops HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Ops HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Ops server configuration"`

	Destinations struct {
		Telegram TelegramConfig `yaml:"telegram" json:"telegram" jsonschema:"description=Telegram destination"`
		Discord  DiscordConfig  `yaml:"discord" json:"discord" jsonschema:"description=Discord destination"`
		Mastodon MastodonConfig `yaml:"mastodon" json:"mastodon" jsonschema:"description=Mastodon destination"`
		Bluesky  BlueskyConfig  `yaml:"bluesky" json:"bluesky" jsonschema:"description=Bluesky destination"`
		Twitter  TwitterConfig  `yaml:"twitter" json:"twitter" jsonschema:"description=Twitter destination"`
	} `yaml:"destinations" json:"destinations" jsonschema:"description=Destination credentials, a destination with empty credentials is not constructed"`
}

// TelegramConfig holds telegram destination credentials
type TelegramConfig struct {
	Token      string `yaml:"token" json:"token" jsonschema:"description=Bot token (can use environment variable)"`
	ChatID     string `yaml:"chat_id" json:"chat_id" jsonschema:"description=Channel or chat ID"`
	SummaryMax int    `yaml:"summary_max" json:"summary_max" jsonschema:"default=4000,description=Maximum message length"`
}

// DiscordConfig holds discord destination credentials
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url" json:"webhook_url" jsonschema:"description=Webhook URL (can use environment variable)"`
	SummaryMax int    `yaml:"summary_max" json:"summary_max" jsonschema:"default=1900,description=Maximum message length"`
}

// MastodonConfig holds mastodon destination credentials
type MastodonConfig struct {
	InstanceURL string `yaml:"instance_url" json:"instance_url" jsonschema:"description=Mastodon instance base URL"`
	AccessToken string `yaml:"access_token" json:"access_token" jsonschema:"description=Access token (can use environment variable)"`
	PostMax     int    `yaml:"post_max" json:"post_max" jsonschema:"default=500,description=Maximum post length"`
}

// TwitterConfig holds twitter destination credentials
type TwitterConfig struct {
	ConsumerKey    string `yaml:"consumer_key" json:"consumer_key" jsonschema:"description=OAuth 1.0a consumer key"`
	ConsumerSecret string `yaml:"consumer_secret" json:"consumer_secret" jsonschema:"description=OAuth 1.0a consumer secret (can use environment variable)"`
	AccessToken    string `yaml:"access_token" json:"access_token" jsonschema:"description=OAuth 1.0a access token"`
	AccessSecret   string `yaml:"access_secret" json:"access_secret" jsonschema:"description=OAuth 1.0a access token secret (can use environment variable)"`
	TweetMax       int    `yaml:"tweet_max" json:"tweet_max" jsonschema:"default=280,description=Maximum tweet length"`
}

// BlueskyConfig holds bluesky destination credentials
type BlueskyConfig struct {
	Handle      string `yaml:"handle" json:"handle" jsonschema:"description=Account handle"`
	AppPassword string `yaml:"app_password" json:"app_password" jsonschema:"description=App password (can use environment variable)"`
	PostMax     int    `yaml:"post_max" json:"post_max" jsonschema:"default=300,description=Maximum post length"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Feed.URL == "" {
		return nil, fmt.Errorf("feed.url is required")
	}

	// set defaults for feed polling
	if cfg.Feed.PollInterval == 0 {
		cfg.Feed.PollInterval = 2 * time.Minute
	}
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 30 * time.Second
	}
	if cfg.Feed.MaxBacklog == 0 {
		cfg.Feed.MaxBacklog = 20
	}
	if cfg.Feed.CatchupWindow == 0 {
		cfg.Feed.CatchupWindow = 5
	}
	if cfg.Feed.Pacing == 0 {
		cfg.Feed.Pacing = 30 * time.Second
	}

	// set defaults for ledger
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "ledger.json"
	}
	if cfg.Ledger.RingSize == 0 {
		cfg.Ledger.RingSize = 250
	}
	if cfg.Ledger.Gist.FileName == "" {
		cfg.Ledger.Gist.FileName = "ledger.json"
	}

	// set defaults for history
	if cfg.History.DSN == "" {
		cfg.History.DSN = "file:history.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	// set defaults for health tracking
	if cfg.Health.FailureThreshold == 0 {
		cfg.Health.FailureThreshold = 5
	}
	if cfg.Health.CooldownCap == 0 {
		cfg.Health.CooldownCap = 30 * time.Minute
	}

	// set defaults for delivery retries
	if cfg.Publish.Retries == 0 {
		cfg.Publish.Retries = 3
	}
	if cfg.Publish.RetryDelay == 0 {
		cfg.Publish.RetryDelay = 5 * time.Second
	}
	if cfg.Publish.Timeout == 0 {
		cfg.Publish.Timeout = 20 * time.Second
	}

	if cfg.Targets.Path == "" {
		cfg.Targets.Path = "targets.json"
	}

	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "localhost:8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// set defaults for destinations
	if cfg.Destinations.Telegram.SummaryMax == 0 {
		cfg.Destinations.Telegram.SummaryMax = 4000
	}
	if cfg.Destinations.Discord.SummaryMax == 0 {
		cfg.Destinations.Discord.SummaryMax = 1900
	}
	if cfg.Destinations.Mastodon.PostMax == 0 {
		cfg.Destinations.Mastodon.PostMax = 500
	}
	if cfg.Destinations.Bluesky.PostMax == 0 {
		cfg.Destinations.Bluesky.PostMax = 300
	}
	if cfg.Destinations.Twitter.TweetMax == 0 {
		cfg.Destinations.Twitter.TweetMax = 280
	}

	return &cfg, nil
}
