package config

import (
	"fmt"
	"time"

	"EmbedPager/internal/pager"

	"github.com/BurntSushi/toml"
)

// Config holds pagerbot configuration. Values come from an optional TOML
// file; command-line flags override individual fields.
type Config struct {
	// GatewayURL is the websocket chat gateway to connect to. Empty runs the
	// demo against the in-memory platform.
	GatewayURL string `toml:"gateway_url"`

	// ChannelID is the channel the pager posts into.
	ChannelID string `toml:"channel_id"`

	// Initiator is the user whose reactions drive the session.
	Initiator string `toml:"initiator"`

	// LogDir is where logs, traces and metrics files rotate.
	LogDir string `toml:"log_dir"`

	// HistoryPath enables the sqlite session audit trail when non-empty.
	HistoryPath string `toml:"history_path"`

	// Debug enables debug logging.
	Debug bool `toml:"debug"`

	// Session settings.
	TimeMS         int    `toml:"time_ms"`
	TimePerPageMS  int    `toml:"time_per_page_ms"`
	ResetOnPage    bool   `toml:"reset_on_page"`
	ShowPageNumber bool   `toml:"show_page_number"`
	PageFormat     string `toml:"page_format"`
}

// Default returns the configuration the bot starts from.
func Default() Config {
	return Config{
		ChannelID:      "demo",
		Initiator:      "demo-user",
		LogDir:         "logs",
		TimeMS:         120_000,
		ShowPageNumber: true,
		PageFormat:     "Page %p of %m",
	}
}

// Load overlays the TOML file at path onto the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// SessionOptions converts the configured session settings into pager options.
func (c Config) SessionOptions() pager.Options {
	opts := pager.DefaultOptions()
	opts.ShowPageNumber = c.ShowPageNumber
	if c.PageFormat != "" {
		opts.PageFormat = c.PageFormat
	}
	if c.TimeMS > 0 {
		opts.Time = time.Duration(c.TimeMS) * time.Millisecond
	}
	opts.TimePerPage = time.Duration(c.TimePerPageMS) * time.Millisecond
	opts.ResetOnPage = c.ResetOnPage
	opts.Initiator = c.Initiator
	return opts
}
