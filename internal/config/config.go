package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	// Browser session
	ChromeBin      string        `env:"CHROME_BIN"`
	DebuggerURL    string        `env:"DEBUGGER_URL"`
	ChromeHeadless bool          `env:"CHROME_HEADLESS" envDefault:"true"`
	UserDataDir    string        `env:"USER_DATA_DIR" envDefault:".wwebjs/profile"`
	NavTimeout     time.Duration `env:"NAV_TIMEOUT" envDefault:"90s"`

	// Crawl pacing
	ReadyTimeout time.Duration `env:"READY_TIMEOUT" envDefault:"60s"`
	ReadyPoll    time.Duration `env:"READY_POLL" envDefault:"2s"`
	MaxMessages  int           `env:"MAX_MESSAGES" envDefault:"5000"`
	PageDelay    time.Duration `env:"PAGE_DELAY" envDefault:"1s"`

	// Transient fault retries
	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay    time.Duration `env:"RETRY_DELAY" envDefault:"2s"`
	RetryMaxDelay time.Duration `env:"RETRY_MAX_DELAY" envDefault:"30s"`

	// Export
	ExportDir   string   `env:"EXPORT_DIR" envDefault:"exports"`
	ExportSince string   `env:"EXPORT_SINCE"`
	Groups      []string `env:"GROUPS" envSeparator:","`

	HealthPort int `env:"HEALTH_PORT" envDefault:"0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SelectedGroups returns the configured group names with surrounding
// whitespace removed and empty entries dropped.
func (c *Config) SelectedGroups() []string {
	out := make([]string, 0, len(c.Groups))

	for _, g := range c.Groups {
		if trimmed := strings.TrimSpace(g); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// Since parses the EXPORT_SINCE cutoff with permissive date parsing. An empty
// value means no lower bound.
func (c *Config) Since() (time.Time, error) {
	if c.ExportSince == "" {
		return time.Time{}, nil
	}

	ts, err := dateparse.ParseAny(c.ExportSince)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse EXPORT_SINCE: %w", err)
	}

	return ts, nil
}
