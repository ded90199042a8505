package botapi

import (
	"flag"
	"io/ioutil"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Config for the Bot API client
type Config struct {
	URL       string
	Token     string
	TokenFile string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// RegisterFlags sets up config for the Bot API client.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.URL, "telegram.url", "https://api.telegram.org", "Base URL of the Telegram Bot API")
	f.StringVar(&cfg.Token, "telegram.token", "", "Bot token")
	f.StringVar(&cfg.TokenFile, "telegram.token-file", "", "File containing the bot token; takes precedence over -telegram.token")
	f.DurationVar(&cfg.Timeout, "telegram.timeout", 10*time.Second, "HTTP client timeout")
	f.Float64Var(&cfg.RateLimit, "telegram.rate-limit", 30, "Maximum Bot API requests per second; 0 disables limiting")
	f.IntVar(&cfg.RateBurst, "telegram.rate-burst", 30, "Bot API requests allowed in a burst")
}

// Validate checks a token source is configured.
func (cfg *Config) Validate() error {
	if cfg.Token == "" && cfg.TokenFile == "" {
		return errors.New("one of -telegram.token or -telegram.token-file is required")
	}
	if cfg.URL == "" {
		return errors.New("-telegram.url cannot be empty")
	}
	return nil
}

func (cfg *Config) token() (string, error) {
	if cfg.TokenFile == "" {
		return cfg.Token, nil
	}
	b, err := ioutil.ReadFile(cfg.TokenFile)
	if err != nil {
		return "", errors.Wrap(err, "Could not read token file")
	}
	return strings.TrimSpace(string(b)), nil
}
