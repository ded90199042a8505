package session

import (
	"flag"
	"time"

	"github.com/pkg/errors"
)

// Config for the webhook session
type Config struct {
	PublicHost      string
	PublicPort      int
	ListenPort      int
	TLS             bool
	TLSCertFile     string
	TLSKeyFile      string
	ShutdownTimeout time.Duration
}

// RegisterFlags adds the flags required to configure this to the given FlagSet.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.PublicHost, "webhook.public-host", "", "Host name the Bot API reaches the webhook on")
	f.IntVar(&cfg.PublicPort, "webhook.public-port", 443, "Port the Bot API reaches the webhook on: 443, 80, 88 or 8443")
	f.IntVar(&cfg.ListenPort, "webhook.listen-port", 8000, "Port to listen on")
	f.BoolVar(&cfg.TLS, "webhook.tls", false, "Serve the webhook over TLS")
	f.StringVar(&cfg.TLSCertFile, "webhook.tls-cert-file", "", "TLS certificate file; also uploaded to the Bot API so self-signed certificates work")
	f.StringVar(&cfg.TLSKeyFile, "webhook.tls-key-file", "", "TLS private key file")
	f.DurationVar(&cfg.ShutdownTimeout, "webhook.shutdown-timeout", 5*time.Second, "How long to wait for in-flight requests and webhook removal on shutdown")
}

// Validate checks the configuration is usable.
func (cfg *Config) Validate() error {
	if cfg.PublicHost == "" {
		return errors.New("-webhook.public-host is required")
	}
	if cfg.PublicPort <= 0 || cfg.PublicPort > 65535 {
		return errors.Errorf("invalid -webhook.public-port %d", cfg.PublicPort)
	}
	if cfg.TLS && (cfg.TLSCertFile == "" || cfg.TLSKeyFile == "") {
		return errors.New("-webhook.tls requires -webhook.tls-cert-file and -webhook.tls-key-file")
	}
	return nil
}
