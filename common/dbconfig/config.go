package dbconfig

import (
	"flag"
	"io/ioutil"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Config locates a database and its migrations.
type Config struct {
	URI           string
	MigrationsDir string
	PasswordFile  string
}

// RegisterFlags registers the database.* flags with f.
func (cfg *Config) RegisterFlags(f *flag.FlagSet, defaultURI, uriHelp, defaultMigrationsDir, migrationsDirHelp string) {
	f.StringVar(&cfg.URI, "database.uri", defaultURI, uriHelp)
	f.StringVar(&cfg.MigrationsDir, "database.migrations", defaultMigrationsDir, migrationsDirHelp)
	f.StringVar(&cfg.PasswordFile, "database.password-file", "", "File containing password (username goes in URI)")
}

// Source is a parsed Config.
type Source struct {
	Scheme         string
	DataSourceName string
	MigrationsDir  string
}

// Source parses the URI and splices in the password read from PasswordFile, if any.
func (cfg Config) Source() (Source, error) {
	uri, err := url.Parse(cfg.URI)
	if err != nil {
		return Source{}, errors.Wrap(err, "Could not parse database URI")
	}
	if uri.Scheme == "" {
		return Source{}, errors.Errorf("database URI %q has no scheme", cfg.URI)
	}

	if cfg.PasswordFile != "" {
		if uri.User == nil {
			return Source{}, errors.New("-database.password-file requires a username in -database.uri")
		}
		password, err := ioutil.ReadFile(cfg.PasswordFile)
		if err != nil {
			return Source{}, errors.Wrap(err, "Could not read database password file")
		}
		uri.User = url.UserPassword(uri.User.Username(), strings.TrimSpace(string(password)))
	}

	return Source{
		Scheme:         uri.Scheme,
		DataSourceName: uri.String(),
		MigrationsDir:  cfg.MigrationsDir,
	}, nil
}
