package config

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/consts"
	"github.com/pseudomuto/hush/pkg/sqlgen"
	"gopkg.in/yaml.v3"
)

type (
	// TLS holds the files used for mutual TLS with the database.
	TLS struct {
		CAFile   string `yaml:"cafile,omitempty"`
		CertFile string `yaml:"certfile,omitempty"`
		KeyFile  string `yaml:"keyfile,omitempty"`
	}

	// Database describes the database the changelog is applied to.
	Database struct {
		// Name is the key the database's executor is registered under.
		Name string `yaml:"name"`

		// Dialect is one of clickhouse, postgres, sqlite, mssql, sybase or asany.
		Dialect string `yaml:"dialect"`

		// URL is the connection string. ${VAR} references are expanded from
		// the environment.
		URL string `yaml:"url"`

		// TLS enables mutual TLS for ClickHouse connections.
		TLS TLS `yaml:"tls,omitempty"`
	}

	// Lock configures the changelog lock table.
	Lock struct {
		Table    string `yaml:"table"`
		LockedBy string `yaml:"locked_by"`
	}

	// Config is the hush project configuration.
	Config struct {
		Database Database `yaml:"database"`

		// Changelog is the path of the YAML changelog.
		Changelog string `yaml:"changelog"`

		Lock Lock `yaml:"lock"`

		// Output is where update-sql and rollback-sql write their script.
		// Empty or "-" means stdout.
		Output string `yaml:"output,omitempty"`
	}
)

// LoadConfig parses a configuration from r, fills in defaults and validates
// the dialect.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader(`
//	database:
//	  dialect: postgres
//	  url: ${DATABASE_URL}
//	changelog: db/changelog.yaml
//	`))
//	if err != nil {
//		return err
//	}
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	cfg.applyDefaults()
	cfg.Database.URL = os.ExpandEnv(cfg.Database.URL)

	if _, err := cfg.Dialect(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfigFile opens path and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Dialect resolves the configured dialect.
func (c *Config) Dialect() (*sqlgen.Dialect, error) {
	d, err := sqlgen.LookupDialect(c.Database.Dialect)
	return d, errors.Wrap(err, "invalid database.dialect")
}

// OutputsToStdout reports whether rendered scripts go to stdout.
func (c *Config) OutputsToStdout() bool {
	return c.Output == "" || c.Output == "-"
}

func (c *Config) applyDefaults() {
	if c.Database.Name == "" {
		c.Database.Name = consts.DefaultDatabaseName
	}

	c.Database.Dialect = strings.TrimSpace(c.Database.Dialect)
	if c.Database.Dialect == "" {
		c.Database.Dialect = consts.DefaultDialect
	}

	if c.Changelog == "" {
		c.Changelog = consts.DefaultChangelog
	}

	if c.Lock.Table == "" {
		c.Lock.Table = consts.DefaultLockTable
	}

	if c.Lock.LockedBy == "" {
		c.Lock.LockedBy = defaultLockedBy()
	}
}

func defaultLockedBy() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return consts.DefaultLockedBy
	}

	return consts.DefaultLockedBy + "@" + host
}
