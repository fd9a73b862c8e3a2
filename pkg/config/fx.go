package config

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/consts"
	"go.uber.org/fx"
)

// Module provides a *Loader for hush.yaml.
var Module = fx.Module("config", fx.Provide(
	func() *Loader {
		return NewLoader(consts.DefaultConfigFile)
	},
))

// ErrNotFound is returned by Loader.Load when the config file doesn't exist.
var ErrNotFound = errors.New("config file not found")

// Loader reads the config file on first use. Loading is deferred so that the
// CLI can change into the project directory (and pick a different file)
// before anything is read.
type Loader struct {
	mu   sync.Mutex
	path string
	cfg  *Config
}

// NewLoader creates a Loader for path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// SetPath changes the file to load. It has no effect once Load succeeded.
func (l *Loader) SetPath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.path = path
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.path
}

// Load returns the parsed config, reading the file the first time.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cfg != nil {
		return l.cfg, nil
	}

	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, l.path)
	}

	cfg, err := LoadConfigFile(l.path)
	if err != nil {
		return nil, err
	}

	l.cfg = cfg
	return cfg, nil
}
