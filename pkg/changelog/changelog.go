package changelog

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Changelog is an ordered list of change sets.
	Changelog struct {
		ChangeSets []*ChangeSet `yaml:"changeSets"`
	}

	// ChangeSet is the unit hush applies and rolls back.
	ChangeSet struct {
		ID       string    `yaml:"id"`
		Author   string    `yaml:"author"`
		Comment  string    `yaml:"comment,omitempty"`
		Changes  []*Change `yaml:"changes"`
		Rollback []*Change `yaml:"rollback,omitempty"`
	}
)

// Load parses and validates a changelog.
func Load(r io.Reader) (*Changelog, error) {
	var cl Changelog
	if err := yaml.NewDecoder(r).Decode(&cl); err != nil {
		if errors.Is(err, io.EOF) {
			return &cl, nil
		}
		return nil, errors.Wrap(err, "failed to unmarshal changelog")
	}

	if err := cl.Validate(); err != nil {
		return nil, err
	}

	return &cl, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) (*Changelog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	cl, err := Load(f)
	return cl, errors.Wrapf(err, "invalid changelog %s", path)
}

// Validate checks every change set. The first problem found is returned.
func (cl *Changelog) Validate() error {
	seen := make(map[string]bool, len(cl.ChangeSets))

	for i, cs := range cl.ChangeSets {
		if cs == nil {
			return errors.Errorf("changeSets[%d] is empty", i)
		}

		if err := cs.Validate(); err != nil {
			return errors.Wrapf(err, "changeSets[%d]", i)
		}

		key := cs.Key()
		if seen[key] {
			return errors.Errorf("changeSets[%d]: duplicate change set %s", i, key)
		}
		seen[key] = true
	}

	return nil
}

// Key identifies a change set as id::author.
func (cs *ChangeSet) Key() string {
	return cs.ID + "::" + cs.Author
}

// Validate checks the change set's metadata and every change in it.
func (cs *ChangeSet) Validate() error {
	if cs.ID == "" {
		return errors.New("id is required")
	}

	if cs.Author == "" {
		return errors.Errorf("change set %s: author is required", cs.ID)
	}

	if len(cs.Changes) == 0 {
		return errors.Errorf("change set %s: at least one change is required", cs.Key())
	}

	for i, c := range cs.Changes {
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "change set %s: changes[%d]", cs.Key(), i)
		}
	}

	for i, c := range cs.Rollback {
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "change set %s: rollback[%d]", cs.Key(), i)
		}
	}

	return nil
}
