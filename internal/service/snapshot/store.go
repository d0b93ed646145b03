// Package snapshot persists canonical runtime snapshot captures, one JSON
// file per capture.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/log"
)

// Capture is one persisted snapshot: the canonical runtime record plus the
// context it was taken in.
type Capture struct {
	Service  string                `json:"service"`
	Label    string                `json:"label"`
	BaseURL  string                `json:"baseUrl"`
	Source   model.SourceKind      `json:"source"`
	Health   string                `json:"health"`
	TakenAt  time.Time             `json:"takenAt"`
	Snapshot model.RuntimeSnapshot `json:"snapshot"`
}

// Config is the snapshot store configuration.
type Config struct {
	Dir    string
	Logger log.Logger
	// Now is the clock used to stamp capture file names, settable in
	// tests.
	Now func() time.Time
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = log.Dummy
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Store writes and reads snapshot capture files.
type Store struct {
	cfg Config
}

// NewStore returns a snapshot store.
func NewStore(cfg Config) *Store {
	cfg.defaults()
	return &Store{cfg: cfg}
}

// Save persists a capture under `<service>-<label>-<unix-ts>.json` and
// returns the written path.
func (s *Store) Save(c Capture) (string, error) {
	if c.TakenAt.IsZero() {
		c.TakenAt = s.cfg.Now().UTC()
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "could not create snapshot directory")
	}

	name := fmt.Sprintf("%s-%s-%d.json", c.Service, c.Label, c.TakenAt.Unix())
	path := filepath.Join(s.cfg.Dir, name)

	bs, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "could not marshal snapshot capture")
	}
	if err := os.WriteFile(path, bs, 0o644); err != nil {
		return "", errors.Wrapf(err, "could not write snapshot %s", path)
	}

	s.cfg.Logger.Debugf("snapshot saved to %s", path)
	return path, nil
}

// Load reads one capture back from a path previously returned by Save.
func (s *Store) Load(path string) (*Capture, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read snapshot %s", path)
	}

	c := &Capture{}
	if err := json.Unmarshal(bs, c); err != nil {
		return nil, errors.Wrapf(err, "could not parse snapshot %s", path)
	}
	return c, nil
}
