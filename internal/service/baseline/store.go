// Package baseline persists named aggregate-stats records and compares runs
// against them.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/analyze"
	"github.com/rkampani/perfcheck/internal/service/log"
)

// UnknownError is returned when a baseline name does not exist. It carries
// the known names so the caller can recover by picking another one.
type UnknownError struct {
	Name  string
	Known []string
}

func (e UnknownError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown baseline %q (no baselines saved yet)", e.Name)
	}
	return fmt.Sprintf("unknown baseline %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Store keeps one JSON file per baseline in a directory. Identity is the
// baseline name; saving under an existing name overwrites, last write wins.
type Store struct {
	dir    string
	logger log.Logger
}

// NewStore returns a baseline store rooted at dir.
func NewStore(dir string, logger log.Logger) *Store {
	if logger == nil {
		logger = log.Dummy
	}
	return &Store{dir: dir, logger: logger}
}

// Save derives aggregate stats from a raw result document and persists them
// under the given name together with the document itself.
func (s *Store) Save(name string, metadata map[string]string, resultsData []byte) (*model.Baseline, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	stats, err := analyze.Extract(resultsData)
	if err != nil {
		return nil, errors.Wrapf(err, "could not derive stats for baseline %q", name)
	}

	b := &model.Baseline{
		Name:           name,
		SavedAt:        time.Now().UTC(),
		Metadata:       metadata,
		AggregateStats: stats,
		ResultsData:    json.RawMessage(resultsData),
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "could not create baseline directory")
	}

	bs, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(err, "could not marshal baseline %q", name)
	}
	if err := os.WriteFile(s.path(name), bs, 0o644); err != nil {
		return nil, errors.Wrapf(err, "could not write baseline %q", name)
	}

	s.logger.Infof("baseline %q saved", name)
	return b, nil
}

// Load reads a baseline by name. When the stored record predates the
// aggregateStats field, the stats are derived from the raw result document.
func (s *Store) Load(name string) (*model.Baseline, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	bs, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		known, listErr := s.List()
		if listErr != nil {
			known = nil
		}
		return nil, UnknownError{Name: name, Known: known}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read baseline %q", name)
	}

	b := &model.Baseline{}
	if err := json.Unmarshal(bs, b); err != nil {
		return nil, errors.Wrapf(err, "could not parse baseline %q", name)
	}

	if b.AggregateStats == nil && len(b.ResultsData) > 0 {
		stats, err := analyze.Extract(b.ResultsData)
		if err != nil {
			return nil, errors.Wrapf(err, "could not derive stats for legacy baseline %q", name)
		}
		b.AggregateStats = stats
	}

	return b, nil
}

// List returns the sorted names of every stored baseline.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not list baselines")
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)

	return names, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func validName(name string) error {
	if name == "" {
		return errors.New("baseline name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.Errorf("invalid baseline name %q", name)
	}
	return nil
}
