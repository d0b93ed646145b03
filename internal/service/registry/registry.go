// Package registry is the boundary to the static service catalog: service
// name + environment to base URL, plus the per-service safety caps applied
// to test parameters.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Default safety caps applied when the catalog does not set its own.
const (
	DefMaxConcurrentUsers = 500
	DefMaxDurationSeconds = 600
)

// Service is one catalog entry.
type Service struct {
	Name               string            `yaml:"-"`
	Environments       map[string]string `yaml:"environments"`
	MaxConcurrentUsers int               `yaml:"max_concurrent_users"`
	MaxDurationSeconds int               `yaml:"max_duration_seconds"`
	TestDataFile       string            `yaml:"test_data_file"`
	TokenFile          string            `yaml:"token_file"`
}

type catalogFile struct {
	Services map[string]Service `yaml:"services"`
}

// UnknownServiceError is returned on a catalog miss, carrying the known
// service names.
type UnknownServiceError struct {
	Name  string
	Known []string
}

func (e UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Registry is a loaded service catalog.
type Registry struct {
	services map[string]Service
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Registry, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read service catalog %s", path)
	}
	return Parse(bs)
}

// Parse builds a registry from raw catalog YAML.
func Parse(bs []byte) (*Registry, error) {
	f := catalogFile{}
	if err := yaml.Unmarshal(bs, &f); err != nil {
		return nil, errors.Wrap(err, "could not parse service catalog")
	}

	services := map[string]Service{}
	for name, svc := range f.Services {
		svc.Name = name
		if svc.MaxConcurrentUsers == 0 {
			svc.MaxConcurrentUsers = DefMaxConcurrentUsers
		}
		if svc.MaxDurationSeconds == 0 {
			svc.MaxDurationSeconds = DefMaxDurationSeconds
		}
		services[name] = svc
	}

	return &Registry{services: services}, nil
}

// Service looks a catalog entry up by name.
func (r *Registry) Service(name string) (Service, error) {
	svc, ok := r.services[name]
	if !ok {
		known := make([]string, 0, len(r.services))
		for n := range r.services {
			known = append(known, n)
		}
		sort.Strings(known)
		return Service{}, UnknownServiceError{Name: name, Known: known}
	}
	return svc, nil
}

// BaseURL resolves the base URL of a service in an environment.
func (r *Registry) BaseURL(name, env string) (string, error) {
	svc, err := r.Service(name)
	if err != nil {
		return "", err
	}
	url, ok := svc.Environments[env]
	if !ok {
		return "", errors.Errorf("service %q has no %q environment", name, env)
	}
	return url, nil
}

// Clamp applies a safety cap to a requested value. A non-positive request
// means "use the cap". The second return reports whether the request was
// actually reduced, so callers can surface the adjustment instead of
// silently mutating parameters.
func Clamp(requested, limit int) (int, bool) {
	if requested <= 0 {
		return limit, false
	}
	if requested > limit {
		return limit, true
	}
	return requested, false
}
