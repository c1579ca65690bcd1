// Package apps holds the registry of applications termlibs can install.
//
// A Registry is built once at startup, from the embedded default or from a
// TOML file, and handed to the components that need it. It is never
// modified afterward and is safe for concurrent use.
package apps

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed apps.toml
var defaultApps []byte

// ErrUnknownApp is returned when a name is not in the registry.
var ErrUnknownApp = errors.New("unknown app")

// Source identifies where an application's releases are published.
type Source string

const (
	SourceGitHub Source = "github"
	SourceURL    Source = "url"
	SourcePython Source = "python"
)

// App is a single registry entry.
type App struct {
	Name   string `toml:"name" json:"name"`
	Source Source `toml:"source" json:"source"`

	// Repo is "owner/name" for github sources, a URL for url sources and
	// the package name for python sources.
	Repo string `toml:"repo" json:"repo"`
}

// GitHubRepo splits Repo into owner and repository name.
func (a App) GitHubRepo() (owner, name string, err error) {
	if a.Source != SourceGitHub {
		return "", "", fmt.Errorf("app %s is published on %s, not github", a.Name, a.Source)
	}
	owner, name, ok := strings.Cut(a.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repo format '%s': expected 'owner/repo'", a.Repo)
	}
	return owner, name, nil
}

// Registry is an immutable set of apps keyed by name.
type Registry struct {
	apps map[string]App
}

type file struct {
	Apps []App `toml:"app"`
}

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Default returns the registry built into the binary.
func Default() *Registry {
	r, err := Parse(defaultApps)
	if err != nil {
		panic(fmt.Sprintf("embedded app registry is invalid: %v", err))
	}
	return r
}

// Load returns the registry described by the TOML file at path, or the
// built-in one when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read app registry: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a TOML registry.
func Parse(data []byte) (*Registry, error) {
	var f file
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse app registry: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in app registry", undecoded[0].String())
	}

	r := &Registry{apps: make(map[string]App, len(f.Apps))}
	for i, a := range f.Apps {
		if !validName.MatchString(a.Name) {
			return nil, fmt.Errorf("app #%d: invalid name %q", i+1, a.Name)
		}
		if _, dup := r.apps[a.Name]; dup {
			return nil, fmt.Errorf("app %s: defined more than once", a.Name)
		}
		switch a.Source {
		case SourceGitHub:
			if _, _, err := a.GitHubRepo(); err != nil {
				return nil, fmt.Errorf("app %s: %w", a.Name, err)
			}
		case SourceURL, SourcePython:
			if a.Repo == "" {
				return nil, fmt.Errorf("app %s: repo must not be empty", a.Name)
			}
		default:
			return nil, fmt.Errorf("app %s: unknown source %q", a.Name, a.Source)
		}
		r.apps[a.Name] = a
	}
	return r, nil
}

// Get looks up an app by name.
func (r *Registry) Get(name string) (App, bool) {
	a, ok := r.apps[name]
	return a, ok
}

// Lookup is Get returning ErrUnknownApp for a missing name.
func (r *Registry) Lookup(name string) (App, error) {
	a, ok := r.apps[name]
	if !ok {
		return App{}, fmt.Errorf("%w: %s", ErrUnknownApp, name)
	}
	return a, nil
}

// Names returns the registered app names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.apps))
	for n := range r.apps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered apps.
func (r *Registry) Len() int {
	return len(r.apps)
}
