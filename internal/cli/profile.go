package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Profile is what the CLI remembers between runs, stored as YAML.
type Profile struct {
	Server         string    `yaml:"server"`
	Email          string    `yaml:"email,omitempty"`
	Token          string    `yaml:"token,omitempty"`
	DefaultProject uuid.UUID `yaml:"default_project,omitempty"`
	DefaultClient  uuid.UUID `yaml:"default_client,omitempty"`
}

const defaultServer = "http://localhost:8080"

// DefaultProfilePath is ~/.trackear/profile.yaml unless TRACKEAR_PROFILE
// points elsewhere.
func DefaultProfilePath() string {
	if p := os.Getenv("TRACKEAR_PROFILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "trackear-profile.yaml"
	}
	return filepath.Join(home, ".trackear", "profile.yaml")
}

// LoadProfile reads the profile at path. A missing file is an empty profile.
func LoadProfile(path string) (Profile, error) {
	p := Profile{Server: defaultServer}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if p.Server == "" {
		p.Server = defaultServer
	}
	return p, nil
}

// Save writes the profile readable by the current user only.
func (p Profile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
