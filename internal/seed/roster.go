package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed roster.yaml
var defaultRoster []byte

var ErrInvalidRoster = errors.New("invalid roster")

type ManagerSeed struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
}

// Roster is the fixed set of employees and managers written on first run.
type Roster struct {
	Employees []string      `yaml:"employees"`
	Managers  []ManagerSeed `yaml:"managers"`
}

// DefaultRoster returns the built-in roster.
func DefaultRoster() (*Roster, error) {
	return ParseRoster(defaultRoster)
}

// LoadRoster reads a roster file, or the built-in roster when path is empty.
func LoadRoster(path string) (*Roster, error) {
	if path == "" {
		return DefaultRoster()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return ParseRoster(data)
}

func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if err := r.normalize(); err != nil {
		return nil, err
	}
	return &r, nil
}

// normalize trims names, drops duplicates and sorts employees.
func (r *Roster) normalize() error {
	seen := make(map[string]bool, len(r.Employees))
	employees := make([]string, 0, len(r.Employees))
	for _, name := range r.Employees {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: empty employee name", ErrInvalidRoster)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		employees = append(employees, name)
	}
	sort.Strings(employees)
	r.Employees = employees

	seenManagers := make(map[string]bool, len(r.Managers))
	managers := make([]ManagerSeed, 0, len(r.Managers))
	for _, m := range r.Managers {
		m.Username = strings.TrimSpace(m.Username)
		m.Name = strings.TrimSpace(m.Name)
		if m.Username == "" || m.Name == "" {
			return fmt.Errorf("%w: manager needs username and name", ErrInvalidRoster)
		}
		if seenManagers[m.Username] {
			return fmt.Errorf("%w: duplicate manager %s", ErrInvalidRoster, m.Username)
		}
		seenManagers[m.Username] = true
		managers = append(managers, m)
	}
	r.Managers = managers

	return nil
}
