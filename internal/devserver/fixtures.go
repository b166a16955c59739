package devserver

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed sample.yml
var sampleFixtures []byte

// Fixtures is the in-memory dataset the dev-server answers from.
type Fixtures struct {
	Groups   []GroupRecord   `yaml:"groups"`
	Students []StudentRecord `yaml:"students"`
	Books    []BookRecord    `yaml:"books"`
}

// GroupRecord is a group with the eligibility keys books are matched on.
type GroupRecord struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
	Course   int    `yaml:"course"`
}

// StudentRecord is one student.
type StudentRecord struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	GroupID int    `yaml:"group_id"`
}

// BookRecord is one title with its physical copy codes.
type BookRecord struct {
	ID       int      `yaml:"id"`
	Name     string   `yaml:"name"`
	Author   string   `yaml:"author"`
	Year     int      `yaml:"year"`
	Language string   `yaml:"language"`
	Course   int      `yaml:"course"`
	Copies   []string `yaml:"copies"`
}

// SampleFixtures returns the built-in demo dataset.
func SampleFixtures() (*Fixtures, error) {
	return ParseFixtures(sampleFixtures)
}

// LoadFixtures reads a fixture file, or the built-in sample when path is empty.
func LoadFixtures(path string) (*Fixtures, error) {
	if path == "" {
		return SampleFixtures()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures and checks references between records.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	groups := make(map[int]bool, len(f.Groups))
	for _, g := range f.Groups {
		groups[g.ID] = true
	}
	for _, s := range f.Students {
		if !groups[s.GroupID] {
			return nil, fmt.Errorf("student %d references unknown group %d", s.ID, s.GroupID)
		}
	}
	return &f, nil
}
