package ability

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryFile is the on-disk shape of one ability category.
type CategoryFile struct {
	Category  string       `yaml:"category"`
	Abilities []Definition `yaml:"abilities"`
}

// LoadCategoryFromBytes parses and validates one category file.
func LoadCategoryFromBytes(data []byte) (*CategoryFile, error) {
	var cf CategoryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("parsing ability category: %w", err)
	}
	if cf.Category == "" {
		return nil, fmt.Errorf("ability category file: category must not be empty")
	}
	return &cf, nil
}

// LoadDirectory reads every *.yaml file in dir as one category and returns a populated Catalog.
// Files are loaded in name order so duplicate detection is deterministic.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns a Catalog whose every definition passed Validate, or the first error.
func LoadDirectory(dir string) (*Catalog, error) {
	cat := NewCatalog()
	if err := LoadDirectoryInto(cat, dir); err != nil {
		return nil, err
	}
	return cat, nil
}

// LoadDirectoryInto adds every category file in dir to an existing catalog.
func LoadDirectoryInto(cat *Catalog, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading ability dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, n := range names {
		path := filepath.Join(dir, n)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		cf, err := LoadCategoryFromBytes(data)
		if err != nil {
			return fmt.Errorf("%q: %w", path, err)
		}
		if err := cat.AddCategory(cf.Category, cf.Abilities); err != nil {
			return fmt.Errorf("%q: %w", path, err)
		}
	}
	return nil
}

// ApplyOverrides registers every override with r, stopping at the first failure.
func ApplyOverrides(r *Resolver, overrides []Override) error {
	for _, o := range overrides {
		if err := r.SetOverride(o); err != nil {
			return err
		}
	}
	return nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
