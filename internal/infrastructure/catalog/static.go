// Package catalog provides the fixed list of PCB test cases.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pcb-inspector/assets"
	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/domain/port"
)

type document struct {
	Cases []record `yaml:"cases"`
}

type record struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Reference   string `yaml:"reference"`
	Defect      string `yaml:"defect"`
}

// Static is an immutable, ordered catalog.
type Static struct {
	cases []entity.TestCase
	index map[int]int
}

// New validates the cases and keeps them in the given order.
func New(cases []entity.TestCase) (*Static, error) {
	if len(cases) == 0 {
		return nil, errors.New("catalog is empty")
	}

	index := make(map[int]int, len(cases))
	for i, c := range cases {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("case #%d: %w", i+1, err)
		}
		if _, dup := index[c.ID]; dup {
			return nil, fmt.Errorf("duplicate case id %d", c.ID)
		}
		index[c.ID] = i
	}

	return &Static{
		cases: append([]entity.TestCase(nil), cases...),
		index: index,
	}, nil
}

// Parse reads a YAML catalog document.
func Parse(data []byte) (*Static, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	cases := make([]entity.TestCase, 0, len(doc.Cases))
	for _, r := range doc.Cases {
		cases = append(cases, entity.TestCase{
			ID:             r.ID,
			Name:           r.Name,
			Description:    r.Description,
			PrimaryImage:   r.Image,
			ReferenceImage: r.Reference,
			DefectImage:    r.Defect,
		})
	}
	return New(cases)
}

// LoadEmbedded returns the catalog bundled into the binary.
func LoadEmbedded() (*Static, error) {
	data, err := fs.ReadFile(assets.FS, assets.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a catalog from disk. Relative file references are resolved
// against the directory of the catalog file.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range c.cases {
		tc := &c.cases[i]
		tc.PrimaryImage = resolveRelative(dir, tc.PrimaryImage)
		tc.ReferenceImage = resolveRelative(dir, tc.ReferenceImage)
		tc.DefectImage = resolveRelative(dir, tc.DefectImage)
	}
	return c, nil
}

// Load picks the file catalog when a path is given, the embedded one otherwise.
func Load(path string) (*Static, error) {
	if path == "" {
		return LoadEmbedded()
	}
	return LoadFile(path)
}

func resolveRelative(dir, ref string) string {
	if strings.Contains(ref, ":") || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(dir, ref)
}

// Len returns the number of cases.
func (s *Static) Len() int { return len(s.cases) }

// At returns the case at index.
func (s *Static) At(index int) entity.TestCase { return s.cases[index] }

// IndexOf finds the position of a case by id.
func (s *Static) IndexOf(id int) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// All returns a copy of the cases in order.
func (s *Static) All() []entity.TestCase {
	return append([]entity.TestCase(nil), s.cases...)
}

// Verify loads every image of every case and reports all references that fail.
func Verify(ctx context.Context, c port.CaseCatalog, loader port.ImageLoader) error {
	var errs []error
	for _, tc := range c.All() {
		for _, kind := range []entity.ImageKind{entity.ImagePrimary, entity.ImageReference, entity.ImageDefect} {
			if _, err := loader.Load(ctx, tc.Image(kind)); err != nil {
				errs = append(errs, fmt.Errorf("case %d %s: %w", tc.ID, kind, err))
			}
		}
	}
	return errors.Join(errs...)
}

var _ port.CaseCatalog = (*Static)(nil)
