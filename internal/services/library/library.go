// Package library exposes the builder's reference data: the attribute
// resolver with optional YAML overlay mappings, plus the slot presets and
// channel catalogue served by the API.
package library

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

// OverlayFile pairs parsed attribute mappings with their on-disk source.
type OverlayFile struct {
	Mappings []gdtf.Mapping
	Path     string
}

// Service holds the attribute resolver built from the built-in table plus
// any loaded overlays.
type Service struct {
	resolver *gdtf.Resolver
	overlays []OverlayFile
}

// New builds a Service from already-loaded overlay files. Overlay mappings
// take precedence over the built-in table in the order given.
func New(overlays ...OverlayFile) *Service {
	var flat []gdtf.Mapping
	for _, o := range overlays {
		flat = append(flat, o.Mappings...)
	}
	return &Service{
		resolver: gdtf.NewResolver(flat...),
		overlays: overlays,
	}
}

// Load scans dir for overlay files and builds a Service from them. An empty
// or missing dir yields a Service over the built-in table alone.
func Load(dir string) (*Service, error) {
	files, err := LoadMappingsDir(dir)
	if err != nil {
		return nil, err
	}
	return New(files...), nil
}

// Resolver returns the effective attribute resolver.
func (s *Service) Resolver() *gdtf.Resolver {
	return s.resolver
}

// Overlays returns the loaded overlay files in precedence order.
func (s *Service) Overlays() []OverlayFile {
	out := make([]OverlayFile, len(s.overlays))
	copy(out, s.overlays)
	return out
}

// Mappings returns the effective mapping table in match order: overlay
// entries first, then the built-in table.
func (s *Service) Mappings() []gdtf.Mapping {
	var out []gdtf.Mapping
	for _, o := range s.overlays {
		out = append(out, o.Mappings...)
	}
	return append(out, gdtf.Mappings()...)
}

// ParseMappingsYAML decodes and validates one overlay document. The document
// holds a `mappings` list; each entry needs a key and an attribute, and
// omitted taxonomy fields default to the Control group with the attribute as
// its own activation group.
func ParseMappingsYAML(data []byte) ([]gdtf.Mapping, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("library: overlay payload is empty")
	}
	var doc struct {
		Mappings []gdtf.Mapping `yaml:"mappings"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("library: decode overlay: %w", err)
	}
	if len(doc.Mappings) == 0 {
		return nil, fmt.Errorf("library: overlay defines no mappings")
	}
	out := make([]gdtf.Mapping, 0, len(doc.Mappings))
	for i, m := range doc.Mappings {
		normalized, err := normalizeMapping(m)
		if err != nil {
			return nil, fmt.Errorf("library: mapping %d: %w", i+1, err)
		}
		out = append(out, normalized)
	}
	return out, nil
}

func normalizeMapping(m gdtf.Mapping) (gdtf.Mapping, error) {
	m.Key = strings.ToLower(strings.TrimSpace(m.Key))
	if m.Key == "" {
		return gdtf.Mapping{}, fmt.Errorf("key is required")
	}
	m.Attribute = strings.TrimSpace(m.Attribute)
	if m.Attribute == "" {
		return gdtf.Mapping{}, fmt.Errorf("attribute is required")
	}
	if m.FeatureGroup = strings.TrimSpace(m.FeatureGroup); m.FeatureGroup == "" {
		m.FeatureGroup = "Control"
	}
	if m.Feature = strings.TrimSpace(m.Feature); m.Feature == "" {
		m.Feature = m.FeatureGroup
	}
	if m.ActivationGroup = strings.TrimSpace(m.ActivationGroup); m.ActivationGroup == "" {
		m.ActivationGroup = m.Attribute
	}
	return m, nil
}

// LoadMappingsFile reads a YAML overlay file from disk.
func LoadMappingsFile(path string) (OverlayFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return OverlayFile{}, fmt.Errorf("library: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return OverlayFile{}, fmt.Errorf("library: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return OverlayFile{}, fmt.Errorf("library: read %s: %w", path, err)
	}
	mappings, err := ParseMappingsYAML(data)
	if err != nil {
		return OverlayFile{}, fmt.Errorf("library: %s: %w", path, err)
	}
	return OverlayFile{Mappings: mappings, Path: filepath.Clean(path)}, nil
}

// LoadMappingsDir scans a directory for *.yaml overlays and returns the
// parsed files. Missing directories are treated as "no overlays" to simplify
// startup.
func LoadMappingsDir(dir string) ([]OverlayFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("library: read %s: %w", trimmed, err)
	}
	var files []OverlayFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isYAMLFile(name) {
			continue
		}
		file, err := LoadMappingsFile(filepath.Join(trimmed, name))
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
