package sdruntime

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RegistryFileName is the registry file looked up inside the models directory.
const RegistryFileName = "models.yaml"

// ModelEntry maps a model identifier (and optional revision) to a local file.
type ModelEntry struct {
	ID       string `yaml:"id"`
	Revision string `yaml:"revision,omitempty"`
	File     string `yaml:"file"`
	SHA256   string `yaml:"sha256,omitempty"`
}

// Registry is the parsed contents of models.yaml.
type Registry struct {
	Models []ModelEntry `yaml:"models"`

	dir string // relative File entries resolve against this
}

// ResolvedModel is the outcome of ResolveModel.
type ResolvedModel struct {
	Path   string
	SHA256 string // empty when the registry has no checksum
	Source string // "registry", "path" or "models-dir"
}

// LoadRegistry reads models.yaml from modelsDir. A missing file yields an
// empty registry.
func LoadRegistry(modelsDir string) (*Registry, error) {
	data, err := os.ReadFile(filepath.Join(modelsDir, RegistryFileName))
	if errors.Is(err, os.ErrNotExist) {
		return &Registry{dir: modelsDir}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read model registry: %w", err)
	}
	return ParseRegistry(data, modelsDir)
}

// ParseRegistry decodes registry YAML. Every entry needs an id and a file,
// and an id may appear only once per revision.
func ParseRegistry(data []byte, dir string) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}
	r.dir = dir

	seen := make(map[string]bool, len(r.Models))
	for i, m := range r.Models {
		if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.File) == "" {
			return nil, fmt.Errorf("%w: entry %d needs both id and file", ErrInvalidRegistry, i)
		}
		key := m.ID + "@" + normalizeRevision(m.Revision)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate entry for %s", ErrInvalidRegistry, key)
		}
		seen[key] = true
	}
	return &r, nil
}

// Lookup finds the entry for id at revision. An empty revision and "main"
// are the same revision.
func (r *Registry) Lookup(id, revision string) (ModelEntry, bool) {
	want := normalizeRevision(revision)
	for _, m := range r.Models {
		if m.ID == id && normalizeRevision(m.Revision) == want {
			return m, true
		}
	}
	return ModelEntry{}, false
}

// Path returns the file location of an entry.
func (r *Registry) Path(m ModelEntry) string {
	if filepath.IsAbs(m.File) {
		return m.File
	}
	return filepath.Join(r.dir, m.File)
}

// ResolveModel turns a model identifier into a file on disk. See the
// package documentation for the lookup order.
func ResolveModel(modelsDir, id, revision string) (ResolvedModel, error) {
	reg, err := LoadRegistry(modelsDir)
	if err != nil {
		return ResolvedModel{}, err
	}

	if entry, ok := reg.Lookup(id, revision); ok {
		path := reg.Path(entry)
		if !isFile(path) {
			return ResolvedModel{}, fmt.Errorf("%w: %s (registered for %s)", ErrModelNotFound, path, id)
		}
		return ResolvedModel{Path: path, SHA256: strings.ToLower(entry.SHA256), Source: "registry"}, nil
	}

	if isFile(id) {
		return ResolvedModel{Path: id, Source: "path"}, nil
	}

	if candidate := filepath.Join(modelsDir, id); isFile(candidate) {
		return ResolvedModel{Path: candidate, Source: "models-dir"}, nil
	}

	return ResolvedModel{}, fmt.Errorf("%w: %s (no entry in %s and no such file)",
		ErrModelNotFound, id, filepath.Join(modelsDir, RegistryFileName))
}

func normalizeRevision(rev string) string {
	rev = strings.TrimSpace(rev)
	if rev == "main" {
		return ""
	}
	return rev
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
