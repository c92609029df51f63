package profile

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"

	"github.com/pavelanni/paperbank/internal/model"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed defaults/*.yaml
var defaultsFS embed.FS

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("profile.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("profile.schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ParseConfig decodes a YAML or JSON profile document and validates it
// against the profile schema.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return cfg, fmt.Errorf("convert yaml: %w", err)
	}

	s, err := configSchema()
	if err != nil {
		return cfg, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return cfg, fmt.Errorf("unmarshal profile: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return cfg, fmt.Errorf("profile does not match schema: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("decode profile: %w", err)
	}
	return cfg, nil
}

// Registry is the subject-configuration store: compiled profiles keyed by
// subject code and paper type. Populate it at startup; lookups are safe for
// concurrent use once loading has finished.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]*Profile)}
}

// Put adds p, replacing any profile with the same key.
func (r *Registry) Put(p *Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.profiles[p.Key()]; ok {
		slog.Info("profile overridden", "key", p.Key(), "old_version", old.Version(), "new_version", p.Version())
	}
	r.profiles[p.Key()] = p
}

// Lookup returns the profile for a subject and paper type.
func (r *Registry) Lookup(subjectCode string, t model.PaperType) (*Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[Key(subjectCode, t)]
	return p, ok
}

// List returns all profiles ordered by key.
func (r *Registry) List() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key() < list[j].Key() })
	return list
}

// LoadDefaults registers the built-in profiles.
func (r *Registry) LoadDefaults() error {
	return r.loadFS(defaultsFS, "defaults")
}

// LoadDir registers every *.yaml, *.yml and *.json profile in dir.
func (r *Registry) LoadDir(dir string) error {
	return r.loadFS(os.DirFS(dir), ".")
}

func (r *Registry) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read profiles dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isProfileFile(e.Name()) {
			continue
		}
		name := filepath.ToSlash(filepath.Join(dir, e.Name()))
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read profile %s: %w", e.Name(), err)
		}
		p, err := load(data)
		if err != nil {
			return fmt.Errorf("load profile %s: %w", e.Name(), err)
		}
		r.Put(p)
		slog.Debug("loaded profile", "file", e.Name(), "key", p.Key(), "version", p.Version())
	}
	return nil
}

// LoadFile registers a single profile file.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	p, err := load(data)
	if err != nil {
		return fmt.Errorf("load profile %s: %w", path, err)
	}
	r.Put(p)
	return nil
}

func load(data []byte) (*Profile, error) {
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	return Compile(cfg)
}

func isProfileFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
