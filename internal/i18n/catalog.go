// Package i18n loads language packs and resolves display strings, falling
// back to the built-in default pack.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultPack is the name the built-in pack is registered under.
const DefaultPack = "DEFAULT"

//go:embed languages/*.yaml
var builtin embed.FS

var ErrUnknownLanguage = errors.New("unknown language")

// Pack is one language: a flat map of field keys to display strings.
type Pack struct {
	Name   string
	Fields map[string]string
}

// ParsePack decodes a YAML (or JSON) pack. The pack is named after its INFO
// field.
func ParsePack(data []byte) (*Pack, error) {
	fields := map[string]string{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse language pack: %w", err)
	}
	name := strings.TrimSpace(fields[KeyInfo])
	if name == "" {
		return nil, fmt.Errorf("language pack has no %s field", KeyInfo)
	}
	return &Pack{Name: name, Fields: fields}, nil
}

func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read language pack: %w", err)
	}
	p, err := ParsePack(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Catalog holds the known packs and the active language.
type Catalog struct {
	mu     sync.RWMutex
	packs  map[string]*Pack
	active string
}

// NewCatalog returns a catalog holding the built-in packs with DefaultPack
// active.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{
		packs:  map[string]*Pack{},
		active: DefaultPack,
	}

	def, err := fs.ReadFile(builtin, "languages/default.yaml")
	if err != nil {
		return nil, err
	}
	p, err := ParsePack(def)
	if err != nil {
		return nil, err
	}
	p.Name = DefaultPack
	c.packs[DefaultPack] = p

	entries, err := fs.ReadDir(builtin, "languages")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Name() == "default.yaml" {
			continue
		}
		data, err := fs.ReadFile(builtin, "languages/"+e.Name())
		if err != nil {
			return nil, err
		}
		p, err := ParsePack(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		c.AddPack(p)
	}
	return c, nil
}

// AddPack registers p unless a pack with the same name is already known.
func (c *Catalog) AddPack(p *Pack) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.packs[p.Name]; exists {
		return false
	}
	c.packs[p.Name] = p
	return true
}

// SearchPacks loads every .yaml, .yml and .json file in dir as a language
// pack and returns how many new packs were registered.
func (c *Catalog) SearchPacks(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read language directory: %w", err)
	}

	added := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		p, err := LoadPack(filepath.Join(dir, e.Name()))
		if err != nil {
			return added, err
		}
		if c.AddPack(p) {
			added++
		}
	}
	return added, nil
}

func (c *Catalog) SetActive(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.packs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, name)
	}
	c.active = name
	return nil
}

func (c *Catalog) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Languages returns the registered pack names, sorted.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.packs))
	for name := range c.packs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetField resolves key in the active pack, then in the default pack. An
// unknown key resolves to itself.
func (c *Catalog) GetField(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.packs[c.active]; ok {
		if v, ok := p.Fields[key]; ok {
			return v
		}
	}
	if v, ok := c.packs[DefaultPack].Fields[key]; ok {
		return v
	}
	return key
}
