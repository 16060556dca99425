// Package voice maps host-facing voice styles onto provider scene descriptions.
package voice

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed presets.toml
var defaultPresets []byte

// Preset describes one selectable voice style.
type Preset struct {
	Style   string   `toml:"style"`
	Aliases []string `toml:"aliases"`
	Scene   string   `toml:"scene"`
}

type presetFile struct {
	DefaultScene string   `toml:"default_scene"`
	Presets      []Preset `toml:"preset"`
}

// Catalog resolves voice styles case-insensitively, including aliases.
type Catalog struct {
	defaultScene string
	presets      []Preset
	index        map[string]int
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultPresets)
	if err != nil {
		panic(fmt.Sprintf("voice: embedded presets: %v", err))
	}
	return c
}

// Load reads a catalog from path, falling back to the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("voice: read presets: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a TOML preset document.
func Parse(raw []byte) (*Catalog, error) {
	var file presetFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("voice: decode presets: %w", err)
	}
	c := &Catalog{
		defaultScene: strings.TrimSpace(file.DefaultScene),
		index:        make(map[string]int),
	}
	for _, p := range file.Presets {
		p.Style = strings.TrimSpace(p.Style)
		if p.Style == "" {
			return nil, fmt.Errorf("voice: preset without style")
		}
		pos := len(c.presets)
		for _, name := range append([]string{p.Style}, p.Aliases...) {
			key := normalize(name)
			if key == "" {
				continue
			}
			if _, dup := c.index[key]; dup {
				return nil, fmt.Errorf("voice: duplicate style %q", name)
			}
			c.index[key] = pos
		}
		c.presets = append(c.presets, p)
	}
	return c, nil
}

// Presets lists the configured styles in file order.
func (c *Catalog) Presets() []Preset {
	out := make([]Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

// Lookup finds the preset for a style or alias.
func (c *Catalog) Lookup(style string) (Preset, bool) {
	if c == nil {
		return Preset{}, false
	}
	pos, ok := c.index[normalize(style)]
	if !ok {
		return Preset{}, false
	}
	return c.presets[pos], true
}

// SceneFor returns the scene description for style. Unknown styles get the
// default scene, which may be empty.
func (c *Catalog) SceneFor(style string) string {
	if c == nil {
		return ""
	}
	if p, ok := c.Lookup(style); ok && p.Scene != "" {
		return p.Scene
	}
	return c.defaultScene
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
