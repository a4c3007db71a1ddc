// Package presets provides the generic placeholder catalog: stand-in
// asset bytes (gray cube, checker texture, flat material) used when a
// prefab references an asset no source can supply. Definitions are
// YAML, overridable from a project file.
package presets

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"scene-editor/internal/asset"
)

// Def is the YAML definition for one placeholder preset.
type Def struct {
	Name  string     `yaml:"name"`
	Kind  asset.Kind `yaml:"kind"`
	Color string     `yaml:"color,omitempty"`
	Size  [3]float32 `yaml:"size,omitempty"`
}

// Preset is a resolved placeholder: its definition plus generated
// stand-in bytes ready to drop into the content cache.
type Preset struct {
	Def
	Data        []byte
	ContentType string
	FileName    string
}

// defaultDefs are the built-in presets, used when no preset file exists
// or for kinds a project file does not override.
const defaultDefs = `
- name: placeholder-cube
  kind: mesh
  color: "#808080"
  size: [1, 1, 1]
- name: placeholder-checker
  kind: texture
  color: "#c0c0c0"
- name: placeholder-material
  kind: material
  color: "#808080"
- name: placeholder-sky
  kind: sky
  color: "#87ceeb"
`

// Library maps asset kinds to their placeholder preset.
type Library struct {
	byKind map[asset.Kind]Preset
}

// DefaultLibrary returns the built-in presets.
func DefaultLibrary() *Library {
	l, err := fromYAML([]byte(defaultDefs))
	if err != nil {
		// The embedded defaults are constant; a parse failure is a
		// programming error.
		panic(fmt.Sprintf("presets: bad defaults: %v", err))
	}
	return l
}

// Load reads preset definitions from path and layers them over the
// defaults. A missing file is not an error; the defaults apply.
func Load(path string) (*Library, error) {
	base := DefaultLibrary()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("presets: %w", err)
	}
	over, err := fromYAML(data)
	if err != nil {
		return nil, err
	}
	for kind, p := range over.byKind {
		base.byKind[kind] = p
	}
	return base, nil
}

func fromYAML(data []byte) (*Library, error) {
	var defs []Def
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("presets: %w", err)
	}
	l := &Library{byKind: make(map[asset.Kind]Preset, len(defs))}
	for _, d := range defs {
		if d.Kind == "" {
			continue
		}
		l.byKind[d.Kind] = build(d)
	}
	return l, nil
}

// Lookup returns the preset for kind. Unknown kinds fall back to the
// mesh preset so a stand-in always exists.
func (l *Library) Lookup(kind asset.Kind) (Preset, bool) {
	if p, ok := l.byKind[kind]; ok {
		return p, true
	}
	p, ok := l.byKind[asset.KindMesh]
	return p, ok
}

// All returns every preset, in no particular order.
func (l *Library) All() []Preset {
	out := make([]Preset, 0, len(l.byKind))
	for _, p := range l.byKind {
		out = append(out, p)
	}
	return out
}
