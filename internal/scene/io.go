package scene

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"scene-editor/internal/asset"
)

// FileVersion is the scene-file format version. Scenes and prefabs are
// versioned independently.
const FileVersion = 1

// File is the on-disk scene document: the tree plus the project asset
// catalog snapshot.
type File struct {
	FormatVersion int                          `json:"formatVersion"`
	Name          string                       `json:"name,omitempty"`
	Root          *Node                        `json:"root"`
	AssetIndex    map[asset.ID]asset.IndexEntry `json:"assetIndex,omitempty"`
}

// SaveFile writes the store's tree and catalog to path as indented JSON.
func SaveFile(path string, s *Store, cat *asset.Catalog) error {
	f := File{
		FormatVersion: FileVersion,
		Root:          s.Root(),
	}
	if cat != nil {
		f.AssetIndex = cat.Subset(cat.IDs())
	}
	data, err := json.MarshalIndent(&f, "", "\t")
	if err != nil {
		return fmt.Errorf("scene: save: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFile reads a scene document from path and returns a store for its
// tree and a catalog holding its asset index.
func LoadFile(path string) (*Store, *asset.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("scene: load: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("scene: load: %w", err)
	}
	if f.FormatVersion != FileVersion {
		return nil, nil, fmt.Errorf("scene: load: unsupported format version %d", f.FormatVersion)
	}
	if f.Root == nil {
		return nil, nil, fmt.Errorf("scene: load: missing root")
	}
	s, err := NewStoreWithRoot(f.Root)
	if err != nil {
		return nil, nil, err
	}
	cat := asset.NewCatalog()
	for id, e := range f.AssetIndex {
		cat.Add(id, e)
	}
	return s, cat, nil
}
