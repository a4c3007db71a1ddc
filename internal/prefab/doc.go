// Package prefab turns reusable scene-object definitions into live node
// trees and back: serialization with schema versioning, transform
// baking into root-relative space, dependency collection, and
// instantiation with fresh node identity.
package prefab

import (
	"regexp"
	"strings"

	"scene-editor/internal/asset"
	"scene-editor/internal/scene"
)

// FormatVersion is the prefab document schema version. Deserialization
// rejects any other value.
const FormatVersion = 2

// Extension is the fixed prefab file extension.
const Extension = ".prefab"

// Document is a serialized prefab: a versioned, self-contained node
// subtree. AssetIndex and PackageAssetMap are subsets restricted to ids
// the root actually references, never the full project catalog.
// Documents are immutable once written.
type Document struct {
	FormatVersion   int                           `json:"formatVersion"`
	Name            string                        `json:"name"`
	Root            *scene.Node                   `json:"root"`
	AssetIndex      map[asset.ID]asset.IndexEntry `json:"assetIndex,omitempty"`
	PackageAssetMap map[asset.ID]string           `json:"packageAssetMap,omitempty"`
}

// EmbedAssetIndex snapshots catalog entries (and provider-package
// filenames) for exactly the assets the document's root references, so
// the file stays self-contained without dragging the whole catalog in.
func (d *Document) EmbedAssetIndex(cat *asset.Catalog, packageAssets map[asset.ID]string) {
	ids := Collect(d.Root)
	if cat != nil {
		if sub := cat.Subset(ids); len(sub) > 0 {
			d.AssetIndex = sub
		}
	}
	if len(packageAssets) > 0 {
		sub := make(map[asset.ID]string)
		for _, id := range ids {
			if name, ok := packageAssets[id]; ok {
				sub[id] = name
			}
		}
		if len(sub) > 0 {
			d.PackageAssetMap = sub
		}
	}
}

var unsafeFileRe = regexp.MustCompile(`[\\/:*?"<>|[:cntrl:]]+`)

// FileName derives the on-disk filename for a prefab: path-unsafe
// characters replaced, whitespace collapsed, fixed extension. A name
// that sanitizes to empty falls back to "prefab".
func FileName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	name = unsafeFileRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		name = "prefab"
	}
	return name + Extension
}
