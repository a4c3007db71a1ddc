package prefab

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jinzhu/copier"

	"scene-editor/internal/asset"
	"scene-editor/internal/scene"
)

// cloneTree deep-copies a node subtree. Parent back-references are
// unexported and therefore never cross the copy.
func cloneTree(n *scene.Node) (*scene.Node, error) {
	out := &scene.Node{}
	if err := copier.CopyWithOption(out, n, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("prefab: clone: %w", err)
	}
	out.FixParents()
	return out, nil
}

// sanitize strips runtime-only state from every node in the subtree:
// download state, the locked flag, and the placeholder flag. Applied at
// serialize time and again at deserialize time, so hand-edited files
// cannot smuggle runtime state back in.
func sanitize(root *scene.Node) {
	root.Walk(func(n *scene.Node) bool {
		n.Locked = false
		n.Placeholder = false
		n.DownloadStatus = ""
		n.DownloadProgress = 0
		n.DownloadError = ""
		return true
	})
}

// Serialize captures node's subtree as a prefab document named name.
// The live tree is not touched: the document owns a sanitized deep
// copy. Node ids are preserved; remapping to fresh ids happens at
// instantiate time only. A non-group root is wrapped in a synthetic
// group so every prefab has a single addressable group root.
func Serialize(node *scene.Node, name string) (*Document, error) {
	root, err := cloneTree(node)
	if err != nil {
		return nil, err
	}
	sanitize(root)
	if !root.IsGroup() {
		wrap := scene.NewNode(scene.TypeGroup)
		wrap.Name = name
		wrap.Attach(root)
		root = wrap
	}
	return &Document{
		FormatVersion: FormatVersion,
		Name:          name,
		Root:          root,
	}, nil
}

// Encode renders the document as indented JSON.
func Encode(d *Document) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("prefab: encode: %w", err)
	}
	return data, nil
}

// wireDocument defers the optional maps so a malformed assetIndex or
// packageAssetMap can be dropped without failing the whole load.
type wireDocument struct {
	FormatVersion   *int            `json:"formatVersion"`
	Name            string          `json:"name"`
	Root            json.RawMessage `json:"root"`
	AssetIndex      json.RawMessage `json:"assetIndex"`
	PackageAssetMap json.RawMessage `json:"packageAssetMap"`
}

// Deserialize parses a prefab document. It fails with *FormatError when
// the JSON is invalid, the format version is absent or mismatched, or
// the root is missing or malformed. Optional asset maps that fail to
// parse are dropped silently; the same sanitization pass used at
// serialize time runs over the result.
func Deserialize(data []byte) (*Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &FormatError{Reason: "not a JSON document: " + err.Error()}
	}
	if w.FormatVersion == nil {
		return nil, &FormatError{Reason: "missing formatVersion"}
	}
	if *w.FormatVersion != FormatVersion {
		return nil, &FormatError{Reason: fmt.Sprintf("unsupported formatVersion %d (want %d)", *w.FormatVersion, FormatVersion)}
	}
	if len(w.Root) == 0 || string(w.Root) == "null" {
		return nil, &FormatError{Reason: "missing root"}
	}
	root := &scene.Node{}
	if err := json.Unmarshal(w.Root, root); err != nil {
		return nil, &FormatError{Reason: "malformed root: " + err.Error()}
	}
	if root.ID == "" {
		return nil, &FormatError{Reason: "root has no id"}
	}
	root.FixParents()
	sanitize(root)

	d := &Document{
		FormatVersion: *w.FormatVersion,
		Name:          w.Name,
		Root:          root,
	}
	if len(w.AssetIndex) > 0 {
		var idx map[asset.ID]asset.IndexEntry
		if err := json.Unmarshal(w.AssetIndex, &idx); err == nil {
			d.AssetIndex = idx
		}
	}
	if len(w.PackageAssetMap) > 0 {
		var pkg map[asset.ID]string
		if err := json.Unmarshal(w.PackageAssetMap, &pkg); err == nil {
			d.PackageAssetMap = pkg
		}
	}
	return d, nil
}
