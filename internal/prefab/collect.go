package prefab

import (
	"sort"

	"scene-editor/internal/asset"
	"scene-editor/internal/scene"
)

// Collect walks the subtree and returns every asset id it references,
// deduplicated and sorted: mesh/texture/material/sky bindings,
// dynamic-mesh material slots, and nested prefab links. Pure function,
// no I/O.
func Collect(root *scene.Node) []asset.ID {
	set := CollectSet(root)
	out := make([]asset.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CollectSet is Collect returning the raw set.
func CollectSet(root *scene.Node) map[asset.ID]struct{} {
	set := make(map[asset.ID]struct{})
	add := func(id asset.ID) {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	root.Walk(func(n *scene.Node) bool {
		add(n.MeshID)
		add(n.TextureID)
		add(n.MaterialID)
		add(n.SkyID)
		add(n.PrefabID)
		if n.DynamicMesh != nil {
			for _, id := range n.DynamicMesh.Materials {
				add(id)
			}
		}
		return true
	})
	return set
}
