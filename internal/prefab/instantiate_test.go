package prefab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scene-editor/internal/asset"
	"scene-editor/internal/scene"
)

func sampleDoc() *Document {
	root := sampleTree()
	root.Behavior = []scene.BehaviorStep{{ID: "step-1", Action: "rotate"}}
	return &Document{
		FormatVersion: FormatVersion,
		Name:          root.Name,
		Root:          root,
		AssetIndex: map[asset.ID]asset.IndexEntry{
			"mesh-wall": {Kind: asset.KindMesh, Source: asset.SourceRemote, URL: "https://cdn/wall"},
			"tex-brick": {Kind: asset.KindTexture, Source: asset.SourceRemote, URL: "https://cdn/brick"},
		},
	}
}

func TestInstantiateRegeneratesIdentity(t *testing.T) {
	doc := sampleDoc()
	node, _, err := Instantiate(context.Background(), doc, Env{}, InstantiateOptions{})
	require.NoError(t, err)

	seen := make(map[string]bool)
	doc.Root.Walk(func(n *scene.Node) bool {
		seen[n.ID] = true
		for _, s := range n.Behavior {
			seen[s.ID] = true
		}
		return true
	})
	node.Walk(func(n *scene.Node) bool {
		assert.False(t, seen[n.ID], "node id %s reused from document", n.ID)
		for _, s := range n.Behavior {
			assert.False(t, seen[s.ID], "behavior step id %s reused from document", s.ID)
		}
		return true
	})
	// The document tree itself is untouched.
	assert.True(t, seen[doc.Root.ID])
}

func TestInstantiateKeepIDs(t *testing.T) {
	doc := sampleDoc()
	node, _, err := Instantiate(context.Background(), doc, Env{}, InstantiateOptions{KeepIDs: true})
	require.NoError(t, err)
	assert.Equal(t, doc.Root.ID, node.ID)
	assert.Equal(t, "step-1", node.Behavior[0].ID)
}

func TestInstantiateMergeKeepsLocalEntries(t *testing.T) {
	cat := asset.NewCatalog()
	cat.Add("mesh-wall", asset.IndexEntry{Kind: asset.KindMesh, Source: asset.SourceLocal})

	doc := sampleDoc()
	_, _, err := Instantiate(context.Background(), doc, Env{Catalog: cat}, InstantiateOptions{})
	require.NoError(t, err)

	// The pre-existing local entry wins over the embedded remote one.
	entry, ok := cat.Lookup("mesh-wall")
	require.True(t, ok)
	assert.Equal(t, asset.SourceLocal, entry.Source)

	// The missing dependency is adopted from the document.
	entry, ok = cat.Lookup("tex-brick")
	require.True(t, ok)
	assert.Equal(t, "https://cdn/brick", entry.URL)
}

func TestInstantiateMergeIgnoresUnreferencedEntries(t *testing.T) {
	cat := asset.NewCatalog()
	doc := sampleDoc()
	doc.AssetIndex["stray"] = asset.IndexEntry{Kind: asset.KindSound}

	_, _, err := Instantiate(context.Background(), doc, Env{Catalog: cat}, InstantiateOptions{})
	require.NoError(t, err)
	assert.False(t, cat.Has("stray"))
}

func TestInstantiateProvenance(t *testing.T) {
	doc := sampleDoc()
	doc.Root.PrefabID = "old-link"

	stripped, _, err := Instantiate(context.Background(), doc, Env{}, InstantiateOptions{})
	require.NoError(t, err)
	stripped.Walk(func(n *scene.Node) bool {
		assert.Empty(t, n.PrefabID)
		return true
	})

	linked, _, err := Instantiate(context.Background(), doc, Env{}, InstantiateOptions{
		LinkPrefab: true,
		SourceID:   "pf-house",
	})
	require.NoError(t, err)
	assert.Equal(t, asset.ID("pf-house"), linked.PrefabID)
}

func TestInstantiatePlacement(t *testing.T) {
	doc := sampleDoc()

	pos := scene.Vec3{7, 0, -2}
	node, _, err := Instantiate(context.Background(), doc, Env{}, InstantiateOptions{Position: &pos})
	require.NoError(t, err)
	assert.Equal(t, pos, node.Position)

	// A child spawn under a non-root parent lands at the parent's origin.
	store := scene.NewStore()
	parent := scene.NewNode(scene.TypeGroup)
	require.NoError(t, store.Insert(store.Root().ID, parent, -1))
	node, _, err = Instantiate(context.Background(), doc, Env{Store: store}, InstantiateOptions{ParentID: parent.ID})
	require.NoError(t, err)
	assert.Equal(t, scene.Vec3{}, node.Position)
}

func TestInstantiateSpawnPointAvoidsOccupiedOrigin(t *testing.T) {
	store := scene.NewStore()
	blocker := scene.NewNode(scene.TypeMesh)
	require.NoError(t, store.Insert(store.Root().ID, blocker, -1))

	doc := sampleDoc()
	node, _, err := Instantiate(context.Background(), doc, Env{Store: store}, InstantiateOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, scene.Vec3{}, node.Position)
}

func TestCheckRef(t *testing.T) {
	cat := asset.NewCatalog()
	cat.Add("pf-1", asset.IndexEntry{Kind: asset.KindPrefab, Source: asset.SourceLocal})
	cat.Add("mesh-1", asset.IndexEntry{Kind: asset.KindMesh, Source: asset.SourceLocal})

	assert.NoError(t, CheckRef(cat, "pf-1"))

	var nf *NotFoundError
	require.ErrorAs(t, CheckRef(cat, "missing"), &nf)
	assert.Equal(t, asset.ID("missing"), nf.ID)

	var tm *TypeMismatchError
	require.ErrorAs(t, CheckRef(cat, "mesh-1"), &tm)
	assert.Equal(t, asset.KindPrefab, tm.Want)
	assert.Equal(t, asset.KindMesh, tm.Got)
}
