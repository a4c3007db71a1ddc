package prefab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scene-editor/internal/asset"
	"scene-editor/internal/scene"
)

func sampleTree() *scene.Node {
	root := scene.NewNode(scene.TypeGroup)
	root.Name = "house"
	wall := scene.NewNode(scene.TypeMesh)
	wall.Name = "wall"
	wall.MeshID = "mesh-wall"
	wall.TextureID = "tex-brick"
	wall.Position = scene.Vec3{1, 0, 2}
	wall.Rotation = scene.Vec3{0, 90, 0}
	lamp := scene.NewNode(scene.TypeLight)
	lamp.Position = scene.Vec3{0, 3, 0}
	root.Attach(wall)
	wall.Attach(lamp)
	return root
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	src := sampleTree()
	doc, err := Serialize(src, "house")
	require.NoError(t, err)
	data, err := Encode(doc)
	require.NoError(t, err)

	got, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, "house", got.Name)
	assert.Equal(t, FormatVersion, got.FormatVersion)

	// Same shape, types, transforms and ids: raw serialize/deserialize
	// never remaps identity.
	require.Equal(t, src.Count(), got.Root.Count())
	var want, have []*scene.Node
	src.Walk(func(n *scene.Node) bool { want = append(want, n); return true })
	got.Root.Walk(func(n *scene.Node) bool { have = append(have, n); return true })
	for i := range want {
		assert.Equal(t, want[i].ID, have[i].ID)
		assert.Equal(t, want[i].Type, have[i].Type)
		assert.Equal(t, want[i].Position, have[i].Position)
		assert.Equal(t, want[i].Rotation, have[i].Rotation)
		assert.Equal(t, want[i].Scale, have[i].Scale)
	}
}

func TestSerializeDoesNotTouchLiveTree(t *testing.T) {
	src := sampleTree()
	src.Children[0].Locked = true
	_, err := Serialize(src, "house")
	require.NoError(t, err)
	assert.True(t, src.Children[0].Locked, "sanitization must run on the copy")
}

func TestSerializeStripsTransientState(t *testing.T) {
	src := sampleTree()
	src.Children[0].Locked = true
	src.Children[0].Placeholder = true
	src.Children[0].DownloadStatus = scene.DownloadPending
	src.Children[0].DownloadProgress = 42
	src.Children[0].DownloadError = "boom"

	doc, err := Serialize(src, "house")
	require.NoError(t, err)
	n := doc.Root.Children[0]
	assert.False(t, n.Locked)
	assert.False(t, n.Placeholder)
	assert.Empty(t, n.DownloadStatus)
	assert.Zero(t, n.DownloadProgress)
	assert.Empty(t, n.DownloadError)
}

func TestSerializeWrapsNonGroupRoot(t *testing.T) {
	mesh := scene.NewNode(scene.TypeMesh)
	mesh.Name = "crate"
	doc, err := Serialize(mesh, "crate")
	require.NoError(t, err)
	require.True(t, doc.Root.IsGroup())
	require.Len(t, doc.Root.Children, 1)
	assert.Equal(t, scene.TypeMesh, doc.Root.Children[0].Type)
}

func TestDeserializeRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"formatVersion": 2,`,
		"missing version": `{"name": "x", "root": {"id": "a", "type": "group"}}`,
		"wrong version":   `{"formatVersion": 99, "name": "x", "root": {"id": "a", "type": "group"}}`,
		"missing root":    `{"formatVersion": 2, "name": "x"}`,
		"null root":       `{"formatVersion": 2, "name": "x", "root": null}`,
		"malformed root":  `{"formatVersion": 2, "name": "x", "root": {"id": "a", "children": 7}}`,
		"root without id": `{"formatVersion": 2, "name": "x", "root": {"type": "group"}}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Deserialize([]byte(input))
			require.Error(t, err)
			var fe *FormatError
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestDeserializeDropsMalformedMapsSilently(t *testing.T) {
	input := `{
		"formatVersion": 2,
		"name": "x",
		"root": {"id": "a", "type": "group"},
		"assetIndex": ["not", "a", "map"],
		"packageAssetMap": 42
	}`
	doc, err := Deserialize([]byte(input))
	require.NoError(t, err)
	assert.Nil(t, doc.AssetIndex)
	assert.Nil(t, doc.PackageAssetMap)
}

func TestDeserializeKeepsWellFormedMaps(t *testing.T) {
	input := `{
		"formatVersion": 2,
		"name": "x",
		"root": {"id": "a", "type": "mesh", "meshId": "m1"},
		"assetIndex": {"m1": {"kind": "mesh", "source": "remote", "url": "http://x/m1"}},
		"packageAssetMap": {"m1": "m1.obj"}
	}`
	doc, err := Deserialize([]byte(input))
	require.NoError(t, err)
	require.Contains(t, doc.AssetIndex, asset.ID("m1"))
	assert.Equal(t, "m1.obj", doc.PackageAssetMap["m1"])
}

func TestDeserializeSanitizesHandEditedFiles(t *testing.T) {
	input := `{
		"formatVersion": 2,
		"name": "x",
		"root": {"id": "a", "type": "mesh", "locked": true, "placeholder": true, "downloadProgress": 50}
	}`
	doc, err := Deserialize([]byte(input))
	require.NoError(t, err)
	assert.False(t, doc.Root.Locked)
	assert.False(t, doc.Root.Placeholder)
	assert.Zero(t, doc.Root.DownloadProgress)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "My House"+Extension, FileName("My House"))
	assert.Equal(t, "a_b"+Extension, FileName(`a/b`))
	assert.Equal(t, "one two"+Extension, FileName("  one \t two  "))
	assert.Equal(t, "prefab"+Extension, FileName("   "))
	assert.Equal(t, "prefab"+Extension, FileName(`///`))
}

func TestEmbedAssetIndexIsSubset(t *testing.T) {
	cat := asset.NewCatalog()
	cat.Add("mesh-wall", asset.IndexEntry{Kind: asset.KindMesh, Source: asset.SourceLocal})
	cat.Add("tex-brick", asset.IndexEntry{Kind: asset.KindTexture, Source: asset.SourceLocal})
	cat.Add("unrelated", asset.IndexEntry{Kind: asset.KindMesh, Source: asset.SourceLocal})

	doc, err := Serialize(sampleTree(), "house")
	require.NoError(t, err)
	doc.EmbedAssetIndex(cat, map[asset.ID]string{
		"tex-brick": "brick.png",
		"unrelated": "junk.bin",
	})

	assert.Contains(t, doc.AssetIndex, asset.ID("mesh-wall"))
	assert.Contains(t, doc.AssetIndex, asset.ID("tex-brick"))
	assert.NotContains(t, doc.AssetIndex, asset.ID("unrelated"))
	assert.Equal(t, map[asset.ID]string{"tex-brick": "brick.png"}, doc.PackageAssetMap)
}
