package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scene-editor/internal/asset"
)

func TestDefaultLibraryCoversCoreKinds(t *testing.T) {
	lib := DefaultLibrary()
	for _, kind := range []asset.Kind{asset.KindMesh, asset.KindTexture, asset.KindMaterial, asset.KindSky} {
		p, ok := lib.Lookup(kind)
		require.True(t, ok, "no preset for %s", kind)
		assert.Equal(t, kind, p.Kind)
		assert.NotEmpty(t, p.Data)
		assert.NotEmpty(t, p.FileName)
		assert.NotEmpty(t, p.ContentType)
	}
}

func TestLookupUnknownKindFallsBackToMesh(t *testing.T) {
	lib := DefaultLibrary()
	p, ok := lib.Lookup(asset.KindSound)
	require.True(t, ok)
	assert.Equal(t, asset.KindMesh, p.Kind)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	lib, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	_, ok := lib.Lookup(asset.KindMesh)
	assert.True(t, ok)
}

func TestLoadOverridesLayerOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: project-cube
  kind: mesh
  color: "#ff0000"
  size: [2, 2, 2]
`), 0644))

	lib, err := Load(path)
	require.NoError(t, err)

	p, ok := lib.Lookup(asset.KindMesh)
	require.True(t, ok)
	assert.Equal(t, "project-cube", p.Name)

	// Kinds the file does not mention keep their defaults.
	p, ok = lib.Lookup(asset.KindTexture)
	require.True(t, ok)
	assert.Equal(t, "placeholder-checker", p.Name)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestGeneratedMeshIsOBJ(t *testing.T) {
	lib := DefaultLibrary()
	p, _ := lib.Lookup(asset.KindMesh)
	assert.Contains(t, string(p.Data), "v ")
	assert.Contains(t, string(p.Data), "f ")
}
