package main

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scene-editor/internal/commands"
	"scene-editor/internal/config"
	"scene-editor/internal/library"
)

func testApp(t *testing.T) *app {
	t.Helper()
	lib, err := library.New(filepath.Join(t.TempDir(), "prefabs"))
	require.NoError(t, err)
	return &app{
		prefs:   config.Prefs{PackageDir: filepath.Join(t.TempDir(), "packages")},
		library: lib,
	}
}

func TestRegisterCommands(t *testing.T) {
	reg := commands.NewRegistry()
	testApp(t).registerCommands(reg)
	usage := reg.Usage()
	for _, name := range []string{"pack", "inspect", "spawn", "install", "watch", "presets"} {
		assert.True(t, strings.Contains(usage, name), "command %s not registered", name)
	}
}

func TestInstallCommand(t *testing.T) {
	a := testApp(t)
	reg := commands.NewRegistry()
	a.registerInstall(reg)

	zipPath := filepath.Join(t.TempDir(), "pack.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entry, err := zw.Create("rock.glb")
	require.NoError(t, err)
	_, err = entry.Write([]byte("rock"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	require.NoError(t, reg.Execute([]string{"install", "-package", zipPath}))

	data, err := os.ReadFile(filepath.Join(a.prefs.PackageDir, "rock.glb"))
	require.NoError(t, err)
	assert.Equal(t, "rock", string(data))
}

func TestInstallCommandRequiresPackage(t *testing.T) {
	a := testApp(t)
	reg := commands.NewRegistry()
	a.registerInstall(reg)
	assert.Error(t, reg.Execute([]string{"install"}))
}
