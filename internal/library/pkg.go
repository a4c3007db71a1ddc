package library

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// InstallPackage extracts a provider asset package (a zip of asset
// files) into destDir, preserving directory structure, and returns the
// extracted paths. Entries that would escape destDir are skipped. The
// resolver's package tier then satisfies asset ids from destDir.
func InstallPackage(zipPath, destDir string) (extracted []string, err error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("library: install: %w", err)
	}
	defer r.Close()
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("library: install: %w", err)
	}
	absDir, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("library: install: %w", err)
	}
	for _, f := range r.File {
		dest := filepath.Clean(filepath.Join(destDir, f.Name))
		absDest, err := filepath.Abs(dest)
		if err != nil {
			return nil, fmt.Errorf("library: install: %w", err)
		}
		if !strings.HasPrefix(absDest, absDir+string(os.PathSeparator)) && absDest != absDir {
			continue // skip path escape
		}
		if f.FileInfo().IsDir() {
			_ = os.MkdirAll(dest, 0755)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return nil, fmt.Errorf("library: install: %w", err)
		}
		out, err := os.Create(dest)
		if err != nil {
			return nil, fmt.Errorf("library: install: %w", err)
		}
		rc, err := f.Open()
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("library: install: %w", err)
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return nil, fmt.Errorf("library: install: %w", err)
		}
		extracted = append(extracted, dest)
	}
	log.WithField("prefix", "library").Infof("installed %d package files into %s", len(extracted), destDir)
	return extracted, nil
}
