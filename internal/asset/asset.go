package asset

import (
	"github.com/google/uuid"
)

// ID identifies a single asset (mesh, texture, prefab, ...) across the
// project catalog, the content cache, and prefab documents.
type ID string

// NewID returns a fresh random asset id.
func NewID() ID {
	return ID(uuid.NewString())
}

// Kind classifies what an asset's bytes contain. Prefab instantiation
// type-checks the referenced asset against the expected kind.
type Kind string

const (
	KindMesh     Kind = "mesh"
	KindTexture  Kind = "texture"
	KindMaterial Kind = "material"
	KindSky      Kind = "sky"
	KindSound    Kind = "sound"
	KindPrefab   Kind = "prefab"
)

// Source says where an asset's bytes originate.
type Source string

const (
	// SourceLocal: bytes already live in the project's persistent store.
	SourceLocal Source = "local"
	// SourceRemote: bytes are fetched from URL.
	SourceRemote Source = "remote"
	// SourcePackage: bytes come from an installed provider package,
	// looked up by Provider + ProviderID.
	SourcePackage Source = "package"
)

// IndexEntry is the read-only metadata describing one asset id: what it
// is and where its bytes come from. Entries carry no blob data.
type IndexEntry struct {
	Name        string `json:"name,omitempty"`
	Kind        Kind   `json:"kind"`
	Source      Source `json:"source"`
	URL         string `json:"url,omitempty"`
	Provider    string `json:"provider,omitempty"`
	ProviderID  string `json:"providerId,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}
