package prefab

import (
	"fmt"

	"scene-editor/internal/asset"
)

// FormatError means a prefab document could not be decoded: bad JSON, a
// missing or mismatched format version, or a missing/malformed root.
// It is fatal for the load; the caller decides messaging.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "prefab: invalid format: " + e.Reason
}

// NotFoundError means the referenced prefab asset does not exist in the
// catalog. Raised before any cache I/O.
type NotFoundError struct {
	ID asset.ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("prefab: asset %s not found", e.ID)
}

// TypeMismatchError means the referenced asset exists but is not a
// prefab. Raised before any cache I/O.
type TypeMismatchError struct {
	ID   asset.ID
	Want asset.Kind
	Got  asset.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("prefab: asset %s is %s, expected %s", e.ID, e.Got, e.Want)
}
