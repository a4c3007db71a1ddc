package prefab

import (
	"context"

	"github.com/google/uuid"

	"scene-editor/internal/asset"
	"scene-editor/internal/cache"
	"scene-editor/internal/resolver"
	"scene-editor/internal/scene"
)

// Env is the set of collaborators instantiation works against.
type Env struct {
	Catalog  *asset.Catalog
	Resolver *resolver.Resolver
	// Store, when set, is probed for a clear spawn point. Instantiate
	// never mutates it; inserting the result is the caller's job.
	Store *scene.Store
}

// InstantiateOptions control placement, identity and provenance of the
// instantiated subtree.
type InstantiateOptions struct {
	// ParentID is the id of the node the caller will attach the result
	// under. Non-empty means a
	// child spawn: the new node sits at the parent's origin unless an
	// explicit Position is given.
	ParentID string
	// Position places the root explicitly. Nil means computed placement.
	Position *scene.Vec3
	// ProgressKey keys the dependency set's progress aggregate.
	ProgressKey string
	// KeepIDs preserves node and behavior-step ids (round-trip save of
	// an already-placed node). Default is fresh ids everywhere.
	KeepIDs bool
	// LinkPrefab keeps the provenance link from the new root back to
	// SourceID. Default strips it.
	LinkPrefab bool
	// SourceID is the prefab asset the document came from.
	SourceID asset.ID
	// PackageDir is forwarded to the resolver's provider-package tier.
	PackageDir string
}

// CheckRef verifies that id names a prefab asset in the catalog. Both
// failure modes are fatal for the instantiate call and are raised
// before any cache I/O.
func CheckRef(cat *asset.Catalog, id asset.ID) error {
	entry, ok := cat.Lookup(id)
	if !ok {
		return &NotFoundError{ID: id}
	}
	if entry.Kind != asset.KindPrefab {
		return &TypeMismatchError{ID: id, Want: asset.KindPrefab, Got: entry.Kind}
	}
	return nil
}

// LoadCached decodes the prefab document for id from the content cache.
// The blob must already be cached (the resolver puts it there).
func LoadCached(c *cache.Cache, id asset.ID) (*Document, error) {
	data, err := c.Blob(id)
	if err != nil {
		return nil, err
	}
	return Deserialize(data)
}

// Instantiate clones doc into a fresh subtree ready for insertion:
// merges the document's embedded asset metadata into the catalog
// (existing entries always win), resolves the dependency set, clones
// the tree with regenerated identity, and applies spawn placement.
// Failed dependency downloads do not fail instantiation; they are
// reported in the resolver result and surface through the aggregate.
func Instantiate(ctx context.Context, doc *Document, env Env, opts InstantiateOptions) (*scene.Node, resolver.Result, error) {
	deps := Collect(doc.Root)
	depSet := CollectSet(doc.Root)

	if env.Catalog != nil {
		env.Catalog.Merge(doc.AssetIndex, depSet)
	}

	var res resolver.Result
	if env.Resolver != nil && len(deps) > 0 {
		var err error
		res, err = env.Resolver.EnsureAvailable(ctx, deps, resolver.Options{
			ProgressKey:   opts.ProgressKey,
			PackageDir:    opts.PackageDir,
			PackageAssets: doc.PackageAssetMap,
		})
		if err != nil {
			return nil, res, err
		}
	}

	root, err := cloneTree(doc.Root)
	if err != nil {
		return nil, res, err
	}
	if !opts.KeepIDs {
		regenerateIDs(root)
	}
	if opts.LinkPrefab {
		root.PrefabID = opts.SourceID
	} else {
		root.Walk(func(n *scene.Node) bool {
			n.PrefabID = ""
			return true
		})
	}

	switch {
	case opts.Position != nil:
		root.Position = *opts.Position
	case opts.ParentID != "" && (env.Store == nil || opts.ParentID != env.Store.Root().ID):
		root.Position = scene.Vec3{}
	case env.Store != nil:
		root.Position = env.Store.FindSpawnPoint(root.Scale)
	default:
		root.Position = scene.Vec3{}
	}

	return root, res, nil
}

// regenerateIDs issues fresh node and behavior-step ids throughout the
// subtree so it shares no identity with any existing node.
func regenerateIDs(root *scene.Node) {
	root.Walk(func(n *scene.Node) bool {
		n.ID = uuid.NewString()
		for i := range n.Behavior {
			n.Behavior[i].ID = uuid.NewString()
		}
		return true
	})
}
