package scene

import (
	"github.com/google/uuid"

	"scene-editor/internal/asset"
)

// Vec3 is a position/rotation/scale triple. Rotation is Euler XYZ in
// degrees; scale components are per-axis multipliers.
type Vec3 [3]float32

// NodeType tags what a scene node is. Group nodes carry no asset of
// their own; their transform applies to all children.
type NodeType string

const (
	TypeGroup  NodeType = "group"
	TypeMesh   NodeType = "mesh"
	TypeLight  NodeType = "light"
	TypeSky    NodeType = "sky"
	TypeCamera NodeType = "camera"
	TypeText   NodeType = "text"
)

// DownloadStatus is the placeholder-node download state shown to the
// user while a spawned prefab streams in.
type DownloadStatus string

const (
	DownloadPending DownloadStatus = "downloading"
	DownloadReady   DownloadStatus = "ready"
	DownloadErrored DownloadStatus = "error"
)

// BehaviorStep is one step of a node's scripted behavior (move, rotate,
// wait, ...). Step ids are regenerated together with node ids when a
// prefab is instantiated so no two live steps share identity.
type BehaviorStep struct {
	ID       string             `json:"id"`
	Action   string             `json:"action"`
	Params   map[string]float64 `json:"params,omitempty"`
	Duration float64            `json:"duration,omitempty"`
}

// DynamicMesh is inline geometry authored in the editor rather than
// referenced from the asset catalog. Material slots still reference
// catalog assets, so dependency collection has to look inside.
type DynamicMesh struct {
	Vertices  []Vec3       `json:"vertices"`
	Normals   []Vec3       `json:"normals,omitempty"`
	UVs       [][2]float32 `json:"uvs,omitempty"`
	Indices   []uint32     `json:"indices"`
	Materials []asset.ID   `json:"materials,omitempty"`
}

// Node is a single scene-tree node. A node is owned by exactly one tree
// at a time; its id is unique within that tree. The Locked, Placeholder
// and Download* fields are runtime/editor state: they are saved with a
// scene but stripped from prefab documents.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Name     string   `json:"name,omitempty"`
	Position Vec3     `json:"position"`
	Rotation Vec3     `json:"rotation"`
	Scale    Vec3     `json:"scale"`
	Children []*Node  `json:"children,omitempty"`

	MeshID     asset.ID `json:"meshId,omitempty"`
	TextureID  asset.ID `json:"textureId,omitempty"`
	MaterialID asset.ID `json:"materialId,omitempty"`
	SkyID      asset.ID `json:"skyId,omitempty"`
	// PrefabID links an instantiated node back to its source prefab
	// asset. Stripped at instantiate time unless the caller asks to
	// keep the link.
	PrefabID asset.ID `json:"prefabId,omitempty"`

	DynamicMesh *DynamicMesh   `json:"dynamicMesh,omitempty"`
	Behavior    []BehaviorStep `json:"behavior,omitempty"`
	UserData    map[string]any `json:"userData,omitempty"`

	Locked bool `json:"locked,omitempty"`

	Placeholder      bool           `json:"placeholder,omitempty"`
	DownloadStatus   DownloadStatus `json:"downloadStatus,omitempty"`
	DownloadProgress int            `json:"downloadProgress,omitempty"`
	DownloadError    string         `json:"downloadError,omitempty"`

	parent *Node
}

// NewNode returns a node of the given type with a fresh id and unit scale.
func NewNode(typ NodeType) *Node {
	return &Node{
		ID:    uuid.NewString(),
		Type:  typ,
		Scale: Vec3{1, 1, 1},
	}
}

// Parent returns the node's parent within its current tree, or nil for
// a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// IsGroup reports whether the node is a pure grouping node.
func (n *Node) IsGroup() bool { return n.Type == TypeGroup }

// Walk visits n and every descendant in depth-first order. Returning
// false from fn stops descending into that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the node with the given id within n's subtree, or nil.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in n's subtree, including n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node) bool { total++; return true })
	return total
}

// Attach appends child to n and fixes its parent pointer. The caller is
// responsible for detaching the child from any previous tree first.
func (n *Node) Attach(child *Node) {
	child.parent = n
	n.Children = append(n.Children, child)
}

// AttachAt inserts child at index i among n's children. Out-of-range
// indices append.
func (n *Node) AttachAt(child *Node, i int) {
	if i < 0 || i > len(n.Children) {
		n.Attach(child)
		return
	}
	child.parent = n
	n.Children = append(n.Children[:i], append([]*Node{child}, n.Children[i:]...)...)
}

// Detach removes child from n's children and clears its parent pointer.
// Returns the index it was removed from, or -1 if child was not a child
// of n.
func (n *Node) Detach(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.parent = nil
			return i
		}
	}
	return -1
}

// FixParents rewrites parent pointers throughout n's subtree. Needed
// after deserialization or cloning, where only the child lists survive.
func (n *Node) FixParents() {
	for _, c := range n.Children {
		c.parent = n
		c.FixParents()
	}
}
