package scene

import (
	"fmt"
	"sync"
)

// PatchKind says what a patch event changed.
type PatchKind string

const (
	PatchInsert PatchKind = "insert"
	PatchRemove PatchKind = "remove"
	PatchUpdate PatchKind = "update"
	PatchSelect PatchKind = "select"
)

// Patch is one tree-mutation notification delivered to store listeners.
type Patch struct {
	Kind     PatchKind
	NodeID   string
	ParentID string
	Index    int
}

// Op is one history entry: enough to describe an insert/remove for undo
// purposes. The prefab engine only captures ops; replaying them is the
// history system's concern.
type Op struct {
	Label    string
	Kind     PatchKind
	NodeID   string
	ParentID string
	Index    int
}

// Listener is a registered patch callback. Stop unregisters it; calling
// Stop more than once is harmless.
type Listener struct {
	id    int
	store *Store
}

// Stop unregisters the listener from its store.
func (l *Listener) Stop() {
	if l == nil || l.store == nil {
		return
	}
	l.store.mu.Lock()
	delete(l.store.listeners, l.id)
	l.store.mu.Unlock()
	l.store = nil
}

// Store owns one scene tree and is the only path through which the
// prefab engine mutates it. The mutex serializes every access to the
// tree, index, history and selection: async download callbacks push
// placeholder progress through Update concurrently with each other and
// with the editor's own mutations. Listeners are notified outside the
// lock and always after the mutation is visible.
type Store struct {
	mu        sync.Mutex
	root      *Node
	index     map[string]*Node
	history   []Op
	selection []string
	listeners map[int]func(Patch)
	nextID    int
}

// NewStore returns a store owning a fresh empty group root.
func NewStore() *Store {
	root := NewNode(TypeGroup)
	root.Name = "Scene"
	s := &Store{
		root:      root,
		index:     map[string]*Node{root.ID: root},
		listeners: make(map[int]func(Patch)),
	}
	return s
}

// NewStoreWithRoot returns a store owning the given tree. Node ids must
// already be unique within the tree.
func NewStoreWithRoot(root *Node) (*Store, error) {
	s := &Store{
		root:      root,
		index:     make(map[string]*Node),
		listeners: make(map[int]func(Patch)),
	}
	root.FixParents()
	var dup string
	root.Walk(func(n *Node) bool {
		if _, ok := s.index[n.ID]; ok {
			dup = n.ID
			return false
		}
		s.index[n.ID] = n
		return true
	})
	if dup != "" {
		return nil, fmt.Errorf("scene: duplicate node id %s", dup)
	}
	return s, nil
}

// Root returns the tree root. The pointer never changes over the
// store's lifetime.
func (s *Store) Root() *Node { return s.root }

// Lookup returns the node with the given id, or nil.
func (s *Store) Lookup(id string) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index[id]
}

// Len returns the number of nodes in the tree.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Insert attaches node (and its whole subtree) under the parent with
// parentID, at child index i (out of range appends). Fails if the
// parent is unknown or any subtree id collides with an existing node.
func (s *Store) Insert(parentID string, node *Node, i int) error {
	s.mu.Lock()
	parent := s.index[parentID]
	if parent == nil {
		s.mu.Unlock()
		return fmt.Errorf("scene: insert: parent %s not found", parentID)
	}
	var dup string
	node.Walk(func(n *Node) bool {
		if _, ok := s.index[n.ID]; ok {
			dup = n.ID
			return false
		}
		return true
	})
	if dup != "" {
		s.mu.Unlock()
		return fmt.Errorf("scene: insert: id %s already in tree", dup)
	}
	parent.AttachAt(node, i)
	node.FixParents()
	node.Walk(func(n *Node) bool {
		s.index[n.ID] = n
		return true
	})
	s.mu.Unlock()
	s.notify(Patch{Kind: PatchInsert, NodeID: node.ID, ParentID: parentID, Index: i})
	return nil
}

// Remove detaches the node with the given id from the tree and drops
// its whole subtree from the index. The root cannot be removed.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	node := s.index[id]
	if node == nil {
		s.mu.Unlock()
		return fmt.Errorf("scene: remove: node %s not found", id)
	}
	if node == s.root {
		s.mu.Unlock()
		return fmt.Errorf("scene: remove: cannot remove root")
	}
	parent := node.parent
	i := parent.Detach(node)
	node.Walk(func(n *Node) bool {
		delete(s.index, n.ID)
		return true
	})
	s.mu.Unlock()
	s.notify(Patch{Kind: PatchRemove, NodeID: id, ParentID: parent.ID, Index: i})
	return nil
}

// Update applies fn to the node with the given id and emits an update
// patch. fn runs under the store lock; concurrent updates to the same
// node are serialized, which is what lets async download tasks push
// placeholder progress without coordinating with each other.
func (s *Store) Update(id string, fn func(*Node)) error {
	s.mu.Lock()
	node := s.index[id]
	if node == nil {
		s.mu.Unlock()
		return fmt.Errorf("scene: update: node %s not found", id)
	}
	fn(node)
	s.mu.Unlock()
	s.notify(Patch{Kind: PatchUpdate, NodeID: id})
	return nil
}

// Select replaces the current selection.
func (s *Store) Select(ids ...string) {
	s.mu.Lock()
	s.selection = append(s.selection[:0], ids...)
	s.mu.Unlock()
	for _, id := range ids {
		s.notify(Patch{Kind: PatchSelect, NodeID: id})
	}
}

// Selection returns the currently selected node ids.
func (s *Store) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.selection))
	copy(out, s.selection)
	return out
}

// Snapshot records a history op (e.g. the insert of a placeholder, so
// undo can remove it).
func (s *Store) Snapshot(op Op) {
	s.mu.Lock()
	s.history = append(s.history, op)
	s.mu.Unlock()
}

// History returns the recorded ops, oldest first.
func (s *Store) History() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Op, len(s.history))
	copy(out, s.history)
	return out
}

// Subscribe registers fn to receive every patch. The returned listener
// must be stopped when no longer needed.
func (s *Store) Subscribe(fn func(Patch)) *Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return &Listener{id: id, store: s}
}

func (s *Store) notify(p Patch) {
	s.mu.Lock()
	fns := make([]func(Patch), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}
