package scene

// Spawn placement: find a clear spot near the origin for a newly
// instantiated prefab so it does not sit inside existing geometry.
// Overlap testing is plain AABB on position and scale; good enough for
// picking a drop point, not a physics query.

// box is an axis-aligned bounding box.
type box struct {
	min, max Vec3
}

// nodeBox returns the AABB for a node (center position, half extents
// from scale). Zero scale components count as 1 so flat or unset nodes
// still occupy space.
func nodeBox(pos, scale Vec3) box {
	sx, sy, sz := scale[0], scale[1], scale[2]
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	if sz == 0 {
		sz = 1
	}
	half := Vec3{sx * 0.5, sy * 0.5, sz * 0.5}
	return box{
		min: Vec3{pos[0] - half[0], pos[1] - half[1], pos[2] - half[2]},
		max: Vec3{pos[0] + half[0], pos[1] + half[1], pos[2] + half[2]},
	}
}

func overlaps(a, b box) bool {
	return a.min[0] < b.max[0] && a.max[0] > b.min[0] &&
		a.min[1] < b.max[1] && a.max[1] > b.min[1] &&
		a.min[2] < b.max[2] && a.max[2] > b.min[2]
}

// spawnStep is the XZ grid pitch used when probing spawn candidates.
const spawnStep = 2

// spawnMaxRing bounds the search; past this the origin is returned even
// if occupied.
const spawnMaxRing = 16

// FindSpawnPoint returns a position on the ground plane near the origin
// where a node with the given scale would not overlap any existing
// mesh/group node. Candidates are probed on an expanding ring pattern
// around the origin.
func (s *Store) FindSpawnPoint(scale Vec3) Vec3 {
	s.mu.Lock()
	occupied := make([]box, 0, len(s.index))
	s.root.Walk(func(n *Node) bool {
		if n == s.root {
			return true
		}
		if n.Type == TypeMesh || n.Type == TypeGroup {
			occupied = append(occupied, nodeBox(n.Position, n.Scale))
		}
		return true
	})
	s.mu.Unlock()
	clear := func(p Vec3) bool {
		candidate := nodeBox(p, scale)
		for _, b := range occupied {
			if overlaps(candidate, b) {
				return false
			}
		}
		return true
	}
	if clear(Vec3{}) {
		return Vec3{}
	}
	for ring := 1; ring <= spawnMaxRing; ring++ {
		r := float32(ring * spawnStep)
		for _, p := range []Vec3{
			{r, 0, 0}, {-r, 0, 0}, {0, 0, r}, {0, 0, -r},
			{r, 0, r}, {-r, 0, r}, {r, 0, -r}, {-r, 0, -r},
		} {
			if clear(p) {
				return p
			}
		}
	}
	return Vec3{}
}
