package prefab

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"scene-editor/internal/scene"
)

const degToRad = math32.Pi / 180
const radToDeg = 180 / math32.Pi

// singularEps: below this |det| a matrix is treated as singular and its
// inverse replaced with identity instead of dividing by zero.
const singularEps = 1e-8

// gimbalEps: |sin(y)| beyond this means the XYZ Euler extraction is at
// gimbal lock and the z angle is folded into x.
const gimbalEps = 0.9999999

// localMatrix composes a node's TRS into a matrix. Rotation is Euler
// XYZ in degrees, applied as Rx*Ry*Rz on column vectors.
func localMatrix(n *scene.Node) mgl32.Mat4 {
	rot := mgl32.HomogRotate3DX(n.Rotation[0] * degToRad).
		Mul4(mgl32.HomogRotate3DY(n.Rotation[1] * degToRad)).
		Mul4(mgl32.HomogRotate3DZ(n.Rotation[2] * degToRad))
	t := mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	s := mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	return t.Mul4(rot).Mul4(s)
}

// worldMatrix composes n's transform through its live parent chain.
func worldMatrix(n *scene.Node) mgl32.Mat4 {
	m := localMatrix(n)
	for p := n.Parent(); p != nil; p = p.Parent() {
		m = localMatrix(p).Mul4(m)
	}
	return m
}

// safeInv inverts m, falling back to identity when m is singular.
func safeInv(m mgl32.Mat4) mgl32.Mat4 {
	if math32.Abs(m.Det()) < singularEps {
		return mgl32.Ident4()
	}
	return m.Inv()
}

// finiteOr replaces NaN/Inf with the fallback. Upstream math on
// degenerate transforms must never leak non-finite numbers into a
// saved document.
func finiteOr(v, fallback float32) float32 {
	if math32.IsNaN(v) || math32.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp1(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// decompose splits m into translation, Euler XYZ rotation (degrees) and
// non-uniform scale. Values are sanitized to finite numbers: position
// and rotation fall back to 0, scale to 1.
func decompose(m mgl32.Mat4) (pos, rot, scl scene.Vec3) {
	pos = scene.Vec3{
		finiteOr(m.At(0, 3), 0),
		finiteOr(m.At(1, 3), 0),
		finiteOr(m.At(2, 3), 0),
	}

	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	// A negative determinant means one axis is mirrored; carry the sign
	// on X by convention.
	if m.Det() < 0 {
		sx = -sx
	}
	scl = scene.Vec3{finiteOr(sx, 1), finiteOr(sy, 1), finiteOr(sz, 1)}

	if scl[0] == 0 || scl[1] == 0 || scl[2] == 0 {
		return pos, scene.Vec3{}, scl
	}
	r := func(row, col int) float32 {
		return m.At(row, col) / scl[col]
	}
	sinY := clamp1(r(0, 2))
	y := math32.Asin(sinY)
	var x, z float32
	if math32.Abs(sinY) < gimbalEps {
		x = math32.Atan2(-r(1, 2), r(2, 2))
		z = math32.Atan2(-r(0, 1), r(0, 0))
	} else {
		x = math32.Atan2(r(2, 1), r(1, 1))
		z = 0
	}
	rot = scene.Vec3{
		finiteOr(x*radToDeg, 0),
		finiteOr(y*radToDeg, 0),
		finiteOr(z*radToDeg, 0),
	}
	return pos, rot, scl
}

// Bake rewrites a subtree's transforms from world space into
// prefab-root-relative local space. root must currently live inside a
// positioned tree (its parent chain is the live composition path); the
// returned copy reproduces the same world-space geometry when
// instantiated under an identity parent. The root itself bakes to the
// identity transform.
func Bake(root *scene.Node) (*scene.Node, error) {
	out, err := cloneTree(root)
	if err != nil {
		return nil, err
	}
	invRoot := safeInv(worldMatrix(root))

	var rec func(src, dst *scene.Node, parentRel mgl32.Mat4)
	rec = func(src, dst *scene.Node, parentRel mgl32.Mat4) {
		// World matrices compose through the live tree, not through the
		// copy being built, so upstream shear/scale is resolved per node.
		rel := invRoot.Mul4(worldMatrix(src))
		local := safeInv(parentRel).Mul4(rel)
		dst.Position, dst.Rotation, dst.Scale = decompose(local)
		for i, c := range src.Children {
			rec(c, dst.Children[i], rel)
		}
	}
	rec(root, out, mgl32.Ident4())
	return out, nil
}
