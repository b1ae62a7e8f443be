// Package cube holds the coordinate and orientation types shared by every
// other package in voxelcore: block positions, chunk positions, faces and
// axes. It mirrors the role the teacher's server/block/cube package plays,
// but is scoped to exactly what the simulation core needs.
package cube

import "github.com/go-gl/mathgl/mgl64"

// Pos represents the position of a block within a world. It is an array of
// three ints, indexed as x, y, z (in that order).
type Pos [3]int

// X returns the X coordinate of the position.
func (p Pos) X() int { return p[0] }

// Y returns the Y coordinate of the position.
func (p Pos) Y() int { return p[1] }

// Z returns the Z coordinate of the position.
func (p Pos) Z() int { return p[2] }

// Side returns the position of the block directly adjacent to p on the face
// passed.
func (p Pos) Side(face Face) Pos {
	switch face {
	case FaceDown:
		return Pos{p[0], p[1] - 1, p[2]}
	case FaceUp:
		return Pos{p[0], p[1] + 1, p[2]}
	case FaceNorth:
		return Pos{p[0], p[1], p[2] - 1}
	case FaceSouth:
		return Pos{p[0], p[1], p[2] + 1}
	case FaceWest:
		return Pos{p[0] - 1, p[1], p[2]}
	case FaceEast:
		return Pos{p[0] + 1, p[1], p[2]}
	}
	return p
}

// Add returns the sum of p and a.
func (p Pos) Add(a Pos) Pos {
	return Pos{p[0] + a[0], p[1] + a[1], p[2] + a[2]}
}

// Vec3Centre returns the position as a mgl64.Vec3, centred within the block.
func (p Pos) Vec3Centre() mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]) + 0.5, float64(p[1]) + 0.5, float64(p[2]) + 0.5}
}

// Vec3 returns the position as a mgl64.Vec3 at the block's minimum corner.
func (p Pos) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
}

// Range represents the height range of a world/dimension, from Min() to
// Max() inclusive.
type Range [2]int

// Min returns the lowest Y value the range covers.
func (r Range) Min() int { return r[0] }

// Max returns the highest Y value the range covers.
func (r Range) Max() int { return r[1] }

// Height returns the total number of Y layers in the range.
func (r Range) Height() int { return r[1] - r[0] + 1 }

// DefaultRange is the height range used by the engine's single supported
// dimension (spec.md §3.2: Y = 256).
var DefaultRange = Range{0, 255}
