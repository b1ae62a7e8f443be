// Package mesh implements the greedy chunk mesher, component F of the
// simulation core (spec.md §4.6). It turns a chunk's voxel grid into a flat
// vertex/index buffer plus a stable content hash, re-run whenever a chunk
// leaves the mesh-dirty set (spec.md §4.8 step 5).
//
// The axis-slice sweep, per-cell face-selection rule and maximal-rectangle
// merge are a direct port of original_source/crates/render/src/mesh.rs's
// GreedyMesher; the packed-vertex layout follows
// Leterax-go-voxels/pkg/voxel/mesh.go's Vertex/mgl32.Vec3 shape rather than
// the original's repr(C) struct, since voxelcore has no GPU buffer target of
// its own to lay out bytes for (spec.md scopes rendering itself out).
package mesh

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/0x4D44/voxelcore/block"
	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
	"github.com/0x4D44/voxelcore/world/chunk"
)

// Vertex is one corner of an emitted quad.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	BlockID  uint16
	Light    uint8
}

// Hash is the 256-bit stable content digest of a mesh's vertex and index
// buffers (spec.md §4.6: "content hash ... must be stable across identical
// input").
type Hash [32]byte

// Buffers is the mesher's output for a single chunk.
type Buffers struct {
	Vertices []Vertex
	Indices  []uint32
	Hash     Hash
}

// VoxelAt samples a voxel at world-block coordinates, returning false for
// unknown positions (outside the loaded set). Every connectivity-driven
// special case (panes, bars, fences, walls, redstone wire) uses this to see
// across chunk boundaries, mirroring original_source's voxel_at_world
// closure.
type VoxelAt func(pos cube.Pos) (voxel.Voxel, bool)

type builder struct {
	registry block.Registry
	vertices []Vertex
	indices  []uint32
}

func newBuilder(registry block.Registry) *builder {
	return &builder{registry: registry, vertices: make([]Vertex, 0, 1024), indices: make([]uint32, 0, 1536)}
}

func (b *builder) pushQuad(blockID uint16, normal mgl32.Vec3, corners [4]mgl32.Vec3, normalPositive bool, light uint8) {
	base := uint32(len(b.vertices))
	uvs := resolveUVs(blockID)
	for i, c := range corners {
		b.vertices = append(b.vertices, Vertex{Position: c, Normal: normal, UV: uvs[i], BlockID: blockID, Light: light})
	}
	if normalPositive {
		b.indices = append(b.indices, base, base+1, base+2, base, base+2, base+3)
	} else {
		b.indices = append(b.indices, base, base+2, base+1, base, base+3, base+2)
	}
}

// resolveUVs falls back to a flat 16x16 atlas index keyed by block id, since
// voxelcore carries no texture-atlas metadata of its own (spec.md scopes
// rendering/atlas packing out; only the geometry and hash are load-bearing).
func resolveUVs(blockID uint16) [4]mgl32.Vec2 {
	const atlasSize = 16.0
	x := float32(blockID%16) / atlasSize
	y := float32(blockID/16) / atlasSize
	s := float32(1) / atlasSize
	return [4]mgl32.Vec2{{x, y}, {x + s, y}, {x + s, y + s}, {x, y + s}}
}

func (b *builder) finish() Buffers {
	h := sha256.New()
	var buf [4]byte
	for _, v := range b.vertices {
		for _, f := range [...]float32{v.Position[0], v.Position[1], v.Position[2], v.Normal[0], v.Normal[1], v.Normal[2]} {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
			h.Write(buf[:])
		}
		binary.LittleEndian.PutUint16(buf[:2], v.BlockID)
		h.Write(buf[:2])
		h.Write([]byte{v.Light})
	}
	for _, idx := range b.indices {
		binary.LittleEndian.PutUint32(buf[:], idx)
		h.Write(buf[:])
	}
	var sum Hash
	copy(sum[:], h.Sum(nil))
	return Buffers{Vertices: b.vertices, Indices: b.indices, Hash: sum}
}

// Mesh greedy-meshes a chunk into render buffers. voxelAt samples beyond the
// chunk's own bounds for every connectivity-driven special case (glass
// panes, iron bars, fences, walls, redstone wire) so their geometry sees
// across chunk seams; it may be nil, in which case those classes render as
// if every chunk-crossing neighbour were absent.
func Mesh(c *chunk.Chunk, chunkPos cube.ChunkPos, registry block.Registry, voxelAt VoxelAt) Buffers {
	b := newBuilder(registry)
	greedyMesh(c, b)
	meshGlassPanes(c, chunkPos, b, voxelAt)
	meshFences(c, chunkPos, b, voxelAt)
	meshWalls(c, chunkPos, b, voxelAt)
	meshSlabs(c, b)
	meshStairs(c, b)
	meshTorches(c, b)
	meshCrops(c, b)
	meshRedstoneWires(c, chunkPos, b, voxelAt)
	return b.finish()
}

const chunkSize = 16

func axisSize(rnge cube.Range, axis int) int {
	if axis == 1 {
		return rnge.Height()
	}
	return chunkSize
}

// faceDesc is the per-cell payload carried by the greedy-merge mask: a
// block id, outward normal and light level. Two adjacent cells merge only
// when their faceDesc compares equal, exactly as original_source's
// FaceDesc PartialEq does.
type faceDesc struct {
	blockID uint16
	normal  [3]int8
	light   uint8
}

func newFaceDesc(blockID uint16, axis int, positive bool, light uint8) faceDesc {
	var n [3]int8
	if positive {
		n[axis] = 1
	} else {
		n[axis] = -1
	}
	return faceDesc{blockID: blockID, normal: n, light: light}
}

// greedyMesh performs the axis-slice sweep and maximal-rectangle merge
// described in spec.md §4.6, one direct port of GreedyMesher::mesh.
func greedyMesh(c *chunk.Chunk, b *builder) {
	rnge := c.Range()
	sizes := [3]int{chunkSize, axisSize(rnge, 1), chunkSize}
	for axis := 0; axis < 3; axis++ {
		meshAxis(c, rnge, b, axis, sizes)
	}
}

func meshAxis(c *chunk.Chunk, rnge cube.Range, b *builder, axis int, sizes [3]int) {
	uAxis := (axis + 1) % 3
	vAxis := (axis + 2) % 3
	width, height := sizes[uAxis], sizes[vAxis]
	mask := make([]*faceDesc, width*height)

	sampleAt := func(a, u, v int) voxel.Voxel {
		var pos [3]int
		pos[axis], pos[uAxis], pos[vAxis] = a, u, v
		x, y, z := pos[0], pos[1]+rnge.Min(), pos[2]
		return c.Voxel(cube.LocalPos{x, y, z})
	}

	for slice := 0; slice <= sizes[axis]; slice++ {
		for j := 0; j < height; j++ {
			for i := 0; i < width; i++ {
				mask[j*width+i] = sampleFace(b.registry, sampleAt, sizes[axis], axis, slice, i, j)
			}
		}

		for j := 0; j < height; {
			for i := 0; i < width; {
				idx := j*width + i
				cell := mask[idx]
				if cell == nil {
					i++
					continue
				}
				quadWidth := 1
				for i+quadWidth < width && faceEq(mask[j*width+i+quadWidth], cell) {
					quadWidth++
				}
				quadHeight := 1
			scan:
				for j+quadHeight < height {
					for k := 0; k < quadWidth; k++ {
						if !faceEq(mask[(j+quadHeight)*width+i+k], cell) {
							break scan
						}
					}
					quadHeight++
				}
				emitQuad(b, axis, uAxis, vAxis, slice, i, j, quadWidth, quadHeight, *cell)
				for dy := 0; dy < quadHeight; dy++ {
					for dx := 0; dx < quadWidth; dx++ {
						mask[(j+dy)*width+i+dx] = nil
					}
				}
				i += quadWidth
			}
			j++
		}
	}
}

func faceEq(a, b *faceDesc) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// sampleFace implements the opaque/transparent face-selection rule of
// spec.md §4.6: render a face wherever an opaque cell borders a non-opaque
// one, or a transparent solid borders air, with edge-of-chunk cells always
// facing "outside".
func sampleFace(registry block.Registry, sampleAt func(a, u, v int) voxel.Voxel, axisLen, axis, slice, u, v int) *faceDesc {
	var front, back *voxel.Voxel
	if slice < axisLen {
		f := sampleAt(slice, u, v)
		front = &f
	}
	if slice > 0 {
		bk := sampleAt(slice-1, u, v)
		back = &bk
	}

	switch {
	case front != nil && back != nil:
		aOpaque, bOpaque := isOpaque(*front, registry), isOpaque(*back, registry)
		aSolid, bSolid := isSolid(*front, registry), isSolid(*back, registry)
		switch {
		case aOpaque && !bOpaque:
			fd := newFaceDesc(front.ID, axis, false, front.Light())
			return &fd
		case bOpaque && !aOpaque:
			fd := newFaceDesc(back.ID, axis, true, back.Light())
			return &fd
		case aSolid && !aOpaque && !bSolid:
			fd := newFaceDesc(front.ID, axis, false, front.Light())
			return &fd
		case bSolid && !bOpaque && !aSolid:
			fd := newFaceDesc(back.ID, axis, true, back.Light())
			return &fd
		case aSolid && !aOpaque && bSolid && !bOpaque && front.ID != back.ID:
			fd := newFaceDesc(front.ID, axis, false, front.Light())
			return &fd
		}
		return nil
	case front != nil && isSolid(*front, registry):
		fd := newFaceDesc(front.ID, axis, false, front.Light())
		return &fd
	case back != nil && isSolid(*back, registry):
		fd := newFaceDesc(back.ID, axis, true, back.Light())
		return &fd
	}
	return nil
}

func isOpaque(v voxel.Voxel, registry block.Registry) bool {
	d := registry.Descriptor(v.ID)
	if d.TransparentSolid {
		return false
	}
	return d.Opaque
}

// isSolid reports whether v should occlude a greedy-mesh face. Pane/fence/
// wall classes are excluded: their geometry is cardinal-arm connectivity
// emitted by meshGlassPanes/meshFences/meshWalls, never a full cube face
// (spec.md §4.6's connectivity-driven classes).
func isSolid(v voxel.Voxel, registry block.Registry) bool {
	if v.ID == 0 {
		return false
	}
	return !registry.Descriptor(v.ID).Class.ConnectsLikeFence()
}

func emitQuad(b *builder, axis, uAxis, vAxis, slice, u, v, quadWidth, quadHeight int, cell faceDesc) {
	var origin, du, dv mgl32.Vec3
	origin[uAxis], origin[vAxis], origin[axis] = float32(u), float32(v), float32(slice)
	du[uAxis] = float32(quadWidth)
	dv[vAxis] = float32(quadHeight)

	v0 := origin
	v1 := origin.Add(du)
	v2 := origin.Add(du).Add(dv)
	v3 := origin.Add(dv)

	normal := mgl32.Vec3{float32(cell.normal[0]), float32(cell.normal[1]), float32(cell.normal[2])}
	b.pushQuad(cell.blockID, normal, [4]mgl32.Vec3{v0, v1, v2, v3}, cell.normal[axis] > 0, cell.light)
}
