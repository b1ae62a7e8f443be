// Package chunk implements the voxel/chunk data model, component A of the
// simulation core (spec.md §3.1-3.3, §4.1). A Chunk stores one 16xHx16
// column of voxels as a flat array, split into 16-tall sections so that
// sparse worlds stay cheap: an all-air section is never allocated.
//
// The calling conventions here (EnsureLight-style dirty flags, section
// indexing) follow the way the teacher's server/world.Column and its
// world/chunk package are driven from server/world/world.go, even though
// that package's source was not part of the retrieval pack and had to be
// rebuilt from its call sites.
package chunk

import (
	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
)

// SectionHeight is the number of Y layers in one section.
const SectionHeight = 16

// Chunk is one column of voxels, spanning the world's full height range,
// subdivided into fixed-height sections.
type Chunk struct {
	rnge cube.Range
	sections []*section

	// MeshDirty marks the column as needing remeshing (spec.md §4.2: "a
	// chunk tracks whether its mesh is stale").
	MeshDirty bool
	// LightDirty marks the column as needing a light recompute pass
	// (spec.md §4.3).
	LightDirty bool
}

// section is one SectionHeight-tall slab of the chunk. A nil *section is
// treated as entirely air; this keeps empty chunks near zero-cost.
type section struct {
	voxels [SectionHeight * cube.ChunkSize * cube.ChunkSize]voxel.Voxel
}

// New returns an empty (all-air) chunk spanning the given height range.
func New(rnge cube.Range) *Chunk {
	n := rnge.Height() / SectionHeight
	if rnge.Height()%SectionHeight != 0 {
		n++
	}
	return &Chunk{rnge: rnge, sections: make([]*section, n), MeshDirty: true, LightDirty: true}
}

// Range returns the chunk's height range.
func (c *Chunk) Range() cube.Range { return c.rnge }

func (c *Chunk) sectionIndex(y int) int { return (y - c.rnge.Min()) / SectionHeight }

func (c *Chunk) localY(y int) int { return (y - c.rnge.Min()) % SectionHeight }

// inBounds reports whether a local position falls within the chunk's stored
// volume.
func (c *Chunk) inBounds(p cube.LocalPos) bool {
	return p.X() >= 0 && p.X() < cube.ChunkSize &&
		p.Z() >= 0 && p.Z() < cube.ChunkSize &&
		p.Y() >= c.rnge.Min() && p.Y() <= c.rnge.Max()
}

// Voxel returns the voxel at the local position p. Positions outside the
// chunk's bounds return air rather than panicking, matching the registry's
// "total function" contract (spec.md §4.1).
func (c *Chunk) Voxel(p cube.LocalPos) voxel.Voxel {
	if !c.inBounds(p) {
		return voxel.Air
	}
	si := c.sectionIndex(p.Y())
	s := c.sections[si]
	if s == nil {
		return voxel.Air
	}
	return s.voxels[voxelIndex(p.X(), c.localY(p.Y()), p.Z())]
}

// SetVoxel writes v at the local position p, lazily allocating the backing
// section on first write. It does not itself mark the chunk dirty: callers
// that go through world.Store.SetVoxel get dirty tracking for free; this
// method is the low-level primitive used by chunk generation and decoding.
func (c *Chunk) SetVoxel(p cube.LocalPos, v voxel.Voxel) {
	if !c.inBounds(p) {
		return
	}
	si := c.sectionIndex(p.Y())
	s := c.sections[si]
	if s == nil {
		if v == voxel.Air {
			return
		}
		s = &section{}
		c.sections[si] = s
	}
	s.voxels[voxelIndex(p.X(), c.localY(p.Y()), p.Z())] = v
}

func voxelIndex(x, y, z int) int {
	// y-outer, z-middle, x-inner: fixes the iteration order used by the
	// mesher and lighting engine for determinism (spec.md §4.3's ordering
	// requirement generalises to every full-chunk scan).
	return (y*cube.ChunkSize+z)*cube.ChunkSize + x
}

// Each calls fn for every non-air voxel in the chunk, in a fixed y-outer,
// z-middle, x-inner order (spec.md §4.3).
func (c *Chunk) Each(fn func(p cube.LocalPos, v voxel.Voxel)) {
	for si, s := range c.sections {
		if s == nil {
			continue
		}
		baseY := c.rnge.Min() + si*SectionHeight
		for y := 0; y < SectionHeight; y++ {
			for z := 0; z < cube.ChunkSize; z++ {
				for x := 0; x < cube.ChunkSize; x++ {
					v := s.voxels[voxelIndex(x, y, z)]
					if v.ID == 0 {
						continue
					}
					fn(cube.LocalPos{x, baseY + y, z}, v)
				}
			}
		}
	}
}

// Empty reports whether every section of the chunk is unallocated (all air).
func (c *Chunk) Empty() bool {
	for _, s := range c.sections {
		if s != nil {
			return false
		}
	}
	return true
}

// HighestOpaque returns the Y of the highest non-air voxel in the column at
// local (x, z) for which opaque reports true, or rnge.Min()-1 if there is
// none.
func (c *Chunk) HighestOpaque(x, z int, opaque func(id uint16) bool) int {
	for si := len(c.sections) - 1; si >= 0; si-- {
		s := c.sections[si]
		if s == nil {
			continue
		}
		baseY := c.rnge.Min() + si*SectionHeight
		for y := SectionHeight - 1; y >= 0; y-- {
			v := s.voxels[voxelIndex(x, y, z)]
			if v.ID != 0 && opaque(v.ID) {
				return baseY + y
			}
		}
	}
	return c.rnge.Min() - 1
}
