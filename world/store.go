// Package world implements the chunk store (component A, spec.md §4.1), the
// sole mutation path for voxel state. The tick driver that wires the fluid,
// redstone and lighting subsystems together once per tick is in package
// engine.
//
// The store itself is a flat ChunkPos -> Chunk map with no stored
// back-references between chunks, per the Design Notes' "Neighbor graph vs.
// ownership" decision: all cross-chunk traversal goes through the store by
// position lookup. This mirrors the shape of the teacher's World/Column
// pair (see server/world/world.go) but drops its goroutine/transaction
// queue machinery, since spec.md §5 mandates a single-threaded tick driver
// with no suspension points.
package world

import (
	"log/slog"

	"github.com/0x4D44/voxelcore/block"
	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
	"github.com/0x4D44/voxelcore/world/chunk"
)

// Generator produces a freshly generated chunk for a position that has no
// persisted region entry yet. Terrain generation proper is out of scope
// (spec.md §1 treats it as an external collaborator); voxelcore only needs
// the seed+ChunkPos -> Chunk black box described there.
type Generator interface {
	Generate(seed int64, pos cube.ChunkPos) *chunk.Chunk
}

// Loader resolves a chunk from persistence, returning (nil, false) when no
// region entry exists for pos so the store can fall back to generation.
type Loader interface {
	LoadChunk(pos cube.ChunkPos) (*chunk.Chunk, bool, error)
}

// Saver persists a chunk back to region storage on unload or at an explicit
// save point (spec.md §4.6).
type Saver interface {
	SaveChunk(pos cube.ChunkPos, c *chunk.Chunk) error
}

// Store owns every loaded chunk and is the sole mutation path for voxel
// state (spec.md §4.1 contract: "set_voxel must be the sole mutation
// path").
type Store struct {
	log *slog.Logger
	rnge cube.Range
	registry block.Registry
	seed int64
	gen Generator
	loader Loader
	saver Saver

	chunks map[cube.ChunkPos]*chunk.Chunk

	// dirtyMesh and dirtyLight accumulate between ticks and are drained by
	// the tick driver (spec.md §4.8 step 3).
	dirtyMesh map[cube.ChunkPos]struct{}
	dirtyLight map[cube.ChunkPos]struct{}
}

// NewStore constructs an empty Store. log defaults to slog.Default() when
// nil, matching the teacher's server/conf.go Config.New() convention of
// resolving a default logger rather than requiring one.
func NewStore(rnge cube.Range, registry block.Registry, seed int64, gen Generator, loader Loader, saver Saver, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		log: log,
		rnge: rnge,
		registry: registry,
		seed: seed,
		gen: gen,
		loader: loader,
		saver: saver,
		chunks: make(map[cube.ChunkPos]*chunk.Chunk),
		dirtyMesh: make(map[cube.ChunkPos]struct{}),
		dirtyLight: make(map[cube.ChunkPos]struct{}),
	}
}

// Range returns the world's height range.
func (s *Store) Range() cube.Range { return s.rnge }

// Registry returns the block registry the store was constructed with.
func (s *Store) Registry() block.Registry { return s.registry }

// Seed returns the world seed used for chunk generation.
func (s *Store) Seed() int64 { return s.seed }

// Chunk returns the already-loaded chunk at pos, or nil if it isn't loaded.
// Callers that need generation-on-demand should use Load instead.
func (s *Store) Chunk(pos cube.ChunkPos) *chunk.Chunk {
	return s.chunks[pos]
}

// Load returns the chunk at pos, loading it from persistence or generating
// it on first request if it is not already resident (spec.md §3.7 "Chunk"
// lifecycle).
func (s *Store) Load(pos cube.ChunkPos) (*chunk.Chunk, error) {
	if c, ok := s.chunks[pos]; ok {
		return c, nil
	}
	if s.loader != nil {
		c, ok, err := s.loader.LoadChunk(pos)
		if err != nil {
			return nil, err
		}
		if ok {
			s.chunks[pos] = c
			return c, nil
		}
	}
	var c *chunk.Chunk
	if s.gen != nil {
		c = s.gen.Generate(s.seed, pos)
	} else {
		c = chunk.New(s.rnge)
	}
	s.chunks[pos] = c
	return c, nil
}

// Unload removes pos from the resident set, optionally persisting it first.
// A nil Saver (or persist=false) simply drops the in-memory chunk.
func (s *Store) Unload(pos cube.ChunkPos, persist bool) error {
	c, ok := s.chunks[pos]
	if !ok {
		return nil
	}
	if persist && s.saver != nil {
		if err := s.saver.SaveChunk(pos, c); err != nil {
			return err
		}
	}
	delete(s.chunks, pos)
	delete(s.dirtyMesh, pos)
	delete(s.dirtyLight, pos)
	return nil
}

// IterLoaded calls fn for every currently loaded chunk position. Iteration
// order is unspecified; callers needing determinism should sort the
// returned positions themselves (the tick driver does this when draining
// dirty sets, per spec.md §4.3's ordering requirement).
func (s *Store) IterLoaded(fn func(pos cube.ChunkPos, c *chunk.Chunk)) {
	for pos, c := range s.chunks {
		fn(pos, c)
	}
}

// Chunks exposes the store's resident chunk map directly so the tick
// driver can hand it to the light package's recomputation functions, which
// operate on a map[cube.ChunkPos]*chunk.Chunk rather than a Store. Mutating the map itself (not its chunks) is the
// caller's responsibility to avoid; the tick driver only ever reads keys
// and mutates chunk contents through it, never inserts or deletes entries.
func (s *Store) Chunks() map[cube.ChunkPos]*chunk.Chunk { return s.chunks }

// GetVoxel returns the voxel at the given block position, or voxel.Air if
// its chunk is not loaded.
func (s *Store) GetVoxel(pos cube.Pos) voxel.Voxel {
	c := s.chunks[pos.ChunkPos()]
	if c == nil {
		return voxel.Air
	}
	return c.Voxel(pos.LocalPos())
}

// VoxelAt implements the mesher's and lighting engine's world-sampling
// function signature: it returns (voxel, true) for any loaded position and
// (zero, false) for an unloaded one, letting callers distinguish "air" from
// "unknown" (spec.md §4.2: "If the function returns None, treat the
// neighbor as unknown").
func (s *Store) VoxelAt(pos cube.Pos) (voxel.Voxel, bool) {
	c := s.chunks[pos.ChunkPos()]
	if c == nil {
		return voxel.Voxel{}, false
	}
	return c.Voxel(pos.LocalPos()), true
}

// SetVoxel is the sole mutation path for voxel state (spec.md §4.1). It
// compares the old and new voxel and marks the owning chunk mesh-dirty
// and/or light-dirty accordingly. Out-of-world Y silently no-ops (spec.md
// §7 "set_voxel on out-of-world Y silently no-ops").
func (s *Store) SetVoxel(pos cube.Pos, v voxel.Voxel) {
	if pos.Y() < s.rnge.Min() || pos.Y() > s.rnge.Max() {
		return
	}
	cp := pos.ChunkPos()
	c := s.chunks[cp]
	if c == nil {
		return
	}
	lp := pos.LocalPos()
	old := c.Voxel(lp)
	if old == v {
		return
	}
	c.SetVoxel(lp, v)

	if old != v {
		s.markMeshDirty(cp)
	}
	if s.opacityOrEmissionChanged(old, v) {
		s.markLightDirty(cp)
	}
}

// opacityOrEmissionChanged reports whether a voxel change affects the
// lighting engine's inputs: opacity (derived from id via the registry) or
// block-light emission (spec.md §4.1 contract).
func (s *Store) opacityOrEmissionChanged(old, new voxel.Voxel) bool {
	if old.ID == new.ID {
		return false
	}
	oldD := s.registry.Descriptor(old.ID)
	newD := s.registry.Descriptor(new.ID)
	return oldD.Opaque != newD.Opaque || oldD.Emission != newD.Emission
}

func (s *Store) markMeshDirty(pos cube.ChunkPos) {
	s.dirtyMesh[pos] = struct{}{}
	if c := s.chunks[pos]; c != nil {
		c.MeshDirty = true
	}
}

func (s *Store) markLightDirty(pos cube.ChunkPos) {
	s.dirtyLight[pos] = struct{}{}
	if c := s.chunks[pos]; c != nil {
		c.LightDirty = true
	}
}

// DirtyMeshChunks returns (and clears) the set of chunk positions whose mesh
// has gone stale since the last drain (spec.md §4.8 step 3).
func (s *Store) DirtyMeshChunks() []cube.ChunkPos {
	out := make([]cube.ChunkPos, 0, len(s.dirtyMesh))
	for pos := range s.dirtyMesh {
		out = append(out, pos)
		if c := s.chunks[pos]; c != nil {
			c.MeshDirty = false
		}
	}
	s.dirtyMesh = make(map[cube.ChunkPos]struct{})
	return out
}

// DirtyLightChunks returns (and clears) the set of chunk positions needing a
// local light recomputation pass (spec.md §4.8 step 4).
func (s *Store) DirtyLightChunks() []cube.ChunkPos {
	out := make([]cube.ChunkPos, 0, len(s.dirtyLight))
	for pos := range s.dirtyLight {
		out = append(out, pos)
		if c := s.chunks[pos]; c != nil {
			c.LightDirty = false
		}
	}
	s.dirtyLight = make(map[cube.ChunkPos]struct{})
	return out
}

// MarkMeshDirty exposes mesh-dirty marking to callers outside SetVoxel (the
// lighting engine marks a chunk mesh-dirty too, since a light change alone
// must still trigger a remesh).
func (s *Store) MarkMeshDirty(pos cube.ChunkPos) { s.markMeshDirty(pos) }

// MarkLightDirty exposes light-dirty marking to callers outside SetVoxel.
// The fluid and redstone simulators do not call it: they keep their own
// light-dirty sets, which the tick driver drains alongside the store's.
func (s *Store) MarkLightDirty(pos cube.ChunkPos) { s.markLightDirty(pos) }
