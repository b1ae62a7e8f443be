package world

import (
	"testing"

	"github.com/0x4D44/voxelcore/block"
	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	registry := block.NewDefaultRegistry()
	s := NewStore(cube.DefaultRange, registry, 0, nil, nil, nil, nil)
	if _, err := s.Load(cube.ChunkPos{0, 0}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestSetVoxelMarksMeshDirty(t *testing.T) {
	s := newTestStore(t)
	s.DirtyMeshChunks() // start from empty dirty sets
	s.DirtyLightChunks()

	s.SetVoxel(cube.Pos{1, 1, 1}, voxel.Voxel{ID: block.Stone})

	dirty := s.DirtyMeshChunks()
	if len(dirty) != 1 || dirty[0] != (cube.ChunkPos{0, 0}) {
		t.Fatalf("DirtyMeshChunks() = %v, want [{0 0}]", dirty)
	}
}

func TestSetVoxelMarksLightDirtyOnOpacityChange(t *testing.T) {
	s := newTestStore(t)
	s.DirtyLightChunks()

	s.SetVoxel(cube.Pos{1, 1, 1}, voxel.Voxel{ID: block.Stone})
	if dirty := s.DirtyLightChunks(); len(dirty) != 1 {
		t.Fatalf("expected light-dirty after an opacity-changing write, got %v", dirty)
	}

	s.DirtyMeshChunks()
	s.DirtyLightChunks()
	// Rewriting the same id with a different state must not affect opacity,
	// so no light-dirty mark should follow (but mesh still goes dirty).
	v := voxel.Voxel{ID: block.Stone}
	v.SetWaterlogged(true)
	s.SetVoxel(cube.Pos{1, 1, 1}, v)
	if dirty := s.DirtyLightChunks(); len(dirty) != 0 {
		t.Fatalf("a waterlog-only change must not mark light dirty, got %v", dirty)
	}
	if dirty := s.DirtyMeshChunks(); len(dirty) != 1 {
		t.Fatalf("a voxel change must still mark mesh dirty, got %v", dirty)
	}
}

func TestSetVoxelOutOfWorldYNoOps(t *testing.T) {
	s := newTestStore(t)
	s.SetVoxel(cube.Pos{0, 10000, 0}, voxel.Voxel{ID: block.Stone})
	if got := s.GetVoxel(cube.Pos{0, 10000, 0}); got != voxel.Air {
		t.Fatalf("out-of-world Y write should silently no-op, got %v", got)
	}
}

func TestGetVoxelUnloadedChunkIsAir(t *testing.T) {
	s := newTestStore(t)
	if got := s.GetVoxel(cube.Pos{1000, 1, 1000}); got != voxel.Air {
		t.Fatalf("unloaded chunk should read as air, got %v", got)
	}
	if _, ok := s.VoxelAt(cube.Pos{1000, 1, 1000}); ok {
		t.Fatalf("VoxelAt on an unloaded chunk should report ok=false")
	}
}
