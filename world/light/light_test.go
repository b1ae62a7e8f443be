package light

import (
	"testing"

	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/world/chunk"
)

type fakeOpacity struct{}

func (fakeOpacity) Opaque(id uint16) bool   { return id == 1 }
func (fakeOpacity) Emission(id uint16) uint8 { return 0 }

func TestInitSkylightFloorsColumnAt15(t *testing.T) {
	c := chunk.New(cube.DefaultRange)
	InitSkylight(c, cube.ChunkPos{0, 0}, fakeOpacity{})

	v := c.Voxel(cube.LocalPos{8, 64, 8})
	if v.LightSky != 15 {
		t.Fatalf("LightSky = %d, want 15 (S4)", v.LightSky)
	}
}

func TestAddBlockLightDecaysByOne(t *testing.T) {
	c := chunk.New(cube.DefaultRange)
	AddBlockLight(c, cube.ChunkPos{0, 0}, cube.LocalPos{8, 64, 8}, 15, fakeOpacity{})

	if got := c.Voxel(cube.LocalPos{8, 64, 8}).LightBlock; got != 15 {
		t.Fatalf("source LightBlock = %d, want 15 (S5)", got)
	}
	if got := c.Voxel(cube.LocalPos{9, 64, 8}).LightBlock; got != 14 {
		t.Fatalf("neighbor LightBlock = %d, want 14 (S5)", got)
	}
}

func TestRemoveBlockLightClearsRegion(t *testing.T) {
	c := chunk.New(cube.DefaultRange)
	AddBlockLight(c, cube.ChunkPos{0, 0}, cube.LocalPos{8, 64, 8}, 15, fakeOpacity{})
	RemoveBlockLight(c, cube.ChunkPos{0, 0}, cube.LocalPos{8, 64, 8}, fakeOpacity{})

	if got := c.Voxel(cube.LocalPos{8, 64, 8}).LightBlock; got != 0 {
		t.Fatalf("source LightBlock after removal = %d, want 0 (S6)", got)
	}
	if got := c.Voxel(cube.LocalPos{9, 64, 8}).LightBlock; got != 0 {
		t.Fatalf("neighbor LightBlock after removal = %d, want 0 (S6)", got)
	}
}

func TestRemoveBlockLightPreservesOtherSustainedSource(t *testing.T) {
	// The two-phase reverse-BFS removal must not erase light that is still
	// sustained by a second, independent source (spec.md §9 "Removal BFS
	// for block-light": naive subtract-then-propagate loses sustained
	// regions).
	c := chunk.New(cube.DefaultRange)
	AddBlockLight(c, cube.ChunkPos{0, 0}, cube.LocalPos{4, 64, 8}, 15, fakeOpacity{})
	AddBlockLight(c, cube.ChunkPos{0, 0}, cube.LocalPos{12, 64, 8}, 15, fakeOpacity{})

	RemoveBlockLight(c, cube.ChunkPos{0, 0}, cube.LocalPos{4, 64, 8}, fakeOpacity{})

	if got := c.Voxel(cube.LocalPos{12, 64, 8}).LightBlock; got != 15 {
		t.Fatalf("surviving source's own level = %d, want 15", got)
	}
	if got := c.Voxel(cube.LocalPos{11, 64, 8}).LightBlock; got != 14 {
		t.Fatalf("surviving source's neighbor = %d, want 14", got)
	}
}
