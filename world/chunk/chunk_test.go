package chunk

import (
	"testing"

	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
)

func TestNewChunkIsAllAir(t *testing.T) {
	c := New(cube.DefaultRange)
	if !c.Empty() {
		t.Fatalf("fresh chunk should be Empty()")
	}
	if got := c.Voxel(cube.LocalPos{8, 64, 8}); got != voxel.Air {
		t.Fatalf("fresh chunk voxel = %v, want air", got)
	}
	if !c.MeshDirty || !c.LightDirty {
		t.Fatalf("fresh chunk should start mesh- and light-dirty")
	}
}

func TestSetVoxelGetVoxelRoundTrip(t *testing.T) {
	c := New(cube.DefaultRange)
	v := voxel.Voxel{ID: 42, State: 1, LightSky: 15}
	c.SetVoxel(cube.LocalPos{8, 64, 8}, v)
	if got := c.Voxel(cube.LocalPos{8, 64, 8}); got != v {
		t.Fatalf("Voxel() after SetVoxel = %v, want %v", got, v)
	}
	if c.Empty() {
		t.Fatalf("chunk with a non-air voxel should not be Empty()")
	}
}

func TestSetVoxelOutOfBoundsNoOps(t *testing.T) {
	c := New(cube.DefaultRange)
	c.SetVoxel(cube.LocalPos{-1, 64, 0}, voxel.Voxel{ID: 1})
	c.SetVoxel(cube.LocalPos{0, 1000, 0}, voxel.Voxel{ID: 1})
	if !c.Empty() {
		t.Fatalf("out-of-bounds writes must be silently ignored")
	}
}

func TestEachVisitsOnlyNonAirInOrder(t *testing.T) {
	c := New(cube.DefaultRange)
	c.SetVoxel(cube.LocalPos{0, 0, 0}, voxel.Voxel{ID: 1})
	c.SetVoxel(cube.LocalPos{5, 0, 0}, voxel.Voxel{ID: 2})
	c.SetVoxel(cube.LocalPos{0, 1, 0}, voxel.Voxel{ID: 3})

	var seen []cube.LocalPos
	c.Each(func(p cube.LocalPos, v voxel.Voxel) {
		seen = append(seen, p)
	})
	if len(seen) != 3 {
		t.Fatalf("Each visited %d voxels, want 3", len(seen))
	}
	// y-outer, z-middle, x-inner: y=0 entries must precede y=1 entries.
	if seen[len(seen)-1].Y() != 1 {
		t.Fatalf("Each should visit higher Y last, got order %v", seen)
	}
}

func TestHighestOpaque(t *testing.T) {
	c := New(cube.DefaultRange)
	opaque := func(id uint16) bool { return id != 0 }
	if got := c.HighestOpaque(8, 8, opaque); got != cube.DefaultRange.Min()-1 {
		t.Fatalf("HighestOpaque on empty column = %d, want %d", got, cube.DefaultRange.Min()-1)
	}
	c.SetVoxel(cube.LocalPos{8, 10, 8}, voxel.Voxel{ID: 1})
	c.SetVoxel(cube.LocalPos{8, 20, 8}, voxel.Voxel{ID: 1})
	if got := c.HighestOpaque(8, 8, opaque); got != 20 {
		t.Fatalf("HighestOpaque = %d, want 20", got)
	}
}
