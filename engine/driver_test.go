package engine

import (
	"testing"

	"github.com/0x4D44/voxelcore/block"
	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
	"github.com/0x4D44/voxelcore/world/fluid"
	"github.com/0x4D44/voxelcore/world/redstone"
)

func testConfig() Config {
	return Config{
		Registry: block.NewDefaultRegistry(),
		Range:    cube.DefaultRange,
		FluidIDs: fluid.IDs{
			Air:          block.Air,
			WaterSource:  block.WaterSource,
			WaterFlowing: block.WaterFlowing,
			LavaSource:   block.LavaSource,
			LavaFlowing:  block.LavaFlowing,
			Obsidian:     block.Obsidian,
			Cobblestone:  block.Cobblestone,
		},
		RedstoneIDs: redstone.IDs{
			Lever: block.Lever,
			Wire:  block.RedstoneWire,
		},
	}
}

func TestTickDrivesRedstoneWirePowerTrain(t *testing.T) {
	d := New(testConfig())
	if _, err := d.Store().Load(cube.ChunkPos{0, 0}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	lever := cube.Pos{0, 1, 0}
	wire1 := cube.Pos{1, 1, 0}
	wire2 := cube.Pos{2, 1, 0}

	d.Store().SetVoxel(lever, voxel.Voxel{ID: block.Lever})
	d.Store().SetVoxel(wire1, voxel.Voxel{ID: block.RedstoneWire})
	d.Store().SetVoxel(wire2, voxel.Voxel{ID: block.RedstoneWire})

	d.Redstone().ToggleLever(lever, d.Store())

	if err := d.Tick(nil); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if got := d.Store().GetVoxel(wire1).RedstonePower(); got != 14 {
		t.Fatalf("wire1 power = %d, want 14", got)
	}
	if got := d.Store().GetVoxel(wire2).RedstonePower(); got != 13 {
		t.Fatalf("wire2 power = %d, want 13", got)
	}
	if d.CurrentTick() != 1 {
		t.Fatalf("CurrentTick() = %d, want 1", d.CurrentTick())
	}
}

func TestTickExposesDirtyMeshChunksForLazyRemesh(t *testing.T) {
	d := New(testConfig())
	if _, err := d.Store().Load(cube.ChunkPos{0, 0}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	d.TakeDirtyMeshChunks() // start from an empty dirty set

	d.Store().SetVoxel(cube.Pos{1, 1, 1}, voxel.Voxel{ID: block.Stone})
	if err := d.Tick(nil); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	dirty := d.TakeDirtyMeshChunks()
	if len(dirty) != 1 || dirty[0] != (cube.ChunkPos{0, 0}) {
		t.Fatalf("TakeDirtyMeshChunks() = %v, want [{0 0}]", dirty)
	}
	if again := d.TakeDirtyMeshChunks(); len(again) != 0 {
		t.Fatalf("TakeDirtyMeshChunks() should be empty once drained, got %v", again)
	}
}

func TestSaveIsNoOpWithoutRegionStore(t *testing.T) {
	d := New(testConfig())
	if err := d.Save(0, false, 0, 0); err != nil {
		t.Fatalf("Save without a region store should no-op, got %v", err)
	}
}
