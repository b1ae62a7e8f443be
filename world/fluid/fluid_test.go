package fluid

import (
	"testing"

	"github.com/0x4D44/voxelcore/block"
	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
)

type fakeStore struct {
	voxels map[cube.Pos]voxel.Voxel
}

func newFakeStore() *fakeStore {
	return &fakeStore{voxels: make(map[cube.Pos]voxel.Voxel)}
}

func (s *fakeStore) GetVoxel(pos cube.Pos) voxel.Voxel {
	return s.voxels[pos]
}

func (s *fakeStore) SetVoxel(pos cube.Pos, v voxel.Voxel) {
	s.voxels[pos] = v
}

func testIDs() IDs {
	return IDs{
		Air:          block.Air,
		Fire:         block.Air,
		WaterSource:  block.WaterSource,
		WaterFlowing: block.WaterFlowing,
		LavaSource:   block.LavaSource,
		LavaFlowing:  block.LavaFlowing,
		Obsidian:     block.Obsidian,
		Cobblestone:  block.Cobblestone,
	}
}

func TestInfiniteWaterFormsNewSource(t *testing.T) {
	store := newFakeStore()
	registry := block.NewDefaultRegistry()
	sim := NewSimulator(testIDs(), registry)

	floor := int(0)
	mid := cube.Pos{0, floor + 1, 0}
	west := cube.Pos{-1, floor + 1, 0}
	east := cube.Pos{1, floor + 1, 0}

	store.SetVoxel(cube.Pos{0, floor, 0}, voxel.Voxel{ID: block.Stone})
	store.SetVoxel(cube.Pos{-1, floor, 0}, voxel.Voxel{ID: block.Stone})
	store.SetVoxel(cube.Pos{1, floor, 0}, voxel.Voxel{ID: block.Stone})

	store.SetVoxel(west, voxel.Voxel{ID: block.WaterSource})
	store.SetVoxel(east, voxel.Voxel{ID: block.WaterSource})
	flowing := voxel.Voxel{ID: block.WaterFlowing}
	flowing.SetFluidLevel(1)
	store.SetVoxel(mid, flowing)

	sim.ScheduleUpdate(mid, 0)
	sim.Tick(store)

	got := store.GetVoxel(mid)
	if got.ID != block.WaterSource {
		t.Fatalf("mid cell id = %d, want WaterSource (%d) (S7)", got.ID, block.WaterSource)
	}
}

func TestLavaSourcePlusWaterMakesObsidian(t *testing.T) {
	store := newFakeStore()
	registry := block.NewDefaultRegistry()
	sim := NewSimulator(testIDs(), registry)

	lava := cube.Pos{0, 1, 0}
	water := cube.Pos{1, 1, 0}

	store.SetVoxel(cube.Pos{0, 0, 0}, voxel.Voxel{ID: block.Stone})
	store.SetVoxel(cube.Pos{1, 0, 0}, voxel.Voxel{ID: block.Stone})
	store.SetVoxel(lava, voxel.Voxel{ID: block.LavaSource})
	store.SetVoxel(water, voxel.Voxel{ID: block.WaterSource})

	sim.ScheduleUpdate(lava, 0)
	sim.Tick(store)

	got := store.GetVoxel(water)
	if got.ID != block.Obsidian {
		t.Fatalf("water cell id = %d, want Obsidian (%d) (S8)", got.ID, block.Obsidian)
	}
}

func TestFlowingLavaPlusWaterMakesCobblestone(t *testing.T) {
	store := newFakeStore()
	registry := block.NewDefaultRegistry()
	sim := NewSimulator(testIDs(), registry)

	lava := cube.Pos{0, 1, 0}
	water := cube.Pos{1, 1, 0}

	store.SetVoxel(cube.Pos{0, 0, 0}, voxel.Voxel{ID: block.Stone})
	store.SetVoxel(cube.Pos{1, 0, 0}, voxel.Voxel{ID: block.Stone})
	flowingLava := voxel.Voxel{ID: block.LavaFlowing}
	flowingLava.SetFluidLevel(3)
	store.SetVoxel(lava, flowingLava)
	store.SetVoxel(water, voxel.Voxel{ID: block.WaterSource})

	sim.ScheduleUpdate(lava, 0)
	sim.Tick(store)

	got := store.GetVoxel(water)
	if got.ID != block.Cobblestone {
		t.Fatalf("water cell id = %d, want Cobblestone (%d) (S8)", got.ID, block.Cobblestone)
	}
}

func TestScheduleUpdateKeepsEarlierTick(t *testing.T) {
	sim := NewSimulator(testIDs(), block.NewDefaultRegistry())
	pos := cube.Pos{0, 0, 0}
	sim.ScheduleUpdate(pos, 5)
	sim.ScheduleUpdate(pos, 1)
	if sim.pending[pos] != 1 {
		t.Fatalf("pending[pos] = %d, want 1 (earlier schedule must win)", sim.pending[pos])
	}
	sim.ScheduleUpdate(pos, 10)
	if sim.pending[pos] != 1 {
		t.Fatalf("pending[pos] = %d, want 1 (later schedule must not override)", sim.pending[pos])
	}
}
