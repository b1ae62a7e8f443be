package redstone

import (
	"testing"

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

const (
	idLever uint16 = 1
	idWire  uint16 = 2
	idTorch uint16 = 3
	idTorchLit uint16 = 4
)

func testIDs() IDs {
	return IDs{
		Lever: idLever,
		Wire:  idWire,
		Torch: idTorch,
		TorchLit: idTorchLit,
	}
}

func TestWirePowerTrainDecaysByOnePerHop(t *testing.T) {
	store := newFakeStore()
	sim := NewSimulator(testIDs())

	lever := cube.Pos{0, 0, 0}
	wire1 := cube.Pos{1, 0, 0}
	wire2 := cube.Pos{2, 0, 0}

	store.SetVoxel(lever, voxel.Voxel{ID: idLever})
	store.SetVoxel(wire1, voxel.Voxel{ID: idWire})
	store.SetVoxel(wire2, voxel.Voxel{ID: idWire})

	sim.ToggleLever(lever, store)
	sim.Tick(store)

	if got := store.GetVoxel(wire1).RedstonePower(); got != 14 {
		t.Fatalf("wire1 power = %d, want 14 (S9)", got)
	}
	if got := store.GetVoxel(wire2).RedstonePower(); got != 13 {
		t.Fatalf("wire2 power = %d, want 13 (S9)", got)
	}
}

func TestTorchInvertsFromPoweredSupport(t *testing.T) {
	store := newFakeStore()
	sim := NewSimulator(testIDs())

	support := cube.Pos{0, 0, 0}
	torchPos := cube.Pos{0, 1, 0}

	wire := voxel.Voxel{ID: idWire}
	wire.SetRedstonePower(15)
	store.SetVoxel(support, wire)

	torch := voxel.Voxel{ID: idTorchLit}
	torch.SetRedstoneActive(true)
	torch.SetRedstonePower(MaxPower)
	torch.LightBlock = 7
	store.SetVoxel(torchPos, torch)

	sim.ScheduleUpdate(torchPos)
	sim.Tick(store)

	got := store.GetVoxel(torchPos)
	if got.ID != idTorch {
		t.Fatalf("torch id = %d, want unlit id %d (S10)", got.ID, idTorch)
	}
	if got.RedstoneActive() {
		t.Fatalf("torch should be inactive after tick (S10)")
	}
	if got.RedstonePower() != 0 {
		t.Fatalf("torch power = %d, want 0 (S10)", got.RedstonePower())
	}
	if got.LightBlock != 0 {
		t.Fatalf("torch LightBlock = %d, want 0 (S10)", got.LightBlock)
	}
}

func TestToggleLeverIsNoOpOnWrongBlock(t *testing.T) {
	store := newFakeStore()
	sim := NewSimulator(testIDs())
	pos := cube.Pos{0, 0, 0}
	store.SetVoxel(pos, voxel.Voxel{ID: idWire})
	sim.ToggleLever(pos, store)
	if got := store.GetVoxel(pos); got.ID != idWire || got.RedstoneActive() {
		t.Fatalf("ToggleLever must no-op on a non-lever block, got %v", got)
	}
}
