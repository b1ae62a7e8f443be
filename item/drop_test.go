package item

import "testing"

func TestUpdateAppliesGravityAndDrag(t *testing.T) {
	d := Dropped{Y: 100, VelY: 0, LifetimeTicks: DespawnTicks}
	despawn := d.update(-100)
	if despawn {
		t.Fatalf("item far above ground should not despawn")
	}
	wantVelY := -gravity * airDrag
	if d.VelY != wantVelY {
		t.Fatalf("VelY = %v, want %v", d.VelY, wantVelY)
	}
	if d.Y != 100+wantVelY {
		t.Fatalf("Y = %v, want %v", d.Y, 100+wantVelY)
	}
	if d.OnGround {
		t.Fatalf("item should not be grounded while falling")
	}
}

func TestUpdateLandsAndAppliesFriction(t *testing.T) {
	d := Dropped{Y: 10.3, VelY: -1, VelX: 0.005, VelZ: 0.005, LifetimeTicks: DespawnTicks}
	groundHeight := 10.0
	d.update(groundHeight)

	wantGroundLevel := groundHeight + groundClearance
	if d.Y != wantGroundLevel {
		t.Fatalf("Y = %v, want ground level %v", d.Y, wantGroundLevel)
	}
	if d.VelY != 0 {
		t.Fatalf("VelY after landing = %v, want 0", d.VelY)
	}
	if !d.OnGround {
		t.Fatalf("item should be grounded once horizontal velocity decays below 0.01")
	}
}

func TestUpdateDespawnsAfterLifetimeExpires(t *testing.T) {
	d := Dropped{LifetimeTicks: 1, OnGround: true}
	if d.update(0) {
		t.Fatalf("item with one tick of lifetime left should not despawn yet")
	}
	if d.LifetimeTicks != 0 {
		t.Fatalf("LifetimeTicks = %d, want 0", d.LifetimeTicks)
	}
	if !d.update(0) {
		t.Fatalf("item with zero lifetime should despawn on the next update")
	}
}

func TestCanPickupRespectsRadius(t *testing.T) {
	d := Dropped{X: 0, Y: 0, Z: 0}
	if !d.canPickup(1.5, 0, 0) {
		t.Fatalf("a collector exactly at pickup radius should succeed")
	}
	if d.canPickup(1.6, 0, 0) {
		t.Fatalf("a collector just beyond pickup radius should fail")
	}
}

func TestTryMergeCapsAtMaxStackSize(t *testing.T) {
	d := Dropped{ItemType: "stone", Count: 60}
	other := Dropped{ItemType: "stone", Count: 10}
	merged := d.tryMerge(other)
	if merged != 4 {
		t.Fatalf("merged = %d, want 4", merged)
	}
	if d.Count != DefaultMaxStackSize {
		t.Fatalf("d.Count = %d, want %d", d.Count, DefaultMaxStackSize)
	}
}

func TestTryMergeRejectsDifferentTypes(t *testing.T) {
	d := Dropped{ItemType: "stone", Count: 1}
	other := Dropped{ItemType: "dirt", Count: 1}
	if merged := d.tryMerge(other); merged != 0 {
		t.Fatalf("merged = %d, want 0 for mismatched item types", merged)
	}
}

func TestManagerPickupItemsRemovesInRangeOnly(t *testing.T) {
	m := NewManager()
	near := m.Spawn(0, 0, 0, "stone", 1)
	far := m.Spawn(100, 0, 0, "stone", 1)

	picked := m.PickupItems(0, 0, 0)
	if len(picked) != 1 || picked[0].ItemType != "stone" {
		t.Fatalf("picked = %v, want one stone", picked)
	}
	if _, ok := m.Get(near); ok {
		t.Fatalf("item within pickup radius should have been removed")
	}
	if _, ok := m.Get(far); !ok {
		t.Fatalf("item outside pickup radius should remain")
	}
}

func TestManagerMergeNearbyItemsCombinesStacks(t *testing.T) {
	m := NewManager()
	a := m.Spawn(0, 0, 0, "stone", 10)
	b := m.Spawn(0.5, 0, 0, "stone", 5)

	merged := m.MergeNearbyItems()
	if merged != 1 {
		t.Fatalf("merged stacks = %d, want 1", merged)
	}
	got, ok := m.Get(a)
	if !ok || got.Count != 15 {
		t.Fatalf("surviving stack = %+v, want count 15", got)
	}
	if _, ok := m.Get(b); ok {
		t.Fatalf("absorbed stack should no longer exist")
	}
}
