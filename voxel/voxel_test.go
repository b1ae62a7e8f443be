package voxel

import "testing"

func TestFluidLevelPacking(t *testing.T) {
	var v Voxel
	v.SetFluidLevel(8)
	v.SetFluidFalling(true)
	if got := v.FluidLevel(); got != 8 {
		t.Fatalf("FluidLevel() = %d, want 8", got)
	}
	if !v.FluidFalling() {
		t.Fatalf("FluidFalling() = false, want true")
	}
	v.SetFluidLevel(3)
	if got := v.FluidLevel(); got != 3 {
		t.Fatalf("FluidLevel() after overwrite = %d, want 3", got)
	}
	if !v.FluidFalling() {
		t.Fatalf("FluidFalling() should survive an unrelated field write")
	}
}

func TestRedstonePowerPacking(t *testing.T) {
	var v Voxel
	v.SetRedstonePower(15)
	v.SetRedstoneActive(true)
	if got := v.RedstonePower(); got != 15 {
		t.Fatalf("RedstonePower() = %d, want 15", got)
	}
	v.SetRedstoneActive(false)
	if v.RedstoneActive() {
		t.Fatalf("RedstoneActive() should be false after clearing")
	}
	if got := v.RedstonePower(); got != 15 {
		t.Fatalf("clearing active flag must not disturb power bits, got %d", got)
	}
}

func TestFacingMountOpenIndependent(t *testing.T) {
	var v Voxel
	v.SetFacing(2)
	v.SetOpen(true)
	v.SetMount(MountWall)
	v.SetWaterlogged(true)

	if got := v.Facing(); got != 2 {
		t.Fatalf("Facing() = %d, want 2", got)
	}
	if !v.Open() {
		t.Fatalf("Open() = false, want true")
	}
	if got := v.Mount(); got != MountWall {
		t.Fatalf("Mount() = %v, want MountWall", got)
	}
	if !v.Waterlogged() {
		t.Fatalf("Waterlogged() = false, want true")
	}
}

func TestLightIsMaxOfChannels(t *testing.T) {
	v := Voxel{LightSky: 10, LightBlock: 4}
	if got := v.Light(); got != 10 {
		t.Fatalf("Light() = %d, want 10", got)
	}
	v.LightBlock = 15
	if got := v.Light(); got != 15 {
		t.Fatalf("Light() = %d, want 15", got)
	}
}

func TestClampLight(t *testing.T) {
	var v Voxel
	v.ClampLightSky(20)
	if v.LightSky != MaxLight {
		t.Fatalf("ClampLightSky(20) = %d, want %d", v.LightSky, MaxLight)
	}
	v.ClampLightBlock(-5)
	if v.LightBlock != 0 {
		t.Fatalf("ClampLightBlock(-5) = %d, want 0", v.LightBlock)
	}
}
