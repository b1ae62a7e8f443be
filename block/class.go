package block

// Class identifies the special-cased behaviour a block id belongs to. Both
// the mesher (spec.md §4.2 "special-case geometry") and the simulators
// dispatch on Class rather than on individual block ids, so new block ids
// only need an entry in the id->Class table to pick up existing behaviour.
type Class uint8

const (
	ClassFullCube Class = iota
	ClassAir
	ClassFluid
	ClassRedstoneWire
	ClassRedstoneTorch
	ClassLever
	ClassButton
	ClassPressurePlate
	ClassRedstoneLamp
	ClassRepeater
	ClassComparator
	ClassObserver
	ClassFence
	ClassFenceGate
	ClassWall
	ClassGlassPane
	ClassIronBars
	ClassStairs
	ClassSlab
	ClassTrapdoor
	ClassDoor
	ClassLadder
	ClassTorch
	ClassCrop
	ClassBillboard
	ClassBed
	ClassChest
	ClassTable
)

// String implements fmt.Stringer, used by log fields and test failure
// messages.
func (c Class) String() string {
	switch c {
	case ClassFullCube:
		return "full_cube"
	case ClassAir:
		return "air"
	case ClassFluid:
		return "fluid"
	case ClassRedstoneWire:
		return "redstone_wire"
	case ClassRedstoneTorch:
		return "redstone_torch"
	case ClassLever:
		return "lever"
	case ClassButton:
		return "button"
	case ClassPressurePlate:
		return "pressure_plate"
	case ClassRedstoneLamp:
		return "redstone_lamp"
	case ClassRepeater:
		return "repeater"
	case ClassComparator:
		return "comparator"
	case ClassObserver:
		return "observer"
	case ClassFence:
		return "fence"
	case ClassFenceGate:
		return "fence_gate"
	case ClassWall:
		return "wall"
	case ClassGlassPane:
		return "glass_pane"
	case ClassIronBars:
		return "iron_bars"
	case ClassStairs:
		return "stairs"
	case ClassSlab:
		return "slab"
	case ClassTrapdoor:
		return "trapdoor"
	case ClassDoor:
		return "door"
	case ClassLadder:
		return "ladder"
	case ClassTorch:
		return "torch"
	case ClassCrop:
		return "crop"
	case ClassBillboard:
		return "billboard"
	case ClassBed:
		return "bed"
	case ClassChest:
		return "chest"
	case ClassTable:
		return "table"
	}
	return "unknown"
}

// IsRedstoneComponent reports whether the class participates in the
// redstone simulator (spec.md §4.5).
func (c Class) IsRedstoneComponent() bool {
	switch c {
	case ClassRedstoneWire, ClassRedstoneTorch, ClassLever, ClassButton,
		ClassPressurePlate, ClassRedstoneLamp, ClassRepeater, ClassComparator,
		ClassObserver:
		return true
	}
	return false
}

// ConnectsLikeFence reports whether the class should use fence/wall/pane
// style cardinal-arm connectivity in the mesher's special pass.
func (c Class) ConnectsLikeFence() bool {
	switch c {
	case ClassFence, ClassWall, ClassGlassPane, ClassIronBars:
		return true
	}
	return false
}
