package block

// ID is a 16-bit block identifier, matching voxel.Voxel.ID (spec.md §3.1).
type ID = uint16

// Representative block ids. The dispatch tables below are keyed by id (or
// id-ranges), following the teacher's per-block-type-per-file layout
// generalised into data, per spec.md §9 Design Notes ("the number of block
// classes is bounded (~50) and the dispatch is hot").
const (
	Air ID = iota
	Stone
	Dirt
	Grass
	Cobblestone
	OakPlanks
	OakLog
	OakLeaves
	Sapling
	Sand
	Gravel
	Glass
	Wool
	Bedrock
	Obsidian
	Netherrack
	Farmland
	Ice

	WaterSource
	WaterFlowing
	LavaSource
	LavaFlowing

	RedstoneWire
	RedstoneTorch
	RedstoneTorchLit
	Lever
	Button
	PressurePlate
	RedstoneLamp
	RedstoneLampLit
	Repeater
	Comparator
	Observer

	Fence
	FenceGate
	CobblestoneWall
	StoneBrickWall
	GlassPane
	IronBars

	OakStairs
	StoneBrickStairs
	OakSlab
	StoneSlab
	OakTrapdoor
	IronTrapdoor
	OakDoor
	IronDoor
	Ladder

	Torch
	Wheat
	Carrots
	GlowLichen
	CaveVines
	SporeBlossom
	HangingRoots
	SculkVein

	Bed
	Chest
	EnchantingTable
	BrewingStand

	NumBlockIDs
)
