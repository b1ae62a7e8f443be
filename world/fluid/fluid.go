// Package fluid implements the cellular-automata fluid simulator, component
// D of the simulation core (spec.md §4.4). It is grounded closely on the
// original engine's fluid.rs, generalised from a process-wide HashMap of
// chunks into the teacher-style world.Store abstraction (BFS/queue shape
// and per-cell update rule kept intentionally close to the source, since
// spec.md §9 flags fluid scheduling tie-breaks as part of the determinism
// contract).
package fluid

import (
	"sort"

	"github.com/0x4D44/voxelcore/block"
	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
)

// Type identifies water or lava.
type Type uint8

const (
	Water Type = iota
	Lava
)

// MaxFlowDistance returns the maximum flow distance from a source (spec.md
// §4.4: "water 7, lava 3").
func (t Type) MaxFlowDistance() uint8 {
	if t == Water {
		return 7
	}
	return 3
}

// FlowSpeed returns the delay in ticks between updates (spec.md §4.4:
// "water 1, lava 4").
func (t Type) FlowSpeed() int64 {
	if t == Water {
		return 1
	}
	return 4
}

// LightLevel returns the light emitted by this fluid type.
func (t Type) LightLevel() uint8 {
	if t == Lava {
		return 15
	}
	return 0
}

// FluidLevelSource is the effective level of a source block.
const FluidLevelSource uint8 = 8

// Store is the minimal surface the fluid simulator needs from the world's
// chunk store: voxel get and set. The simulator keeps its own mesh-dirty
// and light-dirty chunk sets (see TakeDirtyChunks and TakeDirtyLightChunks).
type Store interface {
	GetVoxel(pos cube.Pos) voxel.Voxel
	SetVoxel(pos cube.Pos, v voxel.Voxel)
}

// IDs carries the block ids the simulator needs to recognise, since the
// simulator is registry-driven rather than hardcoding a fixed block set
// (spec.md §9 "Dynamic dispatch over block behavior").
type IDs struct {
	Air uint16
	Fire uint16
	WaterSource uint16
	WaterFlowing uint16
	LavaSource uint16
	LavaFlowing uint16
	Obsidian uint16
	Cobblestone uint16
}

// Simulator runs the fluid cellular automaton over a world.Store (spec.md
// §4.4).
type Simulator struct {
	ids IDs
	registry block.Registry

	currentTick int64
	pending map[cube.Pos]int64

	dirtyChunks map[cube.ChunkPos]struct{}
	dirtyLightChunks map[cube.ChunkPos]struct{}
}

// NewSimulator constructs an empty Simulator.
func NewSimulator(ids IDs, registry block.Registry) *Simulator {
	return &Simulator{
		ids: ids,
		registry: registry,
		pending: make(map[cube.Pos]int64),
		dirtyChunks: make(map[cube.ChunkPos]struct{}),
		dirtyLightChunks: make(map[cube.ChunkPos]struct{}),
	}
}

// ScheduleUpdate schedules pos for a future update, replacing the existing
// schedule only if the new tick is earlier (spec.md §4.4 "Scheduling").
func (s *Simulator) ScheduleUpdate(pos cube.Pos, delay int64) {
	tick := s.currentTick + delay
	if existing, ok := s.pending[pos]; ok && existing <= tick {
		return
	}
	s.pending[pos] = tick
}

// PendingCount returns the number of positions awaiting an update.
func (s *Simulator) PendingCount() int { return len(s.pending) }

// Tick advances the simulator by one tick: it pops every position whose
// scheduled tick is due and processes them in deterministic position order
// (spec.md §4.4 "Scheduling": "process in a deterministic order (position
// ordering by (x,y,z))").
func (s *Simulator) Tick(store Store) {
	s.currentTick++
	var due []cube.Pos
	for pos, tick := range s.pending {
		if tick <= s.currentTick {
			due = append(due, pos)
		}
	}
	for _, pos := range due {
		delete(s.pending, pos)
	}
	sort.Slice(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if a.X() != b.X() {
			return a.X() < b.X()
		}
		if a.Y() != b.Y() {
			return a.Y() < b.Y()
		}
		return a.Z() < b.Z()
	})
	for _, pos := range due {
		s.processUpdate(pos, store)
	}
}

// TakeDirtyChunks returns and clears the mesh-dirty chunk set accumulated
// since the last call.
func (s *Simulator) TakeDirtyChunks() []cube.ChunkPos {
	out := make([]cube.ChunkPos, 0, len(s.dirtyChunks))
	for pos := range s.dirtyChunks {
		out = append(out, pos)
	}
	s.dirtyChunks = make(map[cube.ChunkPos]struct{})
	return out
}

// TakeDirtyLightChunks returns and clears the light-dirty chunk set.
func (s *Simulator) TakeDirtyLightChunks() []cube.ChunkPos {
	out := make([]cube.ChunkPos, 0, len(s.dirtyLightChunks))
	for pos := range s.dirtyLightChunks {
		out = append(out, pos)
	}
	s.dirtyLightChunks = make(map[cube.ChunkPos]struct{})
	return out
}

// OnFluidPlaced schedules the first update for a freshly placed fluid
// block.
func (s *Simulator) OnFluidPlaced(pos cube.Pos, t Type) {
	s.ScheduleUpdate(pos, t.FlowSpeed())
}

// OnFluidRemoved schedules updates for neighbors of a removed fluid block so
// they can fill the gap (spec.md §4.4 scheduling notes).
func (s *Simulator) OnFluidRemoved(pos cube.Pos, store Store) {
	for _, n := range s.neighbours(pos) {
		v := store.GetVoxel(n)
		if ft, ok := s.fluidType(v.ID); ok {
			s.ScheduleUpdate(n, ft.FlowSpeed())
		} else if s.waterlogged(v) {
			s.ScheduleUpdate(n, Water.FlowSpeed())
		}
	}
}

func (s *Simulator) fluidType(id uint16) (Type, bool) {
	switch id {
	case s.ids.WaterSource, s.ids.WaterFlowing:
		return Water, true
	case s.ids.LavaSource, s.ids.LavaFlowing:
		return Lava, true
	}
	return 0, false
}

func (s *Simulator) isSource(id uint16) bool {
	return id == s.ids.WaterSource || id == s.ids.LavaSource
}

func (s *Simulator) isFlowing(id uint16) bool {
	return id == s.ids.WaterFlowing || id == s.ids.LavaFlowing
}

func (s *Simulator) canReplace(id uint16) bool {
	if id == s.ids.Air {
		return true
	}
	if _, ok := s.fluidType(id); ok {
		return true
	}
	return s.registry.Descriptor(id).Replaceable
}

func (s *Simulator) waterlogged(v voxel.Voxel) bool {
	return s.registry.Descriptor(v.ID).Waterloggable && v.Waterlogged()
}

func (s *Simulator) flowingID(t Type) uint16 {
	if t == Water {
		return s.ids.WaterFlowing
	}
	return s.ids.LavaFlowing
}

// neighbours returns down, north, south, east, west in that priority order
// (fluid.rs's FluidPos::neighbors: "Get neighbors in flow order").
func (s *Simulator) neighbours(pos cube.Pos) [5]cube.Pos {
	return [5]cube.Pos{
		{pos.X(), pos.Y() - 1, pos.Z()},
		{pos.X(), pos.Y(), pos.Z() - 1},
		{pos.X(), pos.Y(), pos.Z() + 1},
		{pos.X() + 1, pos.Y(), pos.Z()},
		{pos.X() - 1, pos.Y(), pos.Z()},
	}
}

func (s *Simulator) horizontalNeighbours(pos cube.Pos) [4]cube.Pos {
	return [4]cube.Pos{
		{pos.X(), pos.Y(), pos.Z() - 1},
		{pos.X(), pos.Y(), pos.Z() + 1},
		{pos.X() + 1, pos.Y(), pos.Z()},
		{pos.X() - 1, pos.Y(), pos.Z()},
	}
}

func (s *Simulator) setVoxel(pos cube.Pos, v voxel.Voxel, store Store) {
	old := store.GetVoxel(pos)
	store.SetVoxel(pos, v)

	cp := pos.ChunkPos()
	s.dirtyChunks[cp] = struct{}{}

	oldEmissive := old.ID == s.ids.LavaSource || old.ID == s.ids.LavaFlowing || old.ID == s.ids.Fire
	newEmissive := v.ID == s.ids.LavaSource || v.ID == s.ids.LavaFlowing || v.ID == s.ids.Fire
	oldOpaque := s.registry.Descriptor(old.ID).Opaque
	newOpaque := s.registry.Descriptor(v.ID).Opaque
	if oldEmissive != newEmissive || oldOpaque != newOpaque {
		s.dirtyLightChunks[cp] = struct{}{}
	}
}

// checkFluidInteraction resolves water-vs-lava meetings: lava source + water
// = obsidian, flowing lava + water = cobblestone (spec.md §4.4 step 2).
func (s *Simulator) checkFluidInteraction(pos cube.Pos, incoming Type, incomingSource bool, store Store) (voxel.Voxel, bool) {
	existing := store.GetVoxel(pos)
	existingType, ok := s.fluidType(existing.ID)
	if !ok || existingType == incoming {
		return voxel.Voxel{}, false
	}
	lavaIsSource := incomingSource
	if incoming != Lava {
		lavaIsSource = s.isSource(existing.ID)
	}
	resultID := s.ids.Cobblestone
	if lavaIsSource {
		resultID = s.ids.Obsidian
	}
	return voxel.Voxel{ID: resultID}, true
}

func (s *Simulator) checkInfiniteWater(pos cube.Pos, store Store) bool {
	count := 0
	for _, n := range s.horizontalNeighbours(pos) {
		v := store.GetVoxel(n)
		if v.ID == s.ids.WaterSource || s.waterlogged(v) {
			count++
		}
	}
	return count >= 2
}

func (s *Simulator) isFlammable(id uint16) bool {
	return s.registry.Descriptor(id).Flammable
}

// processUpdate runs the per-cell update rule described in spec.md §4.4
// steps 1-5.
func (s *Simulator) processUpdate(pos cube.Pos, store Store) {
	v := store.GetVoxel(pos)

	var fluidType Type
	var isSource bool
	var currentLevel uint8
	if ft, ok := s.fluidType(v.ID); ok {
		fluidType = ft
		isSource = s.isSource(v.ID)
		if isSource {
			currentLevel = FluidLevelSource
		} else {
			currentLevel = v.FluidLevel()
		}
	} else if s.waterlogged(v) {
		fluidType, isSource, currentLevel = Water, true, FluidLevelSource
	} else {
		return
	}

	// Step 2: flow down.
	down := cube.Pos{pos.X(), pos.Y() - 1, pos.Z()}
	downVoxel := store.GetVoxel(down)
	if downType, ok := s.fluidType(downVoxel.ID); ok {
		if downType != fluidType {
			if result, ok := s.checkFluidInteraction(down, fluidType, isSource, store); ok {
				s.setVoxel(down, result, store)
			}
		} else {
			newLevel := currentLevel
			if isSource {
				newLevel = FluidLevelSource
			}
			nv := voxel.Voxel{ID: s.flowingID(fluidType), LightBlock: fluidType.LightLevel()}
			nv.SetFluidLevel(newLevel)
			nv.SetFluidFalling(true)
			s.setVoxel(down, nv, store)
			s.ScheduleUpdate(down, fluidType.FlowSpeed())
		}
	} else if s.canReplace(downVoxel.ID) {
		newLevel := currentLevel
		if isSource {
			newLevel = FluidLevelSource
		}
		nv := voxel.Voxel{ID: s.flowingID(fluidType), LightBlock: fluidType.LightLevel()}
		nv.SetFluidLevel(newLevel)
		nv.SetFluidFalling(true)
		s.setVoxel(down, nv, store)
		s.ScheduleUpdate(down, fluidType.FlowSpeed())
	}

	// Step 3: infinite water.
	if fluidType == Water && !isSource && !v.FluidFalling() {
		if s.checkInfiniteWater(pos, store) {
			s.setVoxel(pos, voxel.Voxel{ID: s.ids.WaterSource}, store)
			s.ScheduleUpdate(pos, fluidType.FlowSpeed())
			return
		}
	}

	// Step 4: spread horizontally.
	if currentLevel > 1 || isSource {
		newLevel := currentLevel - 1
		if isSource {
			newLevel = fluidType.MaxFlowDistance()
		}
		if newLevel > 0 {
			for _, n := range s.horizontalNeighbours(pos) {
				nv := store.GetVoxel(n)
				shouldFlow := false
				if nt, ok := s.fluidType(nv.ID); ok {
					if nt != fluidType {
						shouldFlow = true
					} else {
						neighbourLevel := nv.FluidLevel()
						if s.isSource(nv.ID) {
							neighbourLevel = FluidLevelSource
						}
						shouldFlow = newLevel > neighbourLevel
					}
				} else {
					shouldFlow = s.canReplace(nv.ID)
				}
				if !shouldFlow {
					continue
				}
				if result, ok := s.checkFluidInteraction(n, fluidType, isSource, store); ok {
					s.setVoxel(n, result, store)
					continue
				}
				if nt, ok := s.fluidType(nv.ID); !ok || nt == fluidType {
					placed := voxel.Voxel{ID: s.flowingID(fluidType), LightBlock: fluidType.LightLevel()}
					placed.SetFluidLevel(newLevel)
					s.setVoxel(n, placed, store)
					s.ScheduleUpdate(n, fluidType.FlowSpeed())
				}
			}
		}
	}

	// Step 5: ignition.
	if fluidType == Lava {
		for _, n := range s.horizontalNeighbours(pos) {
			here := store.GetVoxel(n)
			if here.ID != s.ids.Air {
				continue
			}
			below := cube.Pos{n.X(), n.Y() - 1, n.Z()}
			belowVoxel := store.GetVoxel(below)
			if !s.isFlammable(belowVoxel.ID) {
				continue
			}
			s.setVoxel(n, voxel.Voxel{ID: s.ids.Fire}, store)
		}
	}
}
