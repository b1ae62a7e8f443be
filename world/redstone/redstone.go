// Package redstone implements the redstone cellular-automata simulator,
// component E of the simulation core (spec.md §4.5).
//
// The original engine's redstone.rs runs this as a flat BFS over a
// process-wide chunk map. The teacher's own server/world/redstone package
// instead models components as a Graph of Nodes connected by Events,
// processed by per-chunk goroutine workers communicating over channels
// (see server/world/redstone/{graph,event,processor,worker}.go) — built for
// an MMO server where hundreds of chunks update concurrently.
//
// spec.md §5 mandates a single-threaded tick driver with "no suspension
// points inside a tick" and deterministic sorted-position processing. The
// goroutine/channel worker model is not just unnecessary here, it actively
// violates that contract (an async worker loop is itself a suspension
// point). This package keeps the teacher's vocabulary — Kind, emitted-power
// dispatch, neighbour BFS with a visited guard — but runs it as a plain
// synchronous function call from the tick driver, matching the original
// engine's algorithm exactly.
package redstone

import (
	"sort"

	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
)

// MaxPower is the maximum redstone power level.
const MaxPower uint8 = 15

// ButtonTimerTicks is how long a button stays active after being pressed
// (spec.md §4.5: "automatically deactivates after 20 ticks").
const ButtonTimerTicks = 20

// Kind identifies which state machine in the table of spec.md §4.5 a block
// id belongs to.
type Kind uint8

const (
	KindNone Kind = iota
	KindLever
	KindButton
	KindPressurePlate
	KindWire
	KindTorch
	KindLamp
	KindRepeater
	KindComparator
	KindObserver
)

// IsPowerSource reports whether the kind emits power independent of its
// neighbours.
func (k Kind) IsPowerSource() bool {
	switch k {
	case KindLever, KindButton, KindPressurePlate, KindTorch, KindObserver:
		return true
	}
	return false
}

// IDs maps the concrete block ids the simulator dispatches on. Kept
// data-driven (rather than hardcoded constants as the original engine does)
// per spec.md §9 "Dynamic dispatch over block behavior".
type IDs struct {
	Lever uint16
	Button uint16
	PressurePlate uint16
	Wire uint16
	Torch uint16
	TorchLit uint16
	Lamp uint16
	LampLit uint16
	Repeater uint16
	Comparator uint16
	Observer uint16
}

func (ids IDs) kindOf(id uint16) Kind {
	switch id {
	case ids.Lever:
		return KindLever
	case ids.Button:
		return KindButton
	case ids.PressurePlate:
		return KindPressurePlate
	case ids.Wire:
		return KindWire
	case ids.Torch, ids.TorchLit:
		return KindTorch
	case ids.Lamp, ids.LampLit:
		return KindLamp
	case ids.Repeater:
		return KindRepeater
	case ids.Comparator:
		return KindComparator
	case ids.Observer:
		return KindObserver
	}
	return KindNone
}

// Store is the minimal chunk-store surface the simulator needs.
type Store interface {
	GetVoxel(pos cube.Pos) voxel.Voxel
	SetVoxel(pos cube.Pos, v voxel.Voxel)
}

type buttonTimer struct {
	pos cube.Pos
	deactivateTick int64
}

// Simulator runs the redstone cellular automaton (spec.md §4.5).
type Simulator struct {
	ids IDs

	currentTick int64
	pending map[cube.Pos]struct{}
	buttonTimers []buttonTimer

	dirtyChunks map[cube.ChunkPos]struct{}
	dirtyLightChunks map[cube.ChunkPos]struct{}
}

// NewSimulator constructs an empty Simulator.
func NewSimulator(ids IDs) *Simulator {
	return &Simulator{
		ids: ids,
		pending: make(map[cube.Pos]struct{}),
		dirtyChunks: make(map[cube.ChunkPos]struct{}),
		dirtyLightChunks: make(map[cube.ChunkPos]struct{}),
	}
}

// ScheduleUpdate enqueues pos for processing on the next Tick.
func (s *Simulator) ScheduleUpdate(pos cube.Pos) { s.pending[pos] = struct{}{} }

// PendingCount returns the number of positions awaiting an update.
func (s *Simulator) PendingCount() int { return len(s.pending) }

func (s *Simulator) neighbours(pos cube.Pos) [6]cube.Pos {
	return [6]cube.Pos{
		{pos.X() - 1, pos.Y(), pos.Z()},
		{pos.X() + 1, pos.Y(), pos.Z()},
		{pos.X(), pos.Y() - 1, pos.Z()},
		{pos.X(), pos.Y() + 1, pos.Z()},
		{pos.X(), pos.Y(), pos.Z() - 1},
		{pos.X(), pos.Y(), pos.Z() + 1},
	}
}

func (s *Simulator) setVoxel(pos cube.Pos, v voxel.Voxel, store Store) {
	old := store.GetVoxel(pos)
	store.SetVoxel(pos, v)
	cp := pos.ChunkPos()
	s.dirtyChunks[cp] = struct{}{}
	if old.ID != v.ID || old.LightBlock != v.LightBlock {
		s.dirtyLightChunks[cp] = struct{}{}
	}
}

// ToggleLever flips a lever's on/off state (spec.md §4.5 state table: "Lever
// off -> toggle_lever -> Lever on (power 15)").
func (s *Simulator) ToggleLever(pos cube.Pos, store Store) {
	v := store.GetVoxel(pos)
	if v.ID != s.ids.Lever {
		return
	}
	active := !v.RedstoneActive()
	v.SetRedstoneActive(active)
	if active {
		v.SetRedstonePower(MaxPower)
	} else {
		v.SetRedstonePower(0)
	}
	s.setVoxel(pos, v, store)
	for _, n := range s.neighbours(pos) {
		s.ScheduleUpdate(n)
	}
}

// ActivateButton presses a button, arming its 20-tick deactivation timer
// (spec.md §4.5: "Button idle -> activate_button -> Button active (power
// 15); timer armed for tick+20").
func (s *Simulator) ActivateButton(pos cube.Pos, store Store) {
	v := store.GetVoxel(pos)
	if v.ID != s.ids.Button || v.RedstoneActive() {
		return
	}
	v.SetRedstoneActive(true)
	v.SetRedstonePower(MaxPower)
	s.setVoxel(pos, v, store)
	s.buttonTimers = append(s.buttonTimers, buttonTimer{pos, s.currentTick + ButtonTimerTicks})
	for _, n := range s.neighbours(pos) {
		s.ScheduleUpdate(n)
	}
}

// UpdatePressurePlate sets a pressure plate's active state from whether any
// entity currently intersects it (spec.md §4.5 state table).
func (s *Simulator) UpdatePressurePlate(pos cube.Pos, entityPresent bool, store Store) {
	v := store.GetVoxel(pos)
	if v.ID != s.ids.PressurePlate {
		return
	}
	if entityPresent == v.RedstoneActive() {
		return
	}
	v.SetRedstoneActive(entityPresent)
	if entityPresent {
		v.SetRedstonePower(MaxPower)
	} else {
		v.SetRedstonePower(0)
	}
	s.setVoxel(pos, v, store)
	for _, n := range s.neighbours(pos) {
		s.ScheduleUpdate(n)
	}
}

func (s *Simulator) deactivateButton(pos cube.Pos, store Store) {
	v := store.GetVoxel(pos)
	if v.ID != s.ids.Button {
		return
	}
	v.SetRedstoneActive(false)
	v.SetRedstonePower(0)
	s.setVoxel(pos, v, store)
	for _, n := range s.neighbours(pos) {
		s.ScheduleUpdate(n)
	}
}

// Tick advances the simulator by one tick: expires button timers, then
// drains the pending set as a BFS with a visited guard, in deterministic
// sorted position order (spec.md §4.5 "Update algorithm").
func (s *Simulator) Tick(store Store) {
	s.currentTick++

	var expired []cube.Pos
	remaining := s.buttonTimers[:0]
	for _, t := range s.buttonTimers {
		if t.deactivateTick <= s.currentTick {
			expired = append(expired, t.pos)
		} else {
			remaining = append(remaining, t)
		}
	}
	s.buttonTimers = remaining
	sortPositions(expired)
	for _, pos := range expired {
		s.deactivateButton(pos, store)
	}

	if len(s.pending) == 0 {
		return
	}
	seed := make([]cube.Pos, 0, len(s.pending))
	for pos := range s.pending {
		seed = append(seed, pos)
	}
	s.pending = make(map[cube.Pos]struct{})
	sortPositions(seed)

	queue := seed
	visited := make(map[cube.Pos]struct{}, len(seed))
	for i := 0; i < len(queue); i++ {
		pos := queue[i]
		if _, seen := visited[pos]; seen {
			continue
		}
		visited[pos] = struct{}{}
		if s.processUpdate(pos, store) {
			next := s.neighbours(pos)
			unvisited := next[:0:0]
			for _, n := range next {
				if _, seen := visited[n]; !seen {
					unvisited = append(unvisited, n)
				}
			}
			sortPositions(unvisited)
			queue = append(queue, unvisited...)
		}
	}
}

func sortPositions(p []cube.Pos) {
	sort.Slice(p, func(i, j int) bool {
		a, b := p[i], p[j]
		if a.X() != b.X() {
			return a.X() < b.X()
		}
		if a.Y() != b.Y() {
			return a.Y() < b.Y()
		}
		return a.Z() < b.Z()
	})
}

// processUpdate dispatches pos to its component's update rule, returning
// whether the voxel's power or id changed (spec.md §4.5 "Update algorithm":
// "processing a position returns changed?").
func (s *Simulator) processUpdate(pos cube.Pos, store Store) bool {
	v := store.GetVoxel(pos)
	switch s.ids.kindOf(v.ID) {
	case KindWire:
		return s.updateWire(pos, store)
	case KindLamp:
		return s.updateLamp(pos, store)
	case KindTorch:
		return s.updateTorch(pos, store)
	case KindRepeater:
		return s.updateRepeater(pos, store)
	case KindComparator:
		return s.updateComparator(pos, store)
	}
	return false
}

// emittedPower implements the "Emitted-power rule" of spec.md §4.5: sources
// (levers, buttons, plates, torches, observers) emit 15 when active, 0
// otherwise; wires, repeaters and comparators emit their own power level;
// everything else emits 0.
func (s *Simulator) emittedPower(v voxel.Voxel) uint8 {
	switch s.ids.kindOf(v.ID) {
	case KindLever, KindButton, KindPressurePlate, KindTorch, KindObserver:
		if v.RedstoneActive() {
			return MaxPower
		}
		return 0
	case KindWire, KindRepeater, KindComparator:
		return v.RedstonePower()
	}
	return 0
}

// updateWire recomputes a wire's power as max(neighbour emitted power) - 1,
// clamped at 0 (spec.md §4.5 state table and TESTABLE PROPERTIES invariant
// 6).
func (s *Simulator) updateWire(pos cube.Pos, store Store) bool {
	v := store.GetVoxel(pos)
	old := v.RedstonePower()

	var max uint8
	for _, n := range s.neighbours(pos) {
		nv := store.GetVoxel(n)
		if p := s.emittedPower(nv); p > 0 {
			received := p - 1
			if received > max {
				max = received
			}
		}
	}
	if max == old {
		return false
	}
	v.SetRedstonePower(max)
	s.setVoxel(pos, v, store)
	return true
}

// updateLamp lights the lamp when any neighbour emits power (spec.md §4.5
// state table).
func (s *Simulator) updateLamp(pos cube.Pos, store Store) bool {
	v := store.GetVoxel(pos)
	powered := false
	for _, n := range s.neighbours(pos) {
		if s.emittedPower(store.GetVoxel(n)) > 0 {
			powered = true
			break
		}
	}
	lit := v.ID == s.ids.LampLit
	if powered == lit {
		return false
	}
	newV := voxel.Voxel{ID: s.ids.Lamp, State: v.State, LightSky: v.LightSky}
	if powered {
		newV.ID = s.ids.LampLit
		newV.LightBlock = 15
	}
	s.setVoxel(pos, newV, store)
	return true
}

// updateTorch inverts the power of its supporting block below (spec.md
// §4.5 state table: "Torch off -> supporting block unpowered -> Torch on").
// Wall-mounted torches (voxel.Mount() == MountWall) invert from the block
// behind their facing direction instead of straight down.
func (s *Simulator) updateTorch(pos cube.Pos, store Store) bool {
	v := store.GetVoxel(pos)

	var support cube.Pos
	if v.Mount() == voxel.MountWall {
		dir := cube.Direction(v.Facing())
		face := dir.Face()
		opp := face.Opposite()
		support = pos.Side(opp)
	} else {
		support = cube.Pos{pos.X(), pos.Y() - 1, pos.Z()}
	}
	poweredFromSupport := store.GetVoxel(support).RedstonePower() > 0

	shouldBeActive := !poweredFromSupport
	wasActive := v.RedstoneActive()
	if shouldBeActive == wasActive {
		return false
	}

	newV := voxel.Voxel{ID: v.ID, State: v.State, LightSky: v.LightSky}
	newV.SetRedstoneActive(shouldBeActive)
	if shouldBeActive {
		newV.SetRedstonePower(MaxPower)
		newV.LightBlock = 7
	} else {
		newV.SetRedstonePower(0)
		newV.LightBlock = 0
	}
	if s.ids.TorchLit != 0 {
		if shouldBeActive {
			newV.ID = s.ids.TorchLit
		} else {
			newV.ID = s.ids.Torch
		}
	}
	s.setVoxel(pos, newV, store)
	return true
}

// updateRepeater turns the repeater on (power 15) when the block behind its
// facing emits any power and off (power 0) otherwise. The change applies in
// the same update; there is no delay. A supplemental component beyond
// spec.md's core table.
func (s *Simulator) updateRepeater(pos cube.Pos, store Store) bool {
	v := store.GetVoxel(pos)
	dir := cube.Direction(v.Facing())
	inputPos := pos.Side(dir.Opposite().Face())
	input := s.emittedPower(store.GetVoxel(inputPos))

	shouldBeActive := input > 0
	wasActive := v.RedstoneActive()
	if shouldBeActive == wasActive {
		return false
	}
	v.SetRedstoneActive(shouldBeActive)
	if shouldBeActive {
		v.SetRedstonePower(MaxPower)
	} else {
		v.SetRedstonePower(0)
	}
	s.setVoxel(pos, v, store)
	return true
}

// updateComparator passes through its strongest rear input as its output
// power, a simplified passthrough (subtract mode is not modelled, matching
// the core table's scope).
func (s *Simulator) updateComparator(pos cube.Pos, store Store) bool {
	v := store.GetVoxel(pos)
	old := v.RedstonePower()

	dir := cube.Direction(v.Facing())
	rear := pos.Side(dir.Opposite().Face())
	power := s.emittedPower(store.GetVoxel(rear))
	if power == old {
		return false
	}
	v.SetRedstonePower(power)
	s.setVoxel(pos, v, store)
	return true
}

// TakeDirtyChunks returns and clears the mesh-dirty chunk set.
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
