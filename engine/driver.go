package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/item"
	"github.com/0x4D44/voxelcore/region"
	"github.com/0x4D44/voxelcore/replay"
	"github.com/0x4D44/voxelcore/world"
	"github.com/0x4D44/voxelcore/world/fluid"
	"github.com/0x4D44/voxelcore/world/light"
	"github.com/0x4D44/voxelcore/world/redstone"
)

// InputSink receives per-tick player input consumed from live input or a
// replay log (spec.md §4.8 step 1). voxelcore's core has no player/
// connection model of its own (that is a frontend concern); a host wires
// this to whatever it does with movement/interaction input.
type InputSink interface {
	HandleInput(entry replay.InputLogEntry)
}

// GroundHeightFunc resolves the highest solid voxel's Y at (x, z), used by
// the item manager's ground-collision physics (spec.md §4.9).
type GroundHeightFunc func(store *world.Store, x, z float64) float64

// Driver is the single-threaded tick driver, component I of the simulation
// core (spec.md §4.8). It owns the chunk store and every subsystem the
// store's SetVoxel contract depends on, and exposes the exact six-step
// per-tick algorithm spec.md §4.8 mandates.
type Driver struct {
	log      *slog.Logger
	store    *world.Store
	regionStore *region.Store

	fluidSim    *fluid.Simulator
	redstoneSim *redstone.Simulator
	items       *item.Manager

	groundHeight GroundHeightFunc
	inputSink    InputSink
	replayPlayer *replay.ReplayPlayer
	eventLogger  *replay.EventLogger

	tick uint64
}

// New constructs a Driver from a resolved Config.
func New(conf Config) *Driver {
	var loader world.Loader
	var saver world.Saver
	if conf.Store != nil {
		loader, saver = conf.Store, conf.Store
	}
	log := conf.Log
	if log == nil {
		log = slog.Default()
	}
	store := world.NewStore(conf.Range, conf.Registry, conf.Seed, conf.Generator, loader, saver, log)
	return &Driver{
		log:         log,
		store:       store,
		regionStore: conf.Store,
		fluidSim:    fluid.NewSimulator(conf.FluidIDs, conf.Registry),
		redstoneSim: redstone.NewSimulator(conf.RedstoneIDs),
		items:       item.NewManager(),
		groundHeight: func(s *world.Store, x, z float64) float64 {
			return defaultGroundHeight(s, x, z)
		},
	}
}

// Store returns the chunk store the driver operates on.
func (d *Driver) Store() *world.Store { return d.store }

// Fluid returns the fluid simulator (component D), for callers that need
// to schedule an update directly (e.g. on block placement).
func (d *Driver) Fluid() *fluid.Simulator { return d.fluidSim }

// Redstone returns the redstone simulator (component E).
func (d *Driver) Redstone() *redstone.Simulator { return d.redstoneSim }

// Items returns the dropped-item manager (component J).
func (d *Driver) Items() *item.Manager { return d.items }

// CurrentTick returns the number of ticks the driver has advanced.
func (d *Driver) CurrentTick() uint64 { return d.tick }

// SetInputSink wires a consumer for per-tick input (spec.md §4.8 step 1).
func (d *Driver) SetInputSink(sink InputSink) { d.inputSink = sink }

// SetGroundHeight overrides the default "highest non-air voxel" ground
// height function used by the item manager's physics.
func (d *Driver) SetGroundHeight(fn GroundHeightFunc) { d.groundHeight = fn }

// UseReplayPlayer drives step 1 of each tick from a recorded input log
// instead of (or alongside) live input.
func (d *Driver) UseReplayPlayer(p *replay.ReplayPlayer) { d.replayPlayer = p }

// UseEventLogger records every event emitted via EmitEvent for later replay
// validation (spec.md §4.7).
func (d *Driver) UseEventLogger(l *replay.EventLogger) { d.eventLogger = l }

// EmitEvent logs a network event through the active event logger, if any.
func (d *Driver) EmitEvent(e replay.Event) error {
	if d.eventLogger == nil {
		return nil
	}
	return d.eventLogger.Log(e)
}

// Tick advances the simulation by exactly one tick, implementing spec.md
// §4.8's six-step algorithm. liveInputs are merged with any replay-player
// inputs scheduled for this tick (step 1); both are optional.
func (d *Driver) Tick(liveInputs []replay.InputLogEntry) error {
	d.tick++

	// Step 1: consume inputs.
	d.consumeInputs(liveInputs)

	// Dropped-item physics is independent of the fluid/redstone/lighting
	// ordering contract (spec.md §4.9 names no relative order against
	// §4.8's six steps), so it runs once per tick alongside step 1-2.
	d.items.Tick(func(x, z float64) float64 { return d.groundHeight(d.store, x, z) })
	d.items.MergeNearbyItems()

	// Step 2: fluid precedes redstone (spec.md §5 ordering guarantee).
	d.fluidSim.Tick(d.store)
	d.redstoneSim.Tick(d.store)

	// Step 3: drain dirty sets from both simulators and the store.
	dirtyMesh := make(map[cube.ChunkPos]struct{})
	dirtyLight := make(map[cube.ChunkPos]struct{})
	for _, pos := range d.fluidSim.TakeDirtyChunks() {
		dirtyMesh[pos] = struct{}{}
	}
	for _, pos := range d.fluidSim.TakeDirtyLightChunks() {
		dirtyLight[pos] = struct{}{}
	}
	for _, pos := range d.redstoneSim.TakeDirtyChunks() {
		dirtyMesh[pos] = struct{}{}
	}
	for _, pos := range d.redstoneSim.TakeDirtyLightChunks() {
		dirtyLight[pos] = struct{}{}
	}
	for _, pos := range d.store.DirtyMeshChunks() {
		dirtyMesh[pos] = struct{}{}
	}
	for _, pos := range d.store.DirtyLightChunks() {
		dirtyLight[pos] = struct{}{}
	}

	// Step 4: recompute light locally for each dirty-light chunk, unioning
	// the affected set back into dirty-chunks.
	lightPositions := sortedKeys(dirtyLight)
	op := d.store.Opacity()
	for _, pos := range lightPositions {
		for _, affected := range light.RecomputeSkylightLocal(d.store.Chunks(), op, pos) {
			dirtyMesh[affected] = struct{}{}
		}
		for _, affected := range light.RecomputeBlockLightLocal(d.store.Chunks(), op, pos) {
			dirtyMesh[affected] = struct{}{}
		}
	}
	for pos := range dirtyMesh {
		d.store.MarkMeshDirty(pos)
	}

	// Step 5: dirty-chunks are left marked on the store for the renderer
	// to drain at its own pace via TakeDirtyMeshChunks; the driver itself
	// never meshes inside a tick (spec.md §4.8 step 5).

	return nil
}

// consumeInputs forwards replay-player and live inputs for the current
// tick to the configured InputSink, if any.
func (d *Driver) consumeInputs(liveInputs []replay.InputLogEntry) {
	if d.inputSink == nil {
		return
	}
	if d.replayPlayer != nil {
		for _, entry := range d.replayPlayer.InputsForTick(d.tick) {
			d.inputSink.HandleInput(entry)
		}
	}
	for _, entry := range liveInputs {
		d.inputSink.HandleInput(entry)
	}
}

// TakeDirtyMeshChunks drains the set of chunks needing a remesh (spec.md
// §4.8 step 5). The renderer calls this at its own pace, never inside
// Tick.
func (d *Driver) TakeDirtyMeshChunks() []cube.ChunkPos {
	return d.store.DirtyMeshChunks()
}

// Save persists every loaded chunk plus world meta/state at an explicit
// save point (spec.md §4.8 step 6, §5 "Saving never observes a mid-tick
// chunk"). Callers must only call Save between ticks.
func (d *Driver) Save(simTimeSeconds float64, weatherOn bool, weatherTimer, nextWeatherChange float32) error {
	if d.regionStore == nil {
		return nil
	}
	if !d.regionStore.WorldMetaExists() {
		if err := d.regionStore.SaveWorldMeta(region.WorldMeta{Seed: d.store.Seed()}); err != nil {
			return fmt.Errorf("engine: save world meta: %w", err)
		}
	}
	state := region.WorldState{
		Tick:                     int64(d.tick),
		SimTimeSeconds:           simTimeSeconds,
		WeatherOn:                weatherOn,
		WeatherTimerSeconds:      weatherTimer,
		NextWeatherChangeSeconds: nextWeatherChange,
	}
	if err := d.regionStore.SaveWorldState(state); err != nil {
		return fmt.Errorf("engine: save world state: %w", err)
	}

	var saveErr error
	positions := make([]cube.ChunkPos, 0)
	for pos := range d.store.Chunks() {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].X() != positions[j].X() {
			return positions[i].X() < positions[j].X()
		}
		return positions[i].Z() < positions[j].Z()
	})
	for _, pos := range positions {
		c := d.store.Chunk(pos)
		if c == nil {
			continue
		}
		if err := d.regionStore.SaveChunk(pos, c); err != nil {
			saveErr = fmt.Errorf("engine: save chunk %v: %w", pos, err)
			d.log.Error("save chunk failed", "pos", pos, "error", err)
			break
		}
	}
	return saveErr
}

func sortedKeys(set map[cube.ChunkPos]struct{}) []cube.ChunkPos {
	out := make([]cube.ChunkPos, 0, len(set))
	for pos := range set {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X() != out[j].X() {
			return out[i].X() < out[j].X()
		}
		return out[i].Z() < out[j].Z()
	})
	return out
}

// defaultGroundHeight scans downward from the world's max Y at the voxel
// column under (x, z) for the first non-air cell, returning its top
// surface. This is the simplest legal implementation of the item
// manager's ground-height callback (spec.md §4.9 leaves the provider
// unspecified, only its contract: "ground_height+0.25").
func defaultGroundHeight(s *world.Store, x, z float64) float64 {
	rnge := s.Range()
	bx, bz := int(floor(x)), int(floor(z))
	for y := rnge.Max(); y >= rnge.Min(); y-- {
		v := s.GetVoxel(cube.Pos{bx, y, bz})
		if v.ID != 0 {
			return float64(y) + 1
		}
	}
	return float64(rnge.Min())
}

func floor(f float64) float64 {
	i := float64(int(f))
	if f < 0 && i != f {
		return i - 1
	}
	return i
}
