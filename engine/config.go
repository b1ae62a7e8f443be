// Package engine implements the tick driver, component I of the simulation
// core (spec.md §4.8): it wires the fluid simulator, redstone simulator,
// lighting recomputation and dropped-item physics together into the
// single-threaded per-tick algorithm mandated by spec.md §5, and exposes
// explicit save points over the region store.
//
// Config/UserConfig follow server/conf.go's split: a UserConfig is the
// serialisable, TOML-backed shape a host loads from disk; calling
// UserConfig.Config resolves it (opening the region store, defaulting the
// logger) into a Config ready to build a Driver.
package engine

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/0x4D44/voxelcore/block"
	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/region"
	"github.com/0x4D44/voxelcore/world"
	"github.com/0x4D44/voxelcore/world/fluid"
	"github.com/0x4D44/voxelcore/world/redstone"
)

// Config contains everything a Driver needs to run.
type Config struct {
	// Log is the Logger used for tick-level diagnostics. Defaults to
	// slog.Default() when nil, matching server/conf.go's Config.New().
	Log *slog.Logger
	// Registry is the block capability lookup table (component B).
	Registry block.Registry
	// Range is the world's height range.
	Range cube.Range
	// Seed is the world generation seed.
	Seed int64
	// Store persists chunks, world meta and world state. Nil disables
	// persistence entirely (an in-memory-only run, e.g. for tests).
	Store *region.Store
	// Generator produces chunks with no persisted region entry. Nil falls
	// back to world.Store's own empty-chunk default.
	Generator world.Generator
	// FluidIDs and RedstoneIDs wire the simulators to concrete block ids.
	FluidIDs    fluid.IDs
	RedstoneIDs redstone.IDs
}

// UserConfig is the serialisable, TOML-backed configuration a host loads
// from disk before constructing a Config (server/conf.go's UserConfig/
// Config split, generalised from "Minecraft server options" to "simulation
// core options").
type UserConfig struct {
	World struct {
		// Folder is the directory region/world-meta/world-state files live
		// in. Empty disables persistence.
		Folder string
		// Seed controls procedural generation when no region entry exists
		// for a requested chunk.
		Seed int64
		// MinY and MaxY bound the world's height range.
		MinY, MaxY int
	}
	Tick struct {
		// MaxTicks stops the driver after this many ticks; 0 means
		// unbounded (spec.md §6 CLI surface's "max-ticks").
		MaxTicks uint64
	}
	Replay struct {
		// InputLogPath optionally drives the tick driver from a recorded
		// input log instead of live input (spec.md §4.7).
		InputLogPath string
		// RecordEventLogPath optionally records every emitted network
		// event for later replay validation.
		RecordEventLogPath string
	}
}

// DefaultUserConfig returns a configuration with the default values filled
// out, mirroring server/conf.go's DefaultConfig.
func DefaultUserConfig() UserConfig {
	var c UserConfig
	c.World.Folder = "world"
	c.World.MinY = 0
	c.World.MaxY = 255
	return c
}

// LoadUserConfig reads a TOML configuration file, returning DefaultUserConfig
// values for any field the file omits (server/whitelist.go's
// read-then-unmarshal-over-defaults pattern).
func LoadUserConfig(path string) (UserConfig, error) {
	c := DefaultUserConfig()
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("engine: read config: %w", err)
	}
	if len(contents) != 0 {
		if err := toml.Unmarshal(contents, &c); err != nil {
			return c, fmt.Errorf("engine: decode config: %w", err)
		}
	}
	return c, nil
}

// Save writes the configuration back to path as TOML.
func (c UserConfig) Save(path string) error {
	encoded, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("engine: encode config: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("engine: write config: %w", err)
	}
	return nil
}

// Config resolves a UserConfig into a Config. log defaults to slog.Default()
// when nil. The Tick and Replay settings are not carried over: Config has no
// fields for them.
func (c UserConfig) Config(registry block.Registry, fluidIDs fluid.IDs, redstoneIDs redstone.IDs, log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	rnge := cube.Range{c.World.MinY, c.World.MaxY}

	conf := Config{
		Log:         log,
		Registry:    registry,
		Range:       rnge,
		Seed:        c.World.Seed,
		FluidIDs:    fluidIDs,
		RedstoneIDs: redstoneIDs,
	}
	if c.World.Folder != "" {
		store, err := region.NewStore(c.World.Folder)
		if err != nil {
			return conf, fmt.Errorf("engine: open region store: %w", err)
		}
		conf.Store = store
	}
	return conf, nil
}
