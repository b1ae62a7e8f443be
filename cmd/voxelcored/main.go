// Command voxelcored is the informative CLI surface of the simulation core
// (spec.md §6: "the core accepts no CLI; the surrounding shell may pass:
// world-dir path, world-seed, max-ticks, scripted-input path, save/no-save,
// reset-world"). It drives the engine.Driver through a bounded run and
// exits non-zero on persistence, version, or CRC errors (spec.md §6 exit
// code contract).
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/0x4D44/voxelcore/block"
	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/engine"
	"github.com/0x4D44/voxelcore/region"
	"github.com/0x4D44/voxelcore/replay"
	"github.com/0x4D44/voxelcore/world/fluid"
	"github.com/0x4D44/voxelcore/world/redstone"
)

func main() {
	worldDir := flag.String("world-dir", "world", "directory holding region/world-meta/world-state files")
	seed := flag.Int64("world-seed", 0, "world generation seed (used only when no world-meta exists)")
	maxTicks := flag.Uint64("max-ticks", 0, "stop after this many ticks (0 = unbounded)")
	scriptedInput := flag.String("scripted-input", "", "path to a recorded JSONL input log to replay instead of live input")
	save := flag.Bool("save", true, "persist world state at shutdown")
	resetWorld := flag.Bool("reset-world", false, "delete any existing world directory before starting")
	flag.Parse()

	log := slog.Default()
	if err := run(log, *worldDir, *seed, *maxTicks, *scriptedInput, *save, *resetWorld); err != nil {
		log.Error("voxelcored exiting", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, worldDir string, seed int64, maxTicks uint64, scriptedInput string, save, resetWorld bool) error {
	if resetWorld {
		if err := os.RemoveAll(worldDir); err != nil {
			return fmt.Errorf("reset world: %w", err)
		}
	}

	registry := block.NewDefaultRegistry()
	store, err := region.NewStore(worldDir)
	if err != nil {
		return fmt.Errorf("open region store: %w", err)
	}

	if store.WorldMetaExists() {
		meta, err := store.LoadWorldMeta()
		if err != nil {
			if errors.Is(err, region.ErrVersionUnsupported) {
				return fmt.Errorf("world upgrade required: %w", err)
			}
			return fmt.Errorf("load world meta: %w", err)
		}
		seed = meta.Seed
	}

	conf := engine.Config{
		Log:         log,
		Registry:    registry,
		Range:       cube.DefaultRange,
		Seed:        seed,
		Store:       store,
		FluidIDs:    defaultFluidIDs(),
		RedstoneIDs: defaultRedstoneIDs(),
	}
	driver := engine.New(conf)

	var player *replay.ReplayPlayer
	if scriptedInput != "" {
		player, err = replay.LoadReplayPlayer(scriptedInput)
		if err != nil {
			return fmt.Errorf("load scripted input: %w", err)
		}
		driver.UseReplayPlayer(player)
	}

	for maxTicks == 0 || driver.CurrentTick() < maxTicks {
		if err := driver.Tick(nil); err != nil {
			return fmt.Errorf("tick %d: %w", driver.CurrentTick(), err)
		}
		if player != nil && player.IsFinished() {
			break
		}
	}

	if save {
		if err := driver.Save(0, false, 0, 0); err != nil {
			return fmt.Errorf("final save: %w", err)
		}
	}
	log.Info("voxelcored clean shutdown", "ticks", driver.CurrentTick())
	return nil
}

func defaultFluidIDs() fluid.IDs {
	return fluid.IDs{
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

func defaultRedstoneIDs() redstone.IDs {
	return redstone.IDs{
		Lever:         block.Lever,
		Button:        block.Button,
		PressurePlate: block.PressurePlate,
		Wire:          block.RedstoneWire,
		Torch:         block.RedstoneTorch,
		TorchLit:      block.RedstoneTorchLit,
		Lamp:          block.RedstoneLamp,
		LampLit:       block.RedstoneLampLit,
		Repeater:      block.Repeater,
		Comparator:    block.Comparator,
		Observer:      block.Observer,
	}
}
