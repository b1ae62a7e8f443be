package region

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
	"github.com/0x4D44/voxelcore/world/chunk"
)

func TestSaveLoadChunkRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	pos := cube.ChunkPos{3, -5}
	c := chunk.New(cube.DefaultRange)
	c.SetVoxel(cube.LocalPos{8, 64, 8}, voxel.Voxel{ID: 42, State: 7, LightSky: 15, LightBlock: 3})

	if err := store.SaveChunk(pos, c); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}

	loaded, ok, err := store.LoadChunk(pos)
	if err != nil {
		t.Fatalf("LoadChunk: %v", err)
	}
	if !ok {
		t.Fatalf("LoadChunk ok = false, want true")
	}
	got := loaded.Voxel(cube.LocalPos{8, 64, 8})
	want := voxel.Voxel{ID: 42, State: 7, LightSky: 15, LightBlock: 3}
	if got != want {
		t.Fatalf("round-tripped voxel = %v, want %v (S11)", got, want)
	}
	if other := loaded.Voxel(cube.LocalPos{0, 0, 0}); other != voxel.Air {
		t.Fatalf("untouched voxel should round-trip as air, got %v", other)
	}
}

func TestRegionCorruptPayloadRejected(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	pos := cube.ChunkPos{0, 0}
	c := chunk.New(cube.DefaultRange)
	c.SetVoxel(cube.LocalPos{1, 1, 1}, voxel.Voxel{ID: 9})
	if err := store.SaveChunk(pos, c); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}

	regionX, regionZ := ChunkToRegion(pos)
	path := filepath.Join(dir, fmt.Sprintf("r.%d.%d.rg", regionX, regionZ))
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read region file: %v", err)
	}
	// Flip a byte inside the compressed payload, past the header.
	raw[headerSize] ^= 0xFF
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write corrupted region file: %v", err)
	}

	_, _, err = store.LoadChunk(pos)
	if !errors.Is(err, ErrCorruptPayload) {
		t.Fatalf("LoadChunk after corruption = %v, want ErrCorruptPayload (S12)", err)
	}
}

func TestWorldMetaRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.WorldMetaExists() {
		t.Fatalf("fresh store should report no world meta")
	}
	if err := store.SaveWorldMeta(WorldMeta{Seed: 1234}); err != nil {
		t.Fatalf("SaveWorldMeta: %v", err)
	}
	got, err := store.LoadWorldMeta()
	if err != nil {
		t.Fatalf("LoadWorldMeta: %v", err)
	}
	if got.Seed != 1234 {
		t.Fatalf("Seed = %d, want 1234", got.Seed)
	}
}
