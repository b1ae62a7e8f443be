// Package region implements region-based chunk persistence, component G of
// the simulation core (spec.md §3.5/§4.6/§6): 32x32-chunk region files with
// a CRC32+zstd-compressed payload, plus small world-meta and world-state
// blobs sharing the same header shape.
//
// Ported directly from original_source/crates/world/src/persist.rs: the
// 14-byte little-endian header (magic/version/crc32/payload_len), the
// REGION_SIZE=32 grouping, the "MDRG"/"MDWM"/"MDWS" magic numbers and the
// CRC32-then-zstd write order are all reproduced exactly, since spec.md §6
// pins this byte layout as part of the contract (anything reading a
// region.Store back must get the original chunk data, bit for bit).
// Compression uses github.com/klauspost/compress/zstd, the same library
// the teacher carries (indirectly) and oriumgames-pile/format/io.go uses
// for its own world-blob Read/Write pair — the io.go Read/Write shape
// (magic check, then version check, then a zstd.Reader wrapping the
// remaining bytes) is what this package's header round-trip follows.
package region

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
	"github.com/0x4D44/voxelcore/world/chunk"
)

const (
	regionMagic   uint32 = 0x4D445247 // "MDRG"
	regionVersion uint16 = 1

	worldMetaMagic   uint32 = 0x4D44574D // "MDWM"
	worldMetaVersion uint16 = 1

	worldStateMagic   uint32 = 0x4D445753 // "MDWS"
	worldStateVersion uint16 = 1

	// RegionSize is the number of chunks along one edge of a region file
	// (spec.md §3.5: "32x32 chunks per region").
	RegionSize = 32

	headerSize = 14 // 4 (magic) + 2 (version) + 4 (crc32) + 4 (payload_len)
)

// Sentinel errors, checked with errors.Is (spec.md §7's error-kind table).
var (
	ErrBadHeader          = errors.New("region: malformed header")
	ErrVersionUnsupported = errors.New("region: unsupported format version")
	ErrCorruptPayload     = errors.New("region: crc32 mismatch")
	ErrDecodeError        = errors.New("region: payload decode error")
	ErrNotFound           = errors.New("region: not found")
)

type header struct {
	magic      uint32
	version    uint16
	crc32      uint32
	payloadLen uint32
}

func (h header) bytes() []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(b[0:4], h.magic)
	binary.LittleEndian.PutUint16(b[4:6], h.version)
	binary.LittleEndian.PutUint32(b[6:10], h.crc32)
	binary.LittleEndian.PutUint32(b[10:14], h.payloadLen)
	return b
}

func parseHeader(b []byte, wantMagic uint32) (header, error) {
	if len(b) < headerSize {
		return header{}, fmt.Errorf("%w: got %d bytes, want %d", ErrBadHeader, len(b), headerSize)
	}
	h := header{
		magic:      binary.LittleEndian.Uint32(b[0:4]),
		version:    binary.LittleEndian.Uint16(b[4:6]),
		crc32:      binary.LittleEndian.Uint32(b[6:10]),
		payloadLen: binary.LittleEndian.Uint32(b[10:14]),
	}
	if h.magic != wantMagic {
		return header{}, fmt.Errorf("%w: expected 0x%08X, got 0x%08X", ErrBadHeader, wantMagic, h.magic)
	}
	return h, nil
}

// ChunkToRegion converts a chunk position to its region coordinates via
// floor division, matching persist.rs's chunk_to_region (div_euclid) —
// spec.md §3.3's negative-coordinate rule applies here too.
func ChunkToRegion(pos cube.ChunkPos) (regionX, regionZ int32) {
	return floorDiv32(pos.X(), RegionSize), floorDiv32(pos.Z(), RegionSize)
}

func floorDiv32(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// WorldMeta is the small blob capturing invariant world-level facts
// (spec.md §6 "world meta"): the seed, fixed at world creation.
type WorldMeta struct {
	Seed int64
}

// WorldState is the small blob capturing cross-chunk simulation state that
// must survive a save/load cycle (spec.md §6 "world state" + persist.rs's
// WorldState: weather toggle and timers, supplemented beyond spec.md's
// bare "current tick" since original_source carries them).
type WorldState struct {
	Tick                     int64
	SimTimeSeconds           float64
	WeatherOn                bool
	WeatherTimerSeconds      float32
	NextWeatherChangeSeconds float32
}

// Store is a region-file-backed chunk store rooted at a world directory.
type Store struct {
	dir string
}

// NewStore creates (if needed) worldDir and returns a Store rooted there.
func NewStore(worldDir string) (*Store, error) {
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		return nil, fmt.Errorf("region: create world directory: %w", err)
	}
	return &Store{dir: worldDir}, nil
}

func (s *Store) worldMetaPath() string  { return filepath.Join(s.dir, "world.meta") }
func (s *Store) worldStatePath() string { return filepath.Join(s.dir, "world.state") }

func (s *Store) regionPath(regionX, regionZ int32) string {
	return filepath.Join(s.dir, fmt.Sprintf("r.%d.%d.rg", regionX, regionZ))
}

// WorldMetaExists reports whether a world-meta blob is present on disk.
func (s *Store) WorldMetaExists() bool {
	_, err := os.Stat(s.worldMetaPath())
	return err == nil
}

// SaveWorldMeta writes the world-meta blob.
func (s *Store) SaveWorldMeta(meta WorldMeta) error {
	return writeBlob(s.worldMetaPath(), worldMetaMagic, worldMetaVersion, encodeWorldMeta(meta))
}

// LoadWorldMeta reads the world-meta blob.
func (s *Store) LoadWorldMeta() (WorldMeta, error) {
	data, err := readBlob(s.worldMetaPath(), worldMetaMagic, worldMetaVersion)
	if err != nil {
		return WorldMeta{}, err
	}
	return decodeWorldMeta(data)
}

// WorldStateExists reports whether a world-state blob is present on disk.
func (s *Store) WorldStateExists() bool {
	_, err := os.Stat(s.worldStatePath())
	return err == nil
}

// SaveWorldState writes the world-state blob.
func (s *Store) SaveWorldState(state WorldState) error {
	return writeBlob(s.worldStatePath(), worldStateMagic, worldStateVersion, encodeWorldState(state))
}

// LoadWorldState reads the world-state blob.
func (s *Store) LoadWorldState() (WorldState, error) {
	data, err := readBlob(s.worldStatePath(), worldStateMagic, worldStateVersion)
	if err != nil {
		return WorldState{}, err
	}
	return decodeWorldState(data)
}

// SaveChunk persists c into its region file, updating (not replacing) any
// other chunks already stored in that region.
func (s *Store) SaveChunk(pos cube.ChunkPos, c *chunk.Chunk) error {
	regionX, regionZ := ChunkToRegion(pos)
	entries, err := s.loadRegionEntries(regionX, regionZ)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if entries == nil {
		entries = make(map[cube.ChunkPos][]byte)
	}
	entries[pos] = encodeChunk(c)
	return s.writeRegionEntries(regionX, regionZ, entries)
}

// LoadChunk reads pos back from its region file. ok is false (err nil) when
// the region file exists but has no entry for pos, distinguishing "not yet
// generated" from a persistence error (spec.md §4.1's Loader contract).
func (s *Store) LoadChunk(pos cube.ChunkPos) (*chunk.Chunk, bool, error) {
	regionX, regionZ := ChunkToRegion(pos)
	entries, err := s.loadRegionEntries(regionX, regionZ)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, ok := entries[pos]
	if !ok {
		return nil, false, nil
	}
	c, err := decodeChunk(data)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// ChunkExists reports whether pos has a persisted entry, without fully
// decoding it. Any read/parse error is treated as "does not exist".
func (s *Store) ChunkExists(pos cube.ChunkPos) bool {
	regionX, regionZ := ChunkToRegion(pos)
	entries, err := s.loadRegionEntries(regionX, regionZ)
	if err != nil {
		return false
	}
	_, ok := entries[pos]
	return ok
}

// DeleteRegion removes a region file outright (spec.md §9 Open Question
// "region deletion": resolved here as an explicit, whole-file operation
// rather than an implicit side effect of saving an empty region, since a
// region with zero resident chunks is a legitimate, if unusual, state and
// callers should not lose neighboring in-flight writes by accident).
func (s *Store) DeleteRegion(regionX, regionZ int32) error {
	err := os.Remove(s.regionPath(regionX, regionZ))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("region: delete region file: %w", err)
	}
	return nil
}

func (s *Store) loadRegionEntries(regionX, regionZ int32) (map[cube.ChunkPos][]byte, error) {
	path := s.regionPath(regionX, regionZ)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("region: read region file: %w", err)
	}
	h, err := parseHeader(raw, regionMagic)
	if err != nil {
		return nil, err
	}
	if h.version != regionVersion {
		return nil, fmt.Errorf("%w: region file version %d, engine supports %d (world upgrade required)", ErrVersionUnsupported, h.version, regionVersion)
	}
	payload := raw[headerSize:]
	if uint32(len(payload)) < h.payloadLen {
		return nil, fmt.Errorf("%w: truncated payload", ErrBadHeader)
	}
	payload = payload[:h.payloadLen]
	if crc32.ChecksumIEEE(payload) != h.crc32 {
		return nil, ErrCorruptPayload
	}
	decompressed, err := zstdDecompress(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeError, err)
	}
	return decodeRegionEntries(decompressed)
}

func (s *Store) writeRegionEntries(regionX, regionZ int32, entries map[cube.ChunkPos][]byte) error {
	serialized := encodeRegionEntries(entries)
	compressed, err := zstdCompress(serialized)
	if err != nil {
		return fmt.Errorf("region: compress region: %w", err)
	}
	h := header{magic: regionMagic, version: regionVersion, crc32: crc32.ChecksumIEEE(compressed), payloadLen: uint32(len(compressed))}

	path := s.regionPath(regionX, regionZ)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("region: create region directory: %w", err)
	}
	var buf bytes.Buffer
	buf.Write(h.bytes())
	buf.Write(compressed)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("region: write region file: %w", err)
	}
	return nil
}

func writeBlob(path string, magic uint32, version uint16, payload []byte) error {
	compressed, err := zstdCompress(payload)
	if err != nil {
		return fmt.Errorf("region: compress blob: %w", err)
	}
	h := header{magic: magic, version: version, crc32: crc32.ChecksumIEEE(compressed), payloadLen: uint32(len(compressed))}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("region: create save directory: %w", err)
	}
	var buf bytes.Buffer
	buf.Write(h.bytes())
	buf.Write(compressed)
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func readBlob(path string, magic uint32, version uint16) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("region: read blob: %w", err)
	}
	h, err := parseHeader(raw, magic)
	if err != nil {
		return nil, err
	}
	if h.version != version {
		return nil, fmt.Errorf("%w: blob version %d, engine supports %d", ErrVersionUnsupported, h.version, version)
	}
	payload := raw[headerSize:]
	if uint32(len(payload)) < h.payloadLen {
		return nil, fmt.Errorf("%w: truncated payload", ErrBadHeader)
	}
	payload = payload[:h.payloadLen]
	if crc32.ChecksumIEEE(payload) != h.crc32 {
		return nil, ErrCorruptPayload
	}
	decompressed, err := zstdDecompress(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeError, err)
	}
	return decompressed, nil
}

func zstdCompress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// --- payload encoding --------------------------------------------------
//
// A hand-rolled flat binary layout stands in for the original's bincode;
// no general-purpose Go serialization library appears anywhere in the
// retrieval pack (encoding/gob is the closest stdlib analogue but is
// Go-specific and self-describing in a way this fixed, versioned wire
// format doesn't need), so every encode/decode pair below is a direct,
// explicit byte layout — justified stdlib use per spec.md §6's exact
// wire-format contract.

func encodeWorldMeta(m WorldMeta) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(m.Seed))
	return b
}

func decodeWorldMeta(b []byte) (WorldMeta, error) {
	if len(b) < 8 {
		return WorldMeta{}, fmt.Errorf("%w: world meta too short", ErrDecodeError)
	}
	return WorldMeta{Seed: int64(binary.LittleEndian.Uint64(b))}, nil
}

func encodeWorldState(s WorldState) []byte {
	b := make([]byte, 8+8+1+4+4)
	binary.LittleEndian.PutUint64(b[0:8], uint64(s.Tick))
	binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(s.SimTimeSeconds))
	if s.WeatherOn {
		b[16] = 1
	}
	binary.LittleEndian.PutUint32(b[17:21], math.Float32bits(s.WeatherTimerSeconds))
	binary.LittleEndian.PutUint32(b[21:25], math.Float32bits(s.NextWeatherChangeSeconds))
	return b
}

func decodeWorldState(b []byte) (WorldState, error) {
	if len(b) < 25 {
		return WorldState{}, fmt.Errorf("%w: world state too short", ErrDecodeError)
	}
	return WorldState{
		Tick:                     int64(binary.LittleEndian.Uint64(b[0:8])),
		SimTimeSeconds:           math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
		WeatherOn:                b[16] != 0,
		WeatherTimerSeconds:      math.Float32frombits(binary.LittleEndian.Uint32(b[17:21])),
		NextWeatherChangeSeconds: math.Float32frombits(binary.LittleEndian.Uint32(b[21:25])),
	}, nil
}

// encodeChunk flattens a chunk's voxel grid in the same (y*16+z)*16+x order
// its in-memory section layout already uses, one fixed-width record
// (ID, State, LightSky, LightBlock) per voxel, matching persist.rs's
// serialize_chunk "raw voxel array" shape.
func encodeChunk(c *chunk.Chunk) []byte {
	rnge := c.Range()
	n := rnge.Height() * cube.ChunkSize * cube.ChunkSize
	b := make([]byte, 4+n*6)
	binary.LittleEndian.PutUint32(b[0:4], uint32(int32(rnge.Min())))
	off := 4
	for y := rnge.Min(); y <= rnge.Max(); y++ {
		for z := 0; z < cube.ChunkSize; z++ {
			for x := 0; x < cube.ChunkSize; x++ {
				v := c.Voxel(cube.LocalPos{x, y, z})
				binary.LittleEndian.PutUint16(b[off:], v.ID)
				binary.LittleEndian.PutUint16(b[off+2:], v.State)
				b[off+4] = v.LightSky
				b[off+5] = v.LightBlock
				off += 6
			}
		}
	}
	return b
}

// decodeChunk rebuilds a chunk from encodeChunk's flat record layout.
func decodeChunk(data []byte) (*chunk.Chunk, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: chunk data too short", ErrDecodeError)
	}
	min := int(int32(binary.LittleEndian.Uint32(data[0:4])))
	rest := data[4:]
	if len(rest)%6 != 0 {
		return nil, fmt.Errorf("%w: chunk voxel record misaligned", ErrDecodeError)
	}
	n := len(rest) / 6
	height := n / (cube.ChunkSize * cube.ChunkSize)
	rnge := cube.Range{min, min + height - 1}
	c := chunk.New(rnge)
	off := 0
	for y := rnge.Min(); y <= rnge.Max(); y++ {
		for z := 0; z < cube.ChunkSize; z++ {
			for x := 0; x < cube.ChunkSize; x++ {
				v := voxel.Voxel{
					ID:         binary.LittleEndian.Uint16(rest[off:]),
					State:      binary.LittleEndian.Uint16(rest[off+2:]),
					LightSky:   rest[off+4],
					LightBlock: rest[off+5],
				}
				if v != voxel.Air {
					c.SetVoxel(cube.LocalPos{x, y, z}, v)
				}
				off += 6
			}
		}
	}
	return c, nil
}

// encodeRegionEntries/decodeRegionEntries serialize the per-region chunk
// map as a simple count-prefixed list of (chunkX, chunkZ, len, bytes)
// records, the Go equivalent of persist.rs's
// bincode::serialize::<HashMap<ChunkPos, Vec<u8>>>.
func encodeRegionEntries(entries map[cube.ChunkPos][]byte) []byte {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(entries)))
	buf.Write(lenBuf[:])
	for pos, data := range entries {
		var posBuf [8]byte
		binary.LittleEndian.PutUint32(posBuf[0:4], uint32(pos.X()))
		binary.LittleEndian.PutUint32(posBuf[4:8], uint32(pos.Z()))
		buf.Write(posBuf[:])
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
		buf.Write(lenBuf[:])
		buf.Write(data)
	}
	return buf.Bytes()
}

func decodeRegionEntries(data []byte) (map[cube.ChunkPos][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: region entry list too short", ErrDecodeError)
	}
	count := binary.LittleEndian.Uint32(data[0:4])
	off := 4
	entries := make(map[cube.ChunkPos][]byte, count)
	for i := uint32(0); i < count; i++ {
		if off+12 > len(data) {
			return nil, fmt.Errorf("%w: truncated region entry", ErrDecodeError)
		}
		x := int32(binary.LittleEndian.Uint32(data[off : off+4]))
		z := int32(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		n := binary.LittleEndian.Uint32(data[off+8 : off+12])
		off += 12
		if off+int(n) > len(data) {
			return nil, fmt.Errorf("%w: truncated region entry payload", ErrDecodeError)
		}
		entries[cube.ChunkPos{x, z}] = data[off : off+int(n)]
		off += int(n)
	}
	return entries, nil
}
