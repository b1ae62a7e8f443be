// Package light implements the dual-channel (skylight/block-light) BFS
// propagation engine, component C of the simulation core (spec.md §4.3).
//
// The operations and their names (InitSkylight, AddBlockLight,
// RemoveBlockLight, ApplyCrossChunkUpdates, StitchLightSeams,
// RecomputeSkylightLocal, RecomputeBlockLightLocal) follow spec.md §4.3
// one-for-one; the two-phase reverse-BFS removal algorithm is ported from
// the original engine's lighting.rs. The single-chunk operations take a
// *chunk.Chunk and its cube.ChunkPos; the multi-chunk operations take a
// plain map[cube.ChunkPos]*chunk.Chunk rather than a world.Store.
package light

import (
	"sort"

	"github.com/0x4D44/voxelcore/cube"
	"github.com/0x4D44/voxelcore/voxel"
	"github.com/0x4D44/voxelcore/world/chunk"
)

// MaxLevel is the maximum value either light channel may hold.
const MaxLevel = voxel.MaxLight

// Channel distinguishes the two independent light channels.
type Channel uint8

const (
	Skylight Channel = iota
	BlockLight
)

func (c Channel) get(v voxel.Voxel) uint8 {
	if c == Skylight {
		return v.LightSky
	}
	return v.LightBlock
}

func (c Channel) set(v *voxel.Voxel, level uint8) {
	if c == Skylight {
		v.LightSky = level
	} else {
		v.LightBlock = level
	}
}

// Opacity reports whether a block id is opaque (never lit) and its
// block-light emission level, the only two registry facts the lighting
// engine consumes (spec.md §4.3 "Opaque cells... are never lit").
type Opacity interface {
	Opaque(id uint16) bool
	Emission(id uint16) uint8
}

// CrossChunkUpdate is a pending light write targeted at a chunk other than
// the one currently being processed (spec.md §4.3 op 1/2's "cross-chunk
// updates" output and op 4's input).
type CrossChunkUpdate struct {
	Target cube.ChunkPos
	Local  cube.LocalPos
	Level  uint8
	Channel Channel
}

// node is a BFS queue entry local to a single chunk.
type node struct {
	pos   cube.LocalPos
	level uint8
}

// queue is a FIFO BFS worklist, preserving the determinism contract of
// spec.md §4.3 ("BFS uses FIFO queues").
type queue struct {
	items []node
	head  int
}

func (q *queue) push(p cube.LocalPos, level uint8) { q.items = append(q.items, node{p, level}) }

func (q *queue) pop() (node, bool) {
	if q.head >= len(q.items) {
		return node{}, false
	}
	n := q.items[q.head]
	q.head++
	return n, true
}

// propagate drains q against a single chunk c at chunkPos, on the given
// channel, producing cross-chunk updates for neighbors outside c.
func propagate(c *chunk.Chunk, chunkPos cube.ChunkPos, ch Channel, op Opacity, q *queue) []CrossChunkUpdate {
	var out []CrossChunkUpdate
	for {
		n, ok := q.pop()
		if !ok {
			break
		}
		v := c.Voxel(n.pos)
		if ch.get(v) >= n.level {
			continue
		}
		ch.set(&v, n.level)
		c.SetVoxel(n.pos, v)
		if n.level == 0 {
			continue
		}
		for _, face := range cube.Faces() {
			nx, ny, nz := n.pos.X(), n.pos.Y(), n.pos.Z()
			switch face {
			case cube.FaceDown:
				ny--
			case cube.FaceUp:
				ny++
			case cube.FaceNorth:
				nz--
			case cube.FaceSouth:
				nz++
			case cube.FaceWest:
				nx--
			case cube.FaceEast:
				nx++
			}
			newLevel := n.level - 1
			if ch == Skylight && face == cube.FaceDown {
				// Skylight propagating straight down incurs no decay while
				// passing through non-opaque cells (spec.md §4.3).
				newLevel = n.level
			}
			if newLevel == 0 {
				continue
			}
			if ny < c.Range().Min() || ny > c.Range().Max() {
				continue
			}
			if nx < 0 || nx >= cube.ChunkSize || nz < 0 || nz >= cube.ChunkSize {
				target := chunkPos
				lx, lz := nx, nz
				if nx < 0 {
					target[0]--
					lx = cube.ChunkSize - 1
				} else if nx >= cube.ChunkSize {
					target[0]++
					lx = 0
				}
				if nz < 0 {
					target[1]--
					lz = cube.ChunkSize - 1
				} else if nz >= cube.ChunkSize {
					target[1]++
					lz = 0
				}
				out = append(out, CrossChunkUpdate{Target: target, Local: cube.LocalPos{lx, ny, lz}, Level: newLevel, Channel: ch})
				continue
			}
			neighbour := cube.LocalPos{nx, ny, nz}
			nv := c.Voxel(neighbour)
			if op.Opaque(nv.ID) {
				continue
			}
			q.push(neighbour, newLevel)
		}
	}
	return out
}

// InitSkylight seeds the top layer of the chunk with level 15 and BFS's
// downward/sideways, returning any cross-chunk updates (spec.md §4.3 op 1).
func InitSkylight(c *chunk.Chunk, chunkPos cube.ChunkPos, op Opacity) []CrossChunkUpdate {
	q := &queue{}
	top := c.Range().Max()
	for x := 0; x < cube.ChunkSize; x++ {
		for z := 0; z < cube.ChunkSize; z++ {
			q.push(cube.LocalPos{x, top, z}, MaxLevel)
		}
	}
	return propagate(c, chunkPos, Skylight, op, q)
}

// AddBlockLight enqueues pos at intensity and BFS's, returning any
// cross-chunk updates (spec.md §4.3 op 2).
func AddBlockLight(c *chunk.Chunk, chunkPos cube.ChunkPos, pos cube.LocalPos, intensity uint8, op Opacity) []CrossChunkUpdate {
	if intensity > MaxLevel {
		intensity = MaxLevel
	}
	q := &queue{}
	q.push(pos, intensity)
	return propagate(c, chunkPos, BlockLight, op, q)
}

// RemoveBlockLight performs the two-phase reverse-BFS removal described in
// spec.md §4.3 op 3 and the Design Notes' "subtlest correctness point":
// darken every cell whose level is strictly less than the level that
// reached it from the removed source, then re-propagate every encountered
// cell sustained by another source.
func RemoveBlockLight(c *chunk.Chunk, chunkPos cube.ChunkPos, pos cube.LocalPos, op Opacity) []CrossChunkUpdate {
	old := c.Voxel(pos).LightBlock
	if old == 0 {
		return nil
	}
	v := c.Voxel(pos)
	v.LightBlock = 0
	c.SetVoxel(pos, v)

	type entry struct {
		pos   cube.LocalPos
		level uint8
	}
	removal := []entry{{pos, old}}
	relight := &queue{}

	for i := 0; i < len(removal); i++ {
		cur := removal[i]
		for _, face := range cube.Faces() {
			nx, ny, nz := cur.pos.X(), cur.pos.Y(), cur.pos.Z()
			switch face {
			case cube.FaceDown:
				ny--
			case cube.FaceUp:
				ny++
			case cube.FaceNorth:
				nz--
			case cube.FaceSouth:
				nz++
			case cube.FaceWest:
				nx--
			case cube.FaceEast:
				nx++
			}
			if ny < c.Range().Min() || ny > c.Range().Max() || nx < 0 || nx >= cube.ChunkSize || nz < 0 || nz >= cube.ChunkSize {
				continue
			}
			np := cube.LocalPos{nx, ny, nz}
			nv := c.Voxel(np)
			if nv.LightBlock == 0 {
				continue
			}
			if nv.LightBlock < cur.level {
				// This neighbour was lit by the removed source; clear it
				// and keep unwinding from its own prior level.
				cleared := nv.LightBlock
				nv.LightBlock = 0
				c.SetVoxel(np, nv)
				removal = append(removal, entry{np, cleared})
			} else {
				// Stronger light source sustains this cell; re-propagate
				// from it instead of darkening it. The cell is cleared
				// before queueing because propagate skips a cell already
				// at the queued level.
				level := nv.LightBlock
				nv.LightBlock = 0
				c.SetVoxel(np, nv)
				relight.push(np, level)
			}
		}
	}
	return propagate(c, chunkPos, BlockLight, op, relight)
}

// ApplyCrossChunkUpdates consumes queued updates targeted at other chunks,
// looking each target up in chunks; for each, if the target cell's current
// level is less than the proposed level and the cell is non-opaque, it sets
// and continues BFS, generating further cross-chunk updates (spec.md §4.3
// op 4). Terminates because each cell's level only ever increases, bounded
// by MaxLevel.
func ApplyCrossChunkUpdates(chunks map[cube.ChunkPos]*chunk.Chunk, op Opacity, updates []CrossChunkUpdate) int {
	pending := append([]CrossChunkUpdate(nil), updates...)
	total := 0
	for len(pending) > 0 {
		u := pending[0]
		pending = pending[1:]

		c, ok := chunks[u.Target]
		if !ok {
			continue
		}
		v := c.Voxel(u.Local)
		if op.Opaque(v.ID) {
			continue
		}
		if u.Level <= u.Channel.get(v) {
			continue
		}
		total++

		q := &queue{}
		q.push(u.Local, u.Level)
		pending = append(pending, propagate(c, u.Target, u.Channel, op, q)...)
	}
	return total
}

// StitchLightSeams re-seeds from chunkPos's boundary voxels into its
// neighbors, used after persistence load or batch edits (spec.md §4.3
// op 5).
func StitchLightSeams(chunks map[cube.ChunkPos]*chunk.Chunk, op Opacity, chunkPos cube.ChunkPos, ch Channel) int {
	c, ok := chunks[chunkPos]
	if !ok {
		return 0
	}
	type seed struct {
		pos   cube.LocalPos
		level uint8
	}
	var seeds []seed
	enqueue := func(x, y, z int) {
		v := c.Voxel(cube.LocalPos{x, y, z})
		level := ch.get(v)
		if level == 0 {
			return
		}
		if ch == Skylight && op.Opaque(v.ID) {
			return
		}
		seeds = append(seeds, seed{cube.LocalPos{x, y, z}, level})
	}
	for y := c.Range().Min(); y <= c.Range().Max(); y++ {
		for x := 0; x < cube.ChunkSize; x++ {
			enqueue(x, y, 0)
			enqueue(x, y, cube.ChunkSize-1)
		}
		for z := 0; z < cube.ChunkSize; z++ {
			enqueue(0, y, z)
			enqueue(cube.ChunkSize-1, y, z)
		}
	}

	processed := 0
	type item struct {
		chunkPos cube.ChunkPos
		pos      cube.LocalPos
		level    uint8
	}
	queueItems := make([]item, 0, len(seeds))
	for _, s := range seeds {
		queueItems = append(queueItems, item{chunkPos, s.pos, s.level})
	}

	for i := 0; i < len(queueItems); i++ {
		it := queueItems[i]
		processed++
		for _, face := range cube.Faces() {
			targetChunk, targetPos, ok := neighbourBlock(it.chunkPos, it.pos, face, c.Range())
			if !ok {
				continue
			}
			nc, ok := chunks[targetChunk]
			if !ok {
				continue
			}
			v := nc.Voxel(targetPos)
			if op.Opaque(v.ID) {
				continue
			}
			newLevel := it.level - 1
			if ch == Skylight && face == cube.FaceDown {
				newLevel = it.level
			}
			if newLevel == 0 {
				continue
			}
			if ch.get(v) >= newLevel {
				continue
			}
			ch.set(&v, newLevel)
			nc.SetVoxel(targetPos, v)
			queueItems = append(queueItems, item{targetChunk, targetPos, newLevel})
		}
	}
	return processed
}

func neighbourBlock(chunkPos cube.ChunkPos, pos cube.LocalPos, face cube.Face, rnge cube.Range) (cube.ChunkPos, cube.LocalPos, bool) {
	cx, cz := chunkPos[0], chunkPos[1]
	lx, ly, lz := pos.X(), pos.Y(), pos.Z()
	switch face {
	case cube.FaceDown:
		ly--
	case cube.FaceUp:
		ly++
	case cube.FaceNorth:
		lz--
	case cube.FaceSouth:
		lz++
	case cube.FaceWest:
		lx--
	case cube.FaceEast:
		lx++
	}
	if ly < rnge.Min() || ly > rnge.Max() {
		return cube.ChunkPos{}, cube.LocalPos{}, false
	}
	if lx < 0 {
		cx--
		lx += cube.ChunkSize
	} else if lx >= cube.ChunkSize {
		cx++
		lx -= cube.ChunkSize
	}
	if lz < 0 {
		cz--
		lz += cube.ChunkSize
	} else if lz >= cube.ChunkSize {
		cz++
		lz -= cube.ChunkSize
	}
	return cube.ChunkPos{cx, cz}, cube.LocalPos{lx, ly, lz}, true
}

// chunksAround returns the loaded chunk positions within radius (inclusive,
// Chebyshev distance) of center, sorted for deterministic iteration.
func chunksAround(chunks map[cube.ChunkPos]*chunk.Chunk, center cube.ChunkPos, radius int32) []cube.ChunkPos {
	var out []cube.ChunkPos
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			pos := cube.ChunkPos{center[0] + dx, center[1] + dz}
			if _, ok := chunks[pos]; ok {
				out = append(out, pos)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// RecomputeSkylightLocal clears the 3x3 column around center, re-initializes
// skylight from the registry, then stitches a 5x5 border to import light
// from further neighbors. Returns the 5x5 set of affected chunk positions
// (spec.md §4.3 op 6).
func RecomputeSkylightLocal(chunks map[cube.ChunkPos]*chunk.Chunk, op Opacity, center cube.ChunkPos) []cube.ChunkPos {
	clear := chunksAround(chunks, center, 1)
	for _, pos := range clear {
		c := chunks[pos]
		for y := c.Range().Min(); y <= c.Range().Max(); y++ {
			for z := 0; z < cube.ChunkSize; z++ {
				for x := 0; x < cube.ChunkSize; x++ {
					lp := cube.LocalPos{x, y, z}
					v := c.Voxel(lp)
					if v.LightSky != 0 {
						v.LightSky = 0
						c.SetVoxel(lp, v)
					}
				}
			}
		}
	}

	var crossUpdates []CrossChunkUpdate
	for _, pos := range clear {
		crossUpdates = append(crossUpdates, InitSkylight(chunks[pos], pos, op)...)
	}
	ApplyCrossChunkUpdates(chunks, op, crossUpdates)

	seam := chunksAround(chunks, center, 2)
	for _, pos := range seam {
		StitchLightSeams(chunks, op, pos, Skylight)
	}
	return seam
}

// RecomputeBlockLightLocal clears block light for the 3x3 column around
// center, re-seeds every emissive voxel found there, then stitches a 5x5
// border (spec.md §4.3 op 6).
func RecomputeBlockLightLocal(chunks map[cube.ChunkPos]*chunk.Chunk, op Opacity, center cube.ChunkPos) []cube.ChunkPos {
	clear := chunksAround(chunks, center, 1)

	type source struct {
		chunkPos cube.ChunkPos
		pos      cube.LocalPos
		level    uint8
	}
	var sources []source
	for _, pos := range clear {
		c := chunks[pos]
		for y := c.Range().Min(); y <= c.Range().Max(); y++ {
			for z := 0; z < cube.ChunkSize; z++ {
				for x := 0; x < cube.ChunkSize; x++ {
					lp := cube.LocalPos{x, y, z}
					v := c.Voxel(lp)
					if emission := op.Emission(v.ID); emission > 0 {
						sources = append(sources, source{pos, lp, emission})
					}
					if v.LightBlock != 0 {
						v.LightBlock = 0
						c.SetVoxel(lp, v)
					}
				}
			}
		}
	}

	var crossUpdates []CrossChunkUpdate
	for _, s := range sources {
		crossUpdates = append(crossUpdates, AddBlockLight(chunks[s.chunkPos], s.chunkPos, s.pos, s.level, op)...)
	}
	ApplyCrossChunkUpdates(chunks, op, crossUpdates)

	seam := chunksAround(chunks, center, 2)
	for _, pos := range seam {
		StitchLightSeams(chunks, op, pos, BlockLight)
	}
	return seam
}
