package cube

import "testing"

func TestChunkPosFloorDivision(t *testing.T) {
	cases := []struct {
		pos  Pos
		want ChunkPos
	}{
		{Pos{0, 64, 0}, ChunkPos{0, 0}},
		{Pos{15, 64, 15}, ChunkPos{0, 0}},
		{Pos{16, 64, 0}, ChunkPos{1, 0}},
		{Pos{-1, 64, -1}, ChunkPos{-1, -1}},
		{Pos{-16, 64, -16}, ChunkPos{-1, -1}},
		{Pos{-17, 64, 0}, ChunkPos{-2, 0}},
	}
	for _, c := range cases {
		if got := c.pos.ChunkPos(); got != c.want {
			t.Fatalf("%v.ChunkPos() = %v, want %v", c.pos, got, c.want)
		}
	}
}

func TestLocalPosRoundTrip(t *testing.T) {
	pos := Pos{-17, 70, 33}
	cp := pos.ChunkPos()
	lp := pos.LocalPos()
	if lp.X() < 0 || lp.X() >= ChunkSize || lp.Z() < 0 || lp.Z() >= ChunkSize {
		t.Fatalf("local pos %v out of chunk bounds", lp)
	}
	if got := lp.Block(cp); got != pos {
		t.Fatalf("LocalPos.Block round trip = %v, want %v", got, pos)
	}
}

func TestPosSide(t *testing.T) {
	p := Pos{5, 64, 5}
	if got := p.Side(FaceUp); got != (Pos{5, 65, 5}) {
		t.Fatalf("Side(FaceUp) = %v", got)
	}
	if got := p.Side(FaceNorth); got != (Pos{5, 64, 4}) {
		t.Fatalf("Side(FaceNorth) = %v", got)
	}
}
