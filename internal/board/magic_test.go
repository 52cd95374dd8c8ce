package board

import (
	"math/rand"
	"testing"
)

func TestMagicTableSizes(t *testing.T) {
	var rook, bishop int
	for sq := A1; sq <= H8; sq++ {
		rook += 1 << rookMagics[sq].Mask.PopCount()
		bishop += 1 << bishopMagics[sq].Mask.PopCount()
		if want := uint8(64 - rookMagics[sq].Mask.PopCount()); rookMagics[sq].Shift != want {
			t.Errorf("rook shift on %v = %d, want %d", sq, rookMagics[sq].Shift, want)
		}
	}
	if rook != rookTableSize {
		t.Errorf("rook entries = %d, want %d", rook, rookTableSize)
	}
	if bishop != bishopTableSize {
		t.Errorf("bishop entries = %d, want %d", bishop, bishopTableSize)
	}
}

func TestMasksExcludeSquareAndEdges(t *testing.T) {
	tests := []struct {
		sq   Square
		rook int
	}{
		{A1, 12}, {H8, 12}, {E4, 10}, {D1, 11},
	}
	for _, tc := range tests {
		m := rookMask(tc.sq)
		if m.IsSet(tc.sq) {
			t.Errorf("rook mask of %v contains the square", tc.sq)
		}
		if got := m.PopCount(); got != tc.rook {
			t.Errorf("rook mask of %v has %d squares, want %d", tc.sq, got, tc.rook)
		}
	}
	for sq := A1; sq <= H8; sq++ {
		if bishopMask(sq)&edges != 0 {
			t.Errorf("bishop mask of %v touches the edge", sq)
		}
	}
}

func TestMagicAttacksMatchRayCasting(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for sq := A1; sq <= H8; sq++ {
		for i := 0; i < 1000; i++ {
			// Sparse and dense boards.
			occ := Bitboard(rng.Uint64() & rng.Uint64())
			if i%2 == 1 {
				occ = Bitboard(rng.Uint64() | rng.Uint64())
			}
			if got, want := RookAttacks(sq, occ), rookAttacksSlow(sq, occ); got != want {
				t.Fatalf("RookAttacks(%v, %#x) =\n%v want\n%v", sq, uint64(occ), got, want)
			}
			if got, want := BishopAttacks(sq, occ), bishopAttacksSlow(sq, occ); got != want {
				t.Fatalf("BishopAttacks(%v, %#x) =\n%v want\n%v", sq, uint64(occ), got, want)
			}
			if got, want := QueenAttacks(sq, occ), rookAttacksSlow(sq, occ)|bishopAttacksSlow(sq, occ); got != want {
				t.Fatalf("QueenAttacks(%v, %#x) =\n%v want\n%v", sq, uint64(occ), got, want)
			}
		}
	}
}

func TestLineBitboards(t *testing.T) {
	tests := []struct {
		name string
		got  Bitboard
		want []Square
	}{
		{"row 0", RowBB(0), []Square{A1, B1, C1, D1, E1, F1, G1, H1}},
		{"row 7", RowBB(7), []Square{A8, B8, C8, D8, E8, F8, G8, H8}},
		{"col 0", ColBB(0), []Square{A1, A2, A3, A4, A5, A6, A7, A8}},
		{"col 4", ColBB(4), []Square{E1, E2, E3, E4, E5, E6, E7, E8}},
		{"diags a1", DiagsBB(A1), []Square{B2, C3, D4, E5, F6, G7, H8}},
		{"diags h1", DiagsBB(H1), []Square{G2, F3, E4, D5, C6, B7, A8}},
		{"diags d4", DiagsBB(D4), []Square{A1, G1, B2, F2, C3, E3, C5, E5, B6, F6, A7, G7, H8}},
		{"queen e1 blocked", QueenAttacks(E1, SquareBB(E2)|SquareBB(D1)|SquareBB(F2)),
			[]Square{D1, F1, G1, H1, D2, E2, F2, C3, B4, A5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.got.Squares()
			if len(got) != len(tc.want) {
				t.Fatalf("Squares() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("Squares() = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestBoardIsMirrored(t *testing.T) {
	white := MustParseFEN(StartFEN).Board()
	black := MustParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1").Board()
	if white.IsMirrored() || white.SideToMove() != White {
		t.Errorf("white to move: mirrored=%v side=%v", white.IsMirrored(), white.SideToMove())
	}
	if !black.IsMirrored() || black.SideToMove() != Black {
		t.Errorf("black to move: mirrored=%v side=%v", black.IsMirrored(), black.SideToMove())
	}
}

func TestSlidingAttacksStopAtFirstBlocker(t *testing.T) {
	occ := SquareBB(E6) | SquareBB(C4) | SquareBB(E2)
	got := RookAttacks(E4, occ)
	want := SquareBB(E5) | SquareBB(E6) | SquareBB(D4) | SquareBB(C4) |
		SquareBB(F4) | SquareBB(G4) | SquareBB(H4) | SquareBB(E3) | SquareBB(E2)
	if got != want {
		t.Errorf("RookAttacks(e4) =\n%v want\n%v", got, want)
	}
	if got := BishopAttacks(A1, 0).PopCount(); got != 7 {
		t.Errorf("bishop on empty a1 attacks %d squares, want 7", got)
	}
}

func TestLeaperTables(t *testing.T) {
	if got := KnightAttacks(A1); got != SquareBB(B3)|SquareBB(C2) {
		t.Errorf("KnightAttacks(a1) =\n%v", got)
	}
	if got := KnightAttacks(E4).PopCount(); got != 8 {
		t.Errorf("knight on e4 attacks %d squares, want 8", got)
	}
	if got := KingAttacks(H8); got != SquareBB(G8)|SquareBB(G7)|SquareBB(H7) {
		t.Errorf("KingAttacks(h8) =\n%v", got)
	}
	if got := PawnAttacks(E4, White); got != SquareBB(D5)|SquareBB(F5) {
		t.Errorf("white pawn attacks from e4 =\n%v", got)
	}
	if got := PawnAttacks(A5, Black); got != SquareBB(B4) {
		t.Errorf("black pawn attacks from a5 =\n%v", got)
	}
}

func TestBitboardMirror(t *testing.T) {
	if got := Rank2.Mirror(); got != Rank7 {
		t.Errorf("Rank2.Mirror() = %#x", uint64(got))
	}
	for sq := A1; sq <= H8; sq++ {
		if SquareBB(sq).Mirror() != SquareBB(sq.Mirror()) {
			t.Errorf("mirror of %v disagrees with square mirror", sq)
		}
	}
}
