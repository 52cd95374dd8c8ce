package board

import (
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/corentings/chess/v2"
)

func moveStrings(moves []Move) []string {
	s := make([]string, len(moves))
	for i, m := range moves {
		s[i] = m.String()
	}
	slices.Sort(s)
	return s
}

func hasMove(p *Position, text string) bool {
	return slices.Contains(moveStrings(p.LegalMoves()), text)
}

func TestStartingPositionMoves(t *testing.T) {
	pos := StartingPosition()
	if got := len(pos.LegalMoves()); got != 20 {
		t.Fatalf("start position has %d moves, want 20", got)
	}
	for _, m := range []string{"e2e4", "e2e3", "g1f3", "b1a3"} {
		if !hasMove(pos, m) {
			t.Errorf("missing %s", m)
		}
	}
	if pos.IsCheck() || pos.IsCheckmate() || pos.IsStalemate() {
		t.Error("start position reports check, mate or stalemate")
	}
}

func TestEnPassantDiscoveredRankCheck(t *testing.T) {
	pos := MustParseFEN("8/1k6/8/r3pP1K/8/8/8/8 w - e6 0 1")
	if hasMove(pos, "f5e6") {
		t.Error("f5e6 exposes the king along the fifth rank")
	}
	if !hasMove(pos, "f5f6") {
		t.Error("missing f5f6")
	}
}

func TestEnPassantResolvesPawnCheck(t *testing.T) {
	// d7d5 gave check; capturing the checker en passant is legal.
	pos := MustParseFEN("8/8/8/3pP3/4K3/8/8/k7 w - d6 0 1")
	if !pos.IsCheck() {
		t.Fatal("expected check from the d5 pawn")
	}
	if !hasMove(pos, "e5d6") {
		t.Error("e5d6 captures the checking pawn")
	}
}

func TestCastlingThroughAttackedSquares(t *testing.T) {
	pos := MustParseFEN("r1bqkb1r/pppp1ppp/2n2n2/1B2p3/4P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4")
	var king []string
	for _, m := range moveStrings(pos.LegalMoves()) {
		if strings.HasPrefix(m, "e1") {
			king = append(king, m)
		}
	}
	want := []string{"e1e2", "e1f1", "e1g1"}
	if !slices.Equal(king, want) {
		t.Errorf("king moves = %v, want %v", king, want)
	}

	tests := []struct {
		name string
		fen  string
		move string
		ok   bool
	}{
		{"short", "4k3/8/8/8/8/8/8/4K2R w K - 0 1", "e1g1", true},
		{"long", "4k3/8/8/8/8/8/8/R3K3 w Q - 0 1", "e1c1", true},
		{"no right", "4k3/8/8/8/8/8/8/4K2R w - - 0 1", "e1g1", false},
		{"f1 attacked", "4kr2/8/8/8/8/8/8/4K2R w K - 0 1", "e1g1", false},
		{"g1 attacked", "4k1r1/8/8/8/8/8/8/4K2R w K - 0 1", "e1g1", false},
		{"in check", "4r1k1/8/8/8/8/8/8/4K2R w K - 0 1", "e1g1", false},
		{"b1 attacked is fine", "1r2k3/8/8/8/8/8/8/R3K3 w Q - 0 1", "e1c1", true},
		{"b1 occupied", "4k3/8/8/8/8/8/8/RN2K3 w Q - 0 1", "e1c1", false},
		{"d1 attacked", "3rk3/8/8/8/8/8/8/R3K3 w Q - 0 1", "e1c1", false},
		{"black short", "4k2r/8/8/8/8/8/8/4K3 b k - 0 1", "e8g8", true},
		{"black long", "r3k3/8/8/8/8/8/8/4K3 b q - 0 1", "e8c8", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := hasMove(MustParseFEN(tc.fen), tc.move); got != tc.ok {
				t.Errorf("%s legal = %v, want %v", tc.move, got, tc.ok)
			}
		})
	}
}

func TestCheckmateAndStalemate(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		mate      bool
		stalemate bool
	}{
		{"smothered", "6rk/5Npp/8/8/8/8/8/6K1 b - - 0 2", true, false},
		{"back rank", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", true, false},
		{"king takes rook", "6Rk/8/8/8/8/8/8/K7 b - - 0 1", false, false},
		{"stalemate", "3Q4/pk6/p7/P2P4/8/8/6K1/8 b - - 0 2", false, true},
		{"start", StartFEN, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			if got := pos.IsCheckmate(); got != tc.mate {
				t.Errorf("IsCheckmate() = %v, want %v", got, tc.mate)
			}
			if got := pos.IsStalemate(); got != tc.stalemate {
				t.Errorf("IsStalemate() = %v, want %v", got, tc.stalemate)
			}
			if tc.mate && tc.stalemate {
				t.Fatal("bad test case")
			}
			if (tc.mate || tc.stalemate) && len(pos.LegalMoves()) != 0 {
				t.Errorf("terminal position has moves %v", moveStrings(pos.LegalMoves()))
			}
		})
	}
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	pos := MustParseFEN("4k3/8/8/8/8/8/4r3/R3K2r w - - 0 1")
	if !pos.IsDoubleCheck() {
		t.Fatal("expected double check")
	}
	if got := moveStrings(pos.LegalMoves()); !slices.Equal(got, []string{"e1e2"}) {
		t.Errorf("moves = %v, want [e1e2]", got)
	}
}

func TestPinnedPieces(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		allowed []string
		banned  []string
	}{
		{
			name:    "rook pinned on file slides along it",
			fen:     "4r1k1/8/8/8/8/8/4R3/4K3 w - - 0 1",
			allowed: []string{"e2e3", "e2e8"},
			banned:  []string{"e2d2", "e2f2"},
		},
		{
			name:   "bishop pinned on file is frozen",
			fen:    "4r1k1/8/8/8/8/8/4B3/4K3 w - - 0 1",
			banned: []string{"e2d3", "e2f3", "e2d1"},
		},
		{
			name:    "queen pinned on diagonal",
			fen:     "6k1/8/8/8/7b/8/5Q2/4K3 w - - 0 1",
			allowed: []string{"f2g3", "f2h4"},
			banned:  []string{"f2f3", "f2e2", "f2g1"},
		},
		{
			name:   "knight pinned",
			fen:    "4r1k1/8/8/8/8/8/4N3/4K3 w - - 0 1",
			banned: []string{"e2c3", "e2g3", "e2d4"},
		},
		{
			name:    "pawn pinned on diagonal captures the pinner",
			fen:     "6k1/8/8/8/8/6b1/5P2/4K3 w - - 0 1",
			allowed: []string{"f2g3"},
			banned:  []string{"f2f3", "f2f4"},
		},
		{
			name:    "pawn pinned on file pushes",
			fen:     "4r1k1/8/8/8/8/3b4/4P3/4K3 w - - 0 1",
			allowed: []string{"e2e3", "e2e4"},
			banned:  []string{"e2d3"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			for _, m := range tc.allowed {
				if !hasMove(pos, m) {
					t.Errorf("missing %s", m)
				}
			}
			for _, m := range tc.banned {
				if hasMove(pos, m) {
					t.Errorf("%s should be illegal", m)
				}
			}
		})
	}
}

func TestPromotionsProduceFourMoves(t *testing.T) {
	pos := MustParseFEN("8/1k1PP3/8/8/8/8/3p2K1/8 w - - 4 9")
	for _, m := range []string{"d7d8N", "d7d8B", "d7d8R", "d7d8Q", "e7e8Q"} {
		if !hasMove(pos, m) {
			t.Errorf("missing %s", m)
		}
	}
	if hasMove(pos, "d7d8") {
		t.Error("a pawn reaching the last rank must promote")
	}
}

func TestMirrorIsInvolution(t *testing.T) {
	for _, fen := range []string{StartFEN, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"} {
		b := MustParseFEN(fen).Board()
		if b.Mirror().Mirror() != b {
			t.Errorf("mirror twice changed %s", fen)
		}
		if b.Mirror() == b {
			t.Errorf("mirror did not change %s", fen)
		}
	}
}

// flipFEN swaps the colors and flips the board vertically.
func flipFEN(fen string) string {
	f := strings.Fields(fen)
	ranks := strings.Split(f[0], "/")
	slices.Reverse(ranks)
	swapCase := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' {
				return r - 'a' + 'A'
			}
			if r >= 'A' && r <= 'Z' {
				return r - 'A' + 'a'
			}
			return r
		}, s)
	}
	f[0] = swapCase(strings.Join(ranks, "/"))
	if f[1] == "w" {
		f[1] = "b"
	} else {
		f[1] = "w"
	}
	if f[2] != "-" {
		swapped := swapCase(f[2])
		var cr strings.Builder
		for _, c := range "KQkq" {
			if strings.ContainsRune(swapped, c) {
				cr.WriteRune(c)
			}
		}
		f[2] = cr.String()
	}
	if f[3] != "-" {
		sq, _ := ParseSquare(f[3])
		f[3] = sq.Mirror().String()
	}
	return strings.Join(f, " ")
}

func TestColorFlippedPositionHasMirroredMoves(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
		"r2q1rk1/pP1p2pp/Q4n2/bbp1p3/Np6/1B3NBn/pPPP1PPP/R3K2R b KQ - 0 1",
	}
	for _, fen := range fens {
		pos := MustParseFEN(fen)
		flipped := MustParseFEN(flipFEN(fen))
		if flipped.Board().Mirror().Mirror() != flipped.Board() {
			t.Fatalf("mirror not an involution for %s", fen)
		}

		want := make([]string, 0, pos.NumLegalMoves())
		for _, m := range pos.LegalMoves() {
			want = append(want, m.mirror().String())
		}
		slices.Sort(want)
		if got := moveStrings(flipped.LegalMoves()); !slices.Equal(got, want) {
			t.Errorf("%s:\n got %v\nwant %v", fen, got, want)
		}
	}
}

// randomGame plays uniformly random legal moves and returns the positions
// visited.
func randomGame(rng *rand.Rand, pos *Position, plies int) []*Position {
	positions := []*Position{pos}
	for i := 0; i < plies; i++ {
		moves := pos.LegalMoves()
		if len(moves) == 0 {
			break
		}
		next, err := pos.ApplyMove(moves[rng.Intn(len(moves))])
		if err != nil {
			panic(err)
		}
		pos = next
		positions = append(positions, pos)
	}
	return positions
}

func TestRandomGamesInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for game := 0; game < 20; game++ {
		for _, pos := range randomGame(rng, StartingPosition(), 120) {
			moves := moveStrings(pos.LegalMoves())
			if len(slices.Compact(slices.Clone(moves))) != len(moves) {
				t.Fatalf("duplicate moves in %s: %v", pos.FEN(), moves)
			}
			for _, m := range pos.LegalMoves() {
				next, err := pos.ApplyMove(m)
				if err != nil {
					t.Fatalf("%s: %v", pos.FEN(), err)
				}
				// The side that just moved must not be left in check.
				b := next.Board().Mirror()
				if b.squareIsUnderAttack(b.ourKing()) {
					t.Fatalf("%s leaves the king attacked in %s", m, pos.FEN())
				}
			}
			round, err := ParseFEN(pos.FEN())
			if err != nil {
				t.Fatalf("reparse %s: %v", pos.FEN(), err)
			}
			if !round.Equal(pos) {
				t.Fatalf("FEN round trip changed %s into %s", pos.FEN(), round.FEN())
			}
		}
	}
}

func TestLegalMovesMatchCorentingsChess(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for game := 0; game < 10; game++ {
		for _, pos := range randomGame(rng, StartingPosition(), 100) {
			if pos.HalfMoveClock() >= 100 {
				continue
			}
			opt, err := chess.FEN(pos.FEN())
			if err != nil {
				t.Fatalf("oracle rejected %s: %v", pos.FEN(), err)
			}
			var want []string
			for _, m := range chess.NewGame(opt).ValidMoves() {
				want = append(want, strings.ToLower(m.String()))
			}
			slices.Sort(want)

			got := moveStrings(pos.LegalMoves())
			for i := range got {
				got[i] = strings.ToLower(got[i])
			}
			slices.Sort(got)
			if !slices.Equal(got, want) {
				t.Fatalf("%s:\n got %v\nwant %v", pos.FEN(), got, want)
			}
		}
	}
}
