package board

import (
	"errors"
	"testing"
)

func TestParseFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"rnbqkb1r/pppp1ppp/5n2/3Pp3/8/8/PPP1PPPP/RNBQKBNR w KQkq e6 0 3",
		"r1bq1rk1/pp2ppb1/2np1np1/8/3NP1Pp/1BN1BP2/PPPQ3P/R3K2R b KQ g3 0 11",
		"r1bq1rk1/pp2ppb1/2np1np1/8/3NP1Pp/1BN1BP2/PPPQ3P/R3K2R b - - 3 20",
		"8/1k1PP3/8/8/8/8/3p2K1/8 w - - 4 9",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			if got := pos.FEN(); got != fen {
				t.Errorf("FEN() = %q", got)
			}
		})
	}
}

func TestParseFENDefaults(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatal(err)
	}
	if pos.HalfMoveClock() != 0 || pos.FullMoveNumber() != 1 {
		t.Errorf("clocks = %d %d, want 0 1", pos.HalfMoveClock(), pos.FullMoveNumber())
	}
	if got := pos.FEN(); got != "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1" {
		t.Errorf("FEN() = %q", got)
	}
}

func TestParseFENQueries(t *testing.T) {
	pos := MustParseFEN("r1bq1rk1/pp2ppb1/2np1np1/8/3NP1Pp/1BN1BP2/PPPQ3P/R3K2R b KQ g3 0 11")
	if pos.SideToMove() != Black {
		t.Error("black should be to move")
	}
	if !pos.CanCastleShort(White) || !pos.CanCastleLong(White) {
		t.Error("white keeps both castling rights")
	}
	if pos.CanCastleShort(Black) || pos.CanCastleLong(Black) {
		t.Error("black has no castling rights")
	}
	if pos.EnPassantSquare() != G3 {
		t.Errorf("EnPassantSquare() = %v, want g3", pos.EnPassantSquare())
	}
	if got := pos.PieceAt(H4); got != BlackPawn {
		t.Errorf("PieceAt(h4) = %v", got)
	}
	if got := pos.PieceAt(D2); got != WhiteQueen {
		t.Errorf("PieceAt(d2) = %v", got)
	}
	if got := pos.PieceAt(E5); got != NoPiece {
		t.Errorf("PieceAt(e5) = %v", got)
	}
}

func TestParseFENRejects(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"no white king", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQ1BNR w kq - 0 1"},
		{"two white kings", "4k3/8/8/8/8/8/8/K3K3 w - - 0 1"},
		{"opponent in check", "8/1k4R1/8/8/8/8/6K1/8 w - - 0 1"},
		{"two fields", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w"},
		{"seven fields", StartFEN + " 0"},
		{"plus separators", "rnbqkbnr+pppppppp+8+8+8+8+PPPPPPPP+RNBQKBNR w KQkq - 0 1"},
		{"nine rows", "rnbqkbnr/pppppppp/8/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"short row", "rnbqkbnr/pppppppp/7/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"long row", "rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad piece", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBXKBNR w KQkq - 0 1"},
		{"bad side", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1"},
		{"bad castling char", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkx - 0 1"},
		{"en passant h9", "rnbqkbnr/pppp1ppp/8/3Pp3/8/8/PPP1PPPP/RNBQKBNR w KQkq h9 0 3"},
		{"en passant h8", "rnbqkbnr/pppp1ppp/8/3Pp3/8/8/PPP1PPPP/RNBQKBNR w KQkq h8 0 3"},
		{"en passant without pawn", "rnbqkbnr/pppppppp/8/3P4/8/8/PPP1PPPP/RNBQKBNR w KQkq e6 0 3"},
		{"king not on e1", "rnbkqbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBKQBNR w KQkq - 0 1"},
		{"missing rooks", "1nbqkbn1/pppppppp/8/8/8/8/PPPPPPPP/1NBQKBN1 w KQkq - 0 1"},
		{"queen is not a rook", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNQ w K - 0 1"},
		{"pawn on rank 8", "rnbqkbnP/pppppppp/8/8/8/8/PPPPPPP1/RNBQKBNR w Qkq - 0 1"},
		{"pawn on rank 1", "rnbqkbnr/ppppppp1/8/8/8/8/PPPPPPPP/RNBQKBNp w Qkq - 0 1"},
		{"non-numeric half moves", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - - 1"},
		{"non-numeric full moves", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 -"},
		{"negative half moves", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1"},
		{"zero full moves", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFEN(tc.fen)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrInvalidFEN) {
				t.Errorf("error %v does not match ErrInvalidFEN", err)
			}
			var fenErr *FENError
			if !errors.As(err, &fenErr) || fenErr.FEN != tc.fen {
				t.Errorf("error %v is not a *FENError for the input", err)
			}
		})
	}
}

func TestKingCountCheckedBeforeCheck(t *testing.T) {
	// No black king at all: the check test must not run on a missing king.
	_, err := ParseFEN("8/8/8/8/8/8/8/R3K3 w - - 0 1")
	var fenErr *FENError
	if !errors.As(err, &fenErr) {
		t.Fatalf("ParseFEN error = %v", err)
	}
	if fenErr.Reason != "each side needs exactly one king" {
		t.Errorf("reason = %q", fenErr.Reason)
	}
}
