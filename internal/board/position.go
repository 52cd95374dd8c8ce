package board

import (
	"strings"
	"sync"
)

// CastlingRights is the set of castling options still available, by color.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

func shortCastle(c Color) CastlingRights {
	if c == Black {
		return BlackKingSideCastle
	}
	return WhiteKingSideCastle
}

func longCastle(c Color) CastlingRights {
	if c == Black {
		return BlackQueenSideCastle
	}
	return WhiteQueenSideCastle
}

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Position is an immutable chess position. It is safe for concurrent use;
// the legal moves are computed at most once, on first demand.
//
// Positions are created by StartingPosition, ParseFEN or ApplyMove.
type Position struct {
	board    Board
	castling CastlingRights

	// epSquare is the en passant target in the side-to-move frame (always
	// on the sixth rank there), or NoSquare.
	epSquare Square

	halfMoveClock  int
	fullMoveNumber int

	memo *analysis
}

// analysis is the lazily computed move generator output.
type analysis struct {
	once   sync.Once
	safety kingSafety
	moves  []Move // side-to-move frame
}

func newPosition(b Board, cr CastlingRights, ep Square, halfMove, fullMove int) *Position {
	return &Position{
		board:          b,
		castling:       cr,
		epSquare:       ep,
		halfMoveClock:  halfMove,
		fullMoveNumber: fullMove,
		memo:           new(analysis),
	}
}

// StartingPosition returns the initial chess position.
func StartingPosition() *Position {
	return MustParseFEN(StartFEN)
}

func (p *Position) analyze() *analysis {
	p.memo.once.Do(func() {
		p.memo.safety = analyzeKingSafety(p.board)
		p.memo.moves = generateMoves(p.board, &p.memo.safety, p.castling, p.epSquare)
	})
	return p.memo
}

// Board returns the placement seen from the side to move.
func (p *Position) Board() Board { return p.board }

// SideToMove returns the color to play.
func (p *Position) SideToMove() Color { return p.board.SideToMove() }

// CastlingRights returns the remaining castling options.
func (p *Position) CastlingRights() CastlingRights { return p.castling }

// CanCastleShort reports whether c keeps the king side castling right.
// The right says nothing about whether castling is legal right now.
func (p *Position) CanCastleShort(c Color) bool { return p.castling&shortCastle(c) != 0 }

// CanCastleLong reports whether c keeps the queen side castling right.
func (p *Position) CanCastleLong(c Color) bool { return p.castling&longCastle(c) != 0 }

// EnPassantSquare returns the en passant target in real coordinates, or
// NoSquare.
func (p *Position) EnPassantSquare() Square {
	return p.toReal(p.epSquare)
}

// HalfMoveClock returns the number of half moves since the last capture
// or pawn move.
func (p *Position) HalfMoveClock() int { return p.halfMoveClock }

// FullMoveNumber starts at 1 and increases after each black move.
func (p *Position) FullMoveNumber() int { return p.fullMoveNumber }

// PieceAt returns the piece on sq, NoPiece when empty.
func (p *Position) PieceAt(sq Square) Piece { return p.board.PieceAt(sq) }

func (p *Position) IsCheck() bool       { return p.analyze().safety.inCheck() }
func (p *Position) IsDoubleCheck() bool { return p.analyze().safety.doubleCheck() }

// IsCheckmate reports a side to move in check without legal moves.
func (p *Position) IsCheckmate() bool {
	a := p.analyze()
	return a.safety.inCheck() && len(a.moves) == 0
}

// IsStalemate reports a side to move not in check without legal moves.
func (p *Position) IsStalemate() bool {
	a := p.analyze()
	return !a.safety.inCheck() && len(a.moves) == 0
}

// IsFiftyMoveRule reports whether a draw may be claimed under the fifty
// move rule. The game is not ended by this.
func (p *Position) IsFiftyMoveRule() bool { return p.halfMoveClock >= 100 }

// LegalMoves returns the legal moves in real coordinates. The slice is
// freshly allocated and owned by the caller.
func (p *Position) LegalMoves() []Move {
	local := p.analyze().moves
	moves := make([]Move, len(local))
	for i, m := range local {
		moves[i] = p.toRealMove(m)
	}
	return moves
}

// NumLegalMoves avoids the allocation of LegalMoves.
func (p *Position) NumLegalMoves() int { return len(p.analyze().moves) }

// IsLegal reports whether m is one of the legal moves.
func (p *Position) IsLegal(m Move) bool {
	if m.From >= NoSquare || m.To >= NoSquare {
		return false
	}
	local := p.toLocalMove(m)
	for _, lm := range p.analyze().moves {
		if lm == local {
			return true
		}
	}
	return false
}

// MovePieceType returns the type of the piece m moves.
func (p *Position) MovePieceType(m Move) PieceType {
	return p.PieceAt(m.From).Type()
}

// IsEnPassantCapture reports whether m is a pawn capturing en passant.
func (p *Position) IsEnPassantCapture(m Move) bool {
	return p.epSquare != NoSquare && m.To == p.EnPassantSquare() &&
		p.MovePieceType(m) == Pawn && m.From.File() != m.To.File()
}

// IsCapture reports whether m removes an enemy piece.
func (p *Position) IsCapture(m Move) bool {
	if m.To >= NoSquare {
		return false
	}
	target := p.PieceAt(m.To)
	return (target != NoPiece && target.Color() != p.SideToMove()) || p.IsEnPassantCapture(m)
}

// IsShortCastling reports a king move from the e-file to the g-file.
func (p *Position) IsShortCastling(m Move) bool {
	return p.MovePieceType(m) == King && m.From.File() == 4 && m.To.File() == 6
}

// IsLongCastling reports a king move from the e-file to the c-file.
func (p *Position) IsLongCastling(m Move) bool {
	return p.MovePieceType(m) == King && m.From.File() == 4 && m.To.File() == 2
}

// EqualIgnoreMoveCounts compares placement, side to move, castling rights
// and en passant target. Used for repetition detection.
func (p *Position) EqualIgnoreMoveCounts(o *Position) bool {
	return p.board == o.board && p.castling == o.castling && p.epSquare == o.epSquare
}

// Equal compares all fields including the move counters.
func (p *Position) Equal(o *Position) bool {
	return p.EqualIgnoreMoveCounts(o) &&
		p.halfMoveClock == o.halfMoveClock && p.fullMoveNumber == o.fullMoveNumber
}

// String draws the board followed by the FEN.
func (p *Position) String() string {
	return p.board.String() + p.FEN() + "\n"
}

func (p *Position) toReal(sq Square) Square {
	if sq == NoSquare || !p.board.mirrored {
		return sq
	}
	return sq.Mirror()
}

func (p *Position) toRealMove(m Move) Move {
	if p.board.mirrored {
		return m.mirror()
	}
	return m
}

// toLocalMove converts to the side-to-move frame. Mirroring is its own
// inverse.
func (p *Position) toLocalMove(m Move) Move {
	return p.toRealMove(m)
}
