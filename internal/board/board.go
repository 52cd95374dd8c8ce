package board

// Board is the piece placement seen from the side to move. "Ours" are the
// pieces of the side to move, and that side always plays toward rank 8:
// when black is to move the whole board is stored vertically flipped and
// Mirrored is set. Queens are kept in both the rook and the bishop sets;
// knights are the pieces in no type set.
type Board struct {
	ours, theirs Bitboard
	pawns        Bitboard
	rooks        Bitboard // rooks and queens
	bishops      Bitboard // bishops and queens
	kings        Bitboard
	mirrored     bool
}

// Mirror swaps the two sides and flips every set vertically.
func (b Board) Mirror() Board {
	return Board{
		ours:     b.theirs.Mirror(),
		theirs:   b.ours.Mirror(),
		pawns:    b.pawns.Mirror(),
		rooks:    b.rooks.Mirror(),
		bishops:  b.bishops.Mirror(),
		kings:    b.kings.Mirror(),
		mirrored: !b.mirrored,
	}
}

// IsMirrored reports whether black is to move.
func (b Board) IsMirrored() bool {
	return b.mirrored
}

// SideToMove returns the color of "ours".
func (b Board) SideToMove() Color {
	if b.mirrored {
		return Black
	}
	return White
}

func (b Board) occupied() Bitboard {
	return b.ours | b.theirs
}

func (b Board) knights() Bitboard {
	return b.occupied() &^ (b.pawns | b.rooks | b.bishops | b.kings)
}

func (b Board) queens() Bitboard {
	return b.rooks & b.bishops
}

// ourKing returns the square of the king of the side to move.
func (b Board) ourKing() Square {
	return (b.ours & b.kings).LSB()
}

// typeAt returns the piece type on sq in the board's own frame.
func (b Board) typeAt(sq Square) PieceType {
	bb := SquareBB(sq)
	switch {
	case b.occupied()&bb == 0:
		return NoPieceType
	case b.pawns&bb != 0:
		return Pawn
	case b.kings&bb != 0:
		return King
	case b.rooks&b.bishops&bb != 0:
		return Queen
	case b.rooks&bb != 0:
		return Rook
	case b.bishops&bb != 0:
		return Bishop
	default:
		return Knight
	}
}

// put places a piece of type pt in the board's own frame. Existing
// contents of sq are removed first.
func (b *Board) put(sq Square, pt PieceType, ours bool) {
	b.remove(sq)
	if ours {
		b.ours = b.ours.Set(sq)
	} else {
		b.theirs = b.theirs.Set(sq)
	}
	switch pt {
	case Pawn:
		b.pawns = b.pawns.Set(sq)
	case Bishop:
		b.bishops = b.bishops.Set(sq)
	case Rook:
		b.rooks = b.rooks.Set(sq)
	case Queen:
		b.rooks = b.rooks.Set(sq)
		b.bishops = b.bishops.Set(sq)
	case King:
		b.kings = b.kings.Set(sq)
	}
}

func (b *Board) remove(sq Square) {
	mask := ^SquareBB(sq)
	b.ours &= mask
	b.theirs &= mask
	b.pawns &= mask
	b.rooks &= mask
	b.bishops &= mask
	b.kings &= mask
}

// PieceAt returns the piece on a real board square.
func (b Board) PieceAt(sq Square) Piece {
	local := sq
	if b.mirrored {
		local = sq.Mirror()
	}
	pt := b.typeAt(local)
	if pt == NoPieceType {
		return NoPiece
	}
	c := b.SideToMove()
	if b.theirs.IsSet(local) {
		c = c.Other()
	}
	return NewPiece(pt, c)
}

// squareIsUnderAttack reports whether any of their pieces attacks sq. Our
// king is left out of the occupancy so that a slider checking it also
// covers the squares behind it.
func (b Board) squareIsUnderAttack(sq Square) bool {
	occ := (b.ours &^ b.kings) | b.theirs
	return RookAttacks(sq, occ)&b.theirs&b.rooks != 0 ||
		BishopAttacks(sq, occ)&b.theirs&b.bishops != 0 ||
		knightAttacks[sq]&b.theirs&b.knights() != 0 ||
		pawnAttacks[sq]&b.theirs&b.pawns != 0 ||
		kingAttacks[sq]&b.theirs&b.kings != 0
}

// String draws the board in real coordinates, rank 8 on top.
func (b Board) String() string {
	buf := make([]byte, 0, 8*18+18)
	for rank := 7; rank >= 0; rank-- {
		buf = append(buf, byte('1'+rank), ' ')
		for file := 0; file < 8; file++ {
			p := b.PieceAt(NewSquare(file, rank))
			if p == NoPiece {
				buf = append(buf, '.', ' ')
			} else {
				buf = append(buf, p.String()[0], ' ')
			}
		}
		buf = append(buf, '\n')
	}
	return string(append(buf, "  a b c d e f g h\n"...))
}
