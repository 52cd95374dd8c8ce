package board

// ApplyMove returns the position after m. The receiver is not modified.
// A move that is not legal returns an *IllegalMoveError.
func (p *Position) ApplyMove(m Move) (*Position, error) {
	if !p.IsLegal(m) {
		return nil, &IllegalMoveError{Move: m.String(), FEN: p.FEN()}
	}
	return p.play(p.toLocalMove(m)), nil
}

// ApplyMoveString parses coordinate text and applies it. Malformed text
// gives a *MoveSyntaxError, a legal-looking but illegal move an
// *IllegalMoveError.
func (p *Position) ApplyMoveString(s string) (*Position, error) {
	m, err := ParseMove(s)
	if err != nil {
		return nil, err
	}
	return p.ApplyMove(m)
}

// play performs a legal move given in the side-to-move frame.
func (p *Position) play(m Move) *Position {
	b := p.board
	us := b.SideToMove()
	moved := b.typeAt(m.From)
	capture := b.theirs.IsSet(m.To)
	enPassant := moved == Pawn && m.To == p.epSquare

	halfMove := p.halfMoveClock + 1
	if moved == Pawn || capture {
		halfMove = 0
	}
	fullMove := p.fullMoveNumber
	if b.mirrored {
		fullMove++
	}

	cr := p.castling
	ep := NoSquare

	if enPassant {
		b.remove(m.To - 8)
	}
	placed := moved
	if m.Promotion != NoPromotion {
		placed = m.Promotion.PieceType()
	}
	b.remove(m.From)
	b.put(m.To, placed, true)

	switch moved {
	case King:
		if m.From == E1 && m.To == G1 {
			b.remove(H1)
			b.put(F1, Rook, true)
		} else if m.From == E1 && m.To == C1 {
			b.remove(A1)
			b.put(D1, Rook, true)
		}
		cr &^= shortCastle(us) | longCastle(us)
	case Pawn:
		// The target is only recorded when an enemy pawn could use it.
		if m.To == m.From+16 {
			to := SquareBB(m.To)
			if (to.East()|to.West())&b.theirs&b.pawns != 0 {
				ep = m.From + 8
			}
		}
	}

	switch m.From {
	case H1:
		cr &^= shortCastle(us)
	case A1:
		cr &^= longCastle(us)
	}
	switch m.To {
	case H8:
		cr &^= shortCastle(us.Other())
	case A8:
		cr &^= longCastle(us.Other())
	}

	if ep != NoSquare {
		ep = ep.Mirror()
	}
	return newPosition(b.Mirror(), cr, ep, halfMove, fullMove)
}
