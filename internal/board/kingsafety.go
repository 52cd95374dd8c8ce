package board

// kingSafety summarizes the threats against the king of the side to move.
type kingSafety struct {
	king Square

	// pinned holds our pieces that are the only piece between our king and
	// an enemy slider moving along that line.
	pinned Bitboard

	// attackLines holds, for every checking piece, its square and the
	// squares between it and our king.
	attackLines Bitboard

	checkers int

	// accessible holds the squares the king can step to without being
	// attacked. Castling is not included.
	accessible Bitboard
}

func (ks *kingSafety) inCheck() bool     { return ks.checkers > 0 }
func (ks *kingSafety) doubleCheck() bool { return ks.checkers == 2 }

var kingRays = [8]struct {
	df, dr   int
	diagonal bool
}{
	{0, 1, false}, {0, -1, false}, {1, 0, false}, {-1, 0, false},
	{1, 1, true}, {-1, 1, true}, {1, -1, true}, {-1, -1, true},
}

// analyzeKingSafety computes pins, checks and safe king squares.
func analyzeKingSafety(b Board) kingSafety {
	ks := kingSafety{king: b.ourKing()}
	kf, kr := ks.king.File(), ks.king.Rank()

	for _, ray := range kingRays {
		sliders := b.theirs & b.rooks
		if ray.diagonal {
			sliders = b.theirs & b.bishops
		}

		var line Bitboard
		candidate := NoSquare
		for f, r := kf+ray.df, kr+ray.dr; onBoard(f, r); f, r = f+ray.df, r+ray.dr {
			sq := NewSquare(f, r)
			line = line.Set(sq)
			if b.ours.IsSet(sq) {
				if candidate != NoSquare {
					break
				}
				candidate = sq
				continue
			}
			if b.theirs.IsSet(sq) {
				if sliders.IsSet(sq) {
					if candidate != NoSquare {
						ks.pinned = ks.pinned.Set(candidate)
					} else {
						ks.attackLines |= line
						ks.checkers++
					}
				}
				break
			}
		}
	}

	leapers := knightAttacks[ks.king]&b.knights()&b.theirs |
		pawnAttacks[ks.king]&b.pawns&b.theirs
	ks.attackLines |= leapers
	ks.checkers += leapers.PopCount()

	for targets := kingAttacks[ks.king] &^ b.ours; targets != 0; {
		sq := targets.PopLSB()
		if (ks.attackLines &^ b.theirs).IsSet(sq) {
			continue
		}
		if !b.squareIsUnderAttack(sq) {
			ks.accessible = ks.accessible.Set(sq)
		}
	}
	return ks
}
