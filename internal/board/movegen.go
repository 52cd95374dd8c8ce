package board

// generateMoves produces every legal move of the side to move, in the side
// to move frame. ks must be the king safety analysis of b.
func generateMoves(b Board, ks *kingSafety, cr CastlingRights, ep Square) []Move {
	moves := make([]Move, 0, 48)

	for targets := ks.accessible; targets != 0; {
		moves = append(moves, Move{From: ks.king, To: targets.PopLSB()})
	}
	if ks.doubleCheck() {
		return moves
	}

	moves = appendCastling(moves, b, ks, cr)
	moves = appendKnightMoves(moves, b, ks)
	moves = appendSliderMoves(moves, b, ks)
	moves = appendPawnMoves(moves, b, ks, ep)
	return moves
}

// appendCastling adds e1g1 and e1c1. The king may not castle out of, through
// or into check, and every square between king and rook must be empty.
func appendCastling(moves []Move, b Board, ks *kingSafety, cr CastlingRights) []Move {
	if ks.inCheck() || ks.king != E1 {
		return moves
	}
	us := b.SideToMove()
	occ := b.occupied()
	if cr&shortCastle(us) != 0 &&
		occ&(SquareBB(F1)|SquareBB(G1)) == 0 &&
		ks.accessible.IsSet(F1) && !b.squareIsUnderAttack(G1) {
		moves = append(moves, Move{From: E1, To: G1})
	}
	if cr&longCastle(us) != 0 &&
		occ&(SquareBB(B1)|SquareBB(C1)|SquareBB(D1)) == 0 &&
		ks.accessible.IsSet(D1) && !b.squareIsUnderAttack(C1) {
		moves = append(moves, Move{From: E1, To: C1})
	}
	return moves
}

// appendKnightMoves adds moves of unpinned knights. A pinned knight can
// never stay on the pin line.
func appendKnightMoves(moves []Move, b Board, ks *kingSafety) []Move {
	for knights := b.ours & b.knights() &^ ks.pinned; knights != 0; {
		from := knights.PopLSB()
		targets := knightAttacks[from] &^ b.ours
		if ks.inCheck() {
			targets &= ks.attackLines
		}
		moves = appendTargets(moves, from, targets)
	}
	return moves
}

// appendSliderMoves adds rook, bishop and queen moves. A pinned slider
// moves only along its pin line, and only when not in check.
func appendSliderMoves(moves []Move, b Board, ks *kingSafety) []Move {
	occ := b.occupied()
	kf, kr := ks.king.File(), ks.king.Rank()

	for sliders := b.ours & (b.rooks | b.bishops); sliders != 0; {
		from := sliders.PopLSB()
		var targets Bitboard
		if ks.pinned.IsSet(from) {
			if ks.inCheck() {
				continue
			}
			orthogonal := from.File() == kf || from.Rank() == kr
			if orthogonal && b.rooks.IsSet(from) {
				targets = RookAttacks(from, occ) & RookAttacks(ks.king, 0)
			}
			if !orthogonal && b.bishops.IsSet(from) {
				targets = BishopAttacks(from, occ) & BishopAttacks(ks.king, 0)
			}
		} else {
			if b.rooks.IsSet(from) {
				targets |= RookAttacks(from, occ)
			}
			if b.bishops.IsSet(from) {
				targets |= BishopAttacks(from, occ)
			}
			if ks.inCheck() {
				targets &= ks.attackLines
			}
		}
		moves = appendTargets(moves, from, targets&^b.ours)
	}
	return moves
}

// appendPawnMoves adds pushes, double pushes, captures, en passant captures
// and promotions.
func appendPawnMoves(moves []Move, b Board, ks *kingSafety, ep Square) []Move {
	occ := b.occupied()
	kf, kr := ks.king.File(), ks.king.Rank()
	inCheck := ks.inCheck()
	resolves := func(sq Square) bool { return !inCheck || ks.attackLines.IsSet(sq) }

	for pawns := b.ours & b.pawns; pawns != 0; {
		from := pawns.PopLSB()
		ff, fr := from.File(), from.Rank()
		pinned := ks.pinned.IsSet(from)

		if to := from + 8; (!pinned || ff == kf) && !occ.IsSet(to) {
			if resolves(to) {
				moves = appendPawnMove(moves, from, to)
			}
			if fr == 1 && !occ.IsSet(to+8) && resolves(to+8) {
				moves = append(moves, Move{From: from, To: to + 8})
			}
		}

		for _, dir := range [2]int{-1, 1} {
			if !onBoard(ff+dir, fr+1) {
				continue
			}
			to := NewSquare(ff+dir, fr+1)
			enPassant := to == ep
			if !b.theirs.IsSet(to) && !enPassant {
				continue
			}
			if pinned && ff-kf != dir*(fr-kr) {
				continue
			}
			if enPassant {
				captured := to - 8
				if enPassantExposesKing(b, from, to, captured, ks.king) {
					continue
				}
				if inCheck && !ks.attackLines.IsSet(to) && !ks.attackLines.IsSet(captured) {
					continue
				}
			} else if !resolves(to) {
				continue
			}
			moves = appendPawnMove(moves, from, to)
		}
	}
	return moves
}

// enPassantExposesKing catches the lines the pin analysis cannot see:
// capturer and captured pawn leave the king's rank together, or the
// captured pawn was the only blocker of a slider.
func enPassantExposesKing(b Board, from, to, captured, king Square) bool {
	occ := b.occupied()&^(SquareBB(from)|SquareBB(captured)) | SquareBB(to)
	return RookAttacks(king, occ)&b.theirs&b.rooks != 0 ||
		BishopAttacks(king, occ)&b.theirs&b.bishops != 0
}

func appendPawnMove(moves []Move, from, to Square) []Move {
	if to.Rank() != 7 {
		return append(moves, Move{From: from, To: to})
	}
	for _, pr := range promotions {
		moves = append(moves, Move{From: from, To: to, Promotion: pr})
	}
	return moves
}

func appendTargets(moves []Move, from Square, targets Bitboard) []Move {
	for targets != 0 {
		moves = append(moves, Move{From: from, To: targets.PopLSB()})
	}
	return moves
}
