package board

import (
	"strconv"
	"strings"
)

// StartFEN is the FEN string of the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string with four to six fields. Missing clocks
// default to "0 1". Besides syntax, the position must be one that can
// occur: one king per side, the side not to move not in check, castling
// rights backed by king and rook on their home squares, an en passant
// target behind a just-pushed pawn and no pawns on the first or last rank.
func ParseFEN(fen string) (*Position, error) {
	fail := func(reason string) (*Position, error) {
		return nil, &FENError{FEN: fen, Reason: reason}
	}

	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return fail("need 4 to 6 fields, got " + strconv.Itoa(len(parts)))
	}

	var mirrored bool
	switch parts[1] {
	case "w":
	case "b":
		mirrored = true
	default:
		return fail("side to move must be w or b")
	}

	// Placement is built with white as "ours" and flipped afterwards.
	var b Board
	if reason := parsePiecePlacement(&b, parts[0]); reason != "" {
		return fail(reason)
	}

	cr, ok := parseCastlingRights(parts[2])
	if !ok {
		return fail("bad castling field " + strconv.Quote(parts[2]))
	}

	ep := NoSquare
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return fail("bad en passant field " + strconv.Quote(parts[3]))
		}
		ep = sq
	}

	halfMove, fullMove := 0, 1
	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			return fail("bad half-move clock " + strconv.Quote(parts[4]))
		}
		halfMove = n
	}
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			return fail("bad full-move number " + strconv.Quote(parts[5]))
		}
		fullMove = n
	}

	white := b
	if mirrored {
		b = b.Mirror()
		if ep != NoSquare {
			ep = ep.Mirror()
		}
	}

	if (b.ours&b.kings).PopCount() != 1 || (b.theirs&b.kings).PopCount() != 1 {
		return fail("each side needs exactly one king")
	}
	if opp := b.Mirror(); opp.squareIsUnderAttack(opp.ourKing()) {
		return fail("side not to move is in check")
	}
	if reason := checkCastlingConsistency(white, cr); reason != "" {
		return fail(reason)
	}
	if ep != NoSquare {
		occ := b.occupied()
		if ep.Rank() != 5 || !(b.theirs & b.pawns).IsSet(ep-8) || occ.IsSet(ep) || occ.IsSet(ep+8) {
			return fail("en passant square does not follow a double pawn push")
		}
	}
	if b.pawns&(Rank1|Rank8) != 0 {
		return fail("pawn on first or last rank")
	}

	return newPosition(b, cr, ep, halfMove, fullMove), nil
}

// MustParseFEN is like ParseFEN but panics on error. For constants and tests.
func MustParseFEN(fen string) *Position {
	pos, err := ParseFEN(fen)
	if err != nil {
		panic(err)
	}
	return pos
}

// parsePiecePlacement fills b from the placement field, white as ours.
// It returns a reason on failure.
func parsePiecePlacement(b *Board, placement string) string {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return "need 8 ranks, got " + strconv.Itoa(len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if file > 7 {
				return "too many squares in rank " + strconv.Itoa(rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(c)
			if piece == NoPiece {
				return "invalid piece character " + strconv.QuoteRune(rune(c))
			}
			b.put(NewSquare(file, rank), piece.Type(), piece.Color() == White)
			file++
		}
		if file != 8 {
			return "rank " + strconv.Itoa(rank+1) + " does not have 8 squares"
		}
	}
	return ""
}

func parseCastlingRights(field string) (CastlingRights, bool) {
	if field == "-" {
		return NoCastling, true
	}
	var cr CastlingRights
	for _, c := range field {
		i := strings.IndexRune("KQkq", c)
		if i < 0 || cr&(1<<i) != 0 {
			return NoCastling, false
		}
		cr |= 1 << i
	}
	return cr, true
}

// checkCastlingConsistency requires king and a rook (not a queen) on their
// home squares for every right. b has white as ours.
func checkCastlingConsistency(b Board, cr CastlingRights) string {
	plainRooks := b.rooks &^ b.bishops
	homes := []struct {
		right      CastlingRights
		king, rook Square
		side       Bitboard
	}{
		{WhiteKingSideCastle, E1, H1, b.ours},
		{WhiteQueenSideCastle, E1, A1, b.ours},
		{BlackKingSideCastle, E8, H8, b.theirs},
		{BlackQueenSideCastle, E8, A8, b.theirs},
	}
	for _, h := range homes {
		if cr&h.right == 0 {
			continue
		}
		if !(h.side & b.kings).IsSet(h.king) || !(h.side & plainRooks).IsSet(h.rook) {
			return "castling right " + h.right.String() + " without king and rook on their home squares"
		}
	}
	return ""
}

// FEN returns the six-field FEN of the position.
func (p *Position) FEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove() == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(p.castling.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassantSquare().String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.halfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.fullMoveNumber))
	return sb.String()
}
