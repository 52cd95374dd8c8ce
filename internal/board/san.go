package board

import (
	"strings"
)

// SAN returns the Standard Algebraic Notation of a legal move, e.g.
// "Nbd7", "exd6e.p.", "fxg8=R+", "O-O". The en passant suffix "e.p." is
// always written.
func (p *Position) SAN(m Move) (string, error) {
	if !p.IsLegal(m) {
		return "", &IllegalMoveError{Move: m.String(), FEN: p.FEN()}
	}
	return p.san(m), nil
}

func (p *Position) san(m Move) string {
	var sb strings.Builder

	switch {
	case p.IsShortCastling(m):
		sb.WriteString("O-O")
	case p.IsLongCastling(m):
		sb.WriteString("O-O-O")
	default:
		pt := p.MovePieceType(m)
		capture := p.IsCapture(m)
		if pt == Pawn {
			if capture {
				sb.WriteByte(byte('a' + m.From.File()))
			}
		} else {
			sb.WriteString(pt.Letter())
			sb.WriteString(p.disambiguation(m, pt))
		}
		if capture {
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if p.IsEnPassantCapture(m) {
			sb.WriteString("e.p.")
		}
		if m.Promotion != NoPromotion {
			sb.WriteByte('=')
			sb.WriteString(m.Promotion.Letter())
		}
	}

	next := p.play(p.toLocalMove(m))
	if next.IsCheckmate() {
		sb.WriteByte('#')
	} else if next.IsCheck() {
		sb.WriteByte('+')
	}
	return sb.String()
}

// disambiguation returns the origin file, rank or full square, whichever
// is the first to single out m among the moves of the same piece type to
// the same destination.
func (p *Position) disambiguation(m Move, pt PieceType) string {
	var ambiguous, sameFile, sameRank bool
	for _, o := range p.LegalMoves() {
		if o.To != m.To || o.From == m.From || p.MovePieceType(o) != pt {
			continue
		}
		ambiguous = true
		if o.From.File() == m.From.File() {
			sameFile = true
		}
		if o.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + m.From.File()))
	case !sameRank:
		return string(rune('1' + m.From.Rank()))
	default:
		return m.From.String()
	}
}

// sanPattern is a parsed SAN string before it is matched against the
// legal moves.
type sanPattern struct {
	piece     PieceType
	to        Square
	fromFile  int // -1 when not given
	fromRank  int // -1 when not given
	capture   bool
	promotion Promotion
	castle    int // 0 none, 1 short, 2 long
}

// ParseSAN finds the legal move described by a SAN string. Check and
// annotation suffixes are optional and not verified; "0-0" is accepted for
// castling and the promotion "=" may be left out. Unparsable text gives a
// *MoveSyntaxError, no matching move an *IllegalMoveError and several
// matching moves an *AmbiguousSANError.
func (p *Position) ParseSAN(s string) (Move, error) {
	pat, err := parseSANPattern(s)
	if err != nil {
		return NullMove, err
	}

	var matches []Move
	for _, m := range p.LegalMoves() {
		if p.matchesSAN(m, &pat) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return NullMove, &IllegalMoveError{Move: s, FEN: p.FEN()}
	case 1:
		return matches[0], nil
	default:
		return NullMove, &AmbiguousSANError{SAN: s, Candidates: matches}
	}
}

// ApplySAN parses a SAN string and plays it.
func (p *Position) ApplySAN(s string) (*Position, error) {
	m, err := p.ParseSAN(s)
	if err != nil {
		return nil, err
	}
	return p.play(p.toLocalMove(m)), nil
}

func (p *Position) matchesSAN(m Move, pat *sanPattern) bool {
	switch pat.castle {
	case 1:
		return p.IsShortCastling(m)
	case 2:
		return p.IsLongCastling(m)
	}
	if m.To != pat.to || p.MovePieceType(m) != pat.piece || m.Promotion != pat.promotion {
		return false
	}
	if pat.fromFile >= 0 && m.From.File() != pat.fromFile {
		return false
	}
	if pat.fromRank >= 0 && m.From.Rank() != pat.fromRank {
		return false
	}
	if pat.capture && !p.IsCapture(m) {
		return false
	}
	if pat.piece == Pawn && pat.fromFile < 0 && m.From.File() != m.To.File() {
		return false
	}
	// A king stepping two files is castling and is only written as such.
	if pat.piece == King && (p.IsShortCastling(m) || p.IsLongCastling(m)) {
		return false
	}
	return true
}

func parseSANPattern(s string) (sanPattern, error) {
	pat := sanPattern{fromFile: -1, fromRank: -1}
	bad := func(reason string) (sanPattern, error) {
		return sanPattern{}, &MoveSyntaxError{Text: s, Reason: reason}
	}

	t := strings.TrimSpace(s)
	t = strings.TrimRight(t, "+#!?")
	t = strings.TrimSuffix(t, "e.p.")
	t = strings.TrimSpace(t)

	switch t {
	case "O-O", "0-0":
		pat.castle = 1
		return pat, nil
	case "O-O-O", "0-0-0":
		pat.castle = 2
		return pat, nil
	case "":
		return bad("empty")
	}

	pat.piece = Pawn
	if i := strings.IndexByte("NBRQK", t[0]); i >= 0 {
		pat.piece = Knight + PieceType(i)
		t = t[1:]
	}

	if i := strings.IndexByte(t, '='); i >= 0 {
		if i != len(t)-2 {
			return bad("promotion must name one piece")
		}
		if pat.promotion = promotionFromLetter(t[i+1]); pat.promotion == NoPromotion {
			return bad("bad promotion piece")
		}
		t = t[:i]
	} else if n := len(t); n >= 3 && pat.piece == Pawn && strings.IndexByte("NBRQ", t[n-1]) >= 0 {
		pat.promotion = promotionFromLetter(t[n-1])
		t = t[:n-1]
	}

	if len(t) < 2 {
		return bad("missing destination square")
	}
	to, err := ParseSquare(t[len(t)-2:])
	if err != nil {
		return bad("bad destination square")
	}
	pat.to = to
	t = t[:len(t)-2]

	if strings.HasSuffix(t, "x") {
		pat.capture = true
		t = t[:len(t)-1]
	}
	if len(t) > 2 {
		return bad("too many origin characters")
	}
	for i := 0; i < len(t); i++ {
		switch c := t[i]; {
		case c >= 'a' && c <= 'h' && pat.fromFile < 0 && i == 0:
			pat.fromFile = int(c - 'a')
		case c >= '1' && c <= '8' && pat.fromRank < 0:
			pat.fromRank = int(c - '1')
		default:
			return bad("bad origin " + t)
		}
	}
	if pat.piece == Pawn && pat.capture && pat.fromFile < 0 {
		return bad("pawn capture without origin file")
	}
	if pat.promotion != NoPromotion && pat.piece != Pawn {
		return bad("only pawns promote")
	}
	return pat, nil
}

// MovesToSAN converts a line of moves played from pos to SAN.
func MovesToSAN(pos *Position, moves []Move) ([]string, error) {
	sans := make([]string, 0, len(moves))
	for _, m := range moves {
		san, err := pos.SAN(m)
		if err != nil {
			return nil, err
		}
		sans = append(sans, san)
		pos = pos.play(pos.toLocalMove(m))
	}
	return sans, nil
}
