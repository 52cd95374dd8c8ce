package board

// Move is a move in real board coordinates. Castling is encoded as the
// king's two-square move (e1g1, e1c1, e8g8, e8c8).
type Move struct {
	From      Square
	To        Square
	Promotion Promotion
}

// NullMove is the zero-information move, never legal.
var NullMove = Move{From: NoSquare, To: NoSquare}

// String returns coordinate text such as "e2e4" or "h7h8Q".
func (m Move) String() string {
	if m.From >= NoSquare || m.To >= NoSquare {
		return "0000"
	}
	return m.From.String() + m.To.String() + m.Promotion.Letter()
}

// mirror flips both squares, converting between the real and the
// side-to-move frame when black is to move.
func (m Move) mirror() Move {
	return Move{From: m.From.Mirror(), To: m.To.Mirror(), Promotion: m.Promotion}
}

// ParseMove parses coordinate text: two squares and an optional promotion
// letter (N, B, R or Q in either case). Legality is not checked.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NullMove, &MoveSyntaxError{Text: s, Reason: "want 4 or 5 characters"}
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NullMove, &MoveSyntaxError{Text: s, Reason: "bad origin square"}
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NullMove, &MoveSyntaxError{Text: s, Reason: "bad destination square"}
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		if m.Promotion = promotionFromLetter(s[4]); m.Promotion == NoPromotion {
			return NullMove, &MoveSyntaxError{Text: s, Reason: "bad promotion piece"}
		}
	}
	return m, nil
}

// MustParseMove is like ParseMove but panics on malformed text.
func MustParseMove(s string) Move {
	m, err := ParseMove(s)
	if err != nil {
		panic(err)
	}
	return m
}
