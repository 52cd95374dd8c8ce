// Package game records a chess game as the list of moves played and the
// positions they lead to, and answers history-dependent questions such as
// threefold repetition.
package game

import (
	"fmt"
	"strings"

	"github.com/hailam/chessrules/internal/board"
)

// Result is the state of a game.
type Result int

const (
	Ongoing Result = iota
	WhiteWins
	BlackWins
	Draw
)

// String returns the PGN result token.
func (r Result) String() string {
	switch r {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Method tells how a result came about.
type Method int

const (
	NoMethod Method = iota
	Checkmate
	Stalemate
	ThreefoldRepetition
	FiftyMoveRule
)

func (m Method) String() string {
	switch m {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case ThreefoldRepetition:
		return "threefold repetition"
	case FiftyMoveRule:
		return "fifty-move rule"
	default:
		return "none"
	}
}

// Standard tag names.
const (
	TagEvent = "Event"
	TagSite  = "Site"
	TagDate  = "Date"
	TagWhite = "White"
	TagBlack = "Black"
)

// Game is a sequence of positions joined by moves. positions[0] is the
// initial position and positions[i+1] follows from moves[i]. A Game is not
// safe for concurrent mutation.
type Game struct {
	positions []*board.Position
	moves     []board.Move
	sans      []string
	tags      []tag
}

type tag struct {
	key, value string
}

// New starts a game from pos.
func New(pos *board.Position) *Game {
	return &Game{positions: []*board.Position{pos}}
}

// NewStandard starts a game from the initial chess position.
func NewStandard() *Game {
	return New(board.StartingPosition())
}

// NewFromFEN starts a game from a FEN string.
func NewFromFEN(fen string) (*Game, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return New(pos), nil
}

// Position returns the current position.
func (g *Game) Position() *board.Position {
	return g.positions[len(g.positions)-1]
}

// InitialPosition returns the position the game started from.
func (g *Game) InitialPosition() *board.Position {
	return g.positions[0]
}

// Positions returns all positions from the initial one to the current one.
func (g *Game) Positions() []*board.Position {
	return append([]*board.Position(nil), g.positions...)
}

// Moves returns the moves played so far.
func (g *Game) Moves() []board.Move {
	return append([]board.Move(nil), g.moves...)
}

// MovesSAN returns the moves played so far in SAN.
func (g *Game) MovesSAN() []string {
	return append([]string(nil), g.sans...)
}

// LegalMoves returns the legal moves in the current position.
func (g *Game) LegalMoves() []board.Move {
	return g.Position().LegalMoves()
}

// LegalMovesSAN returns the legal moves in the current position in SAN.
func (g *Game) LegalMovesSAN() []string {
	pos := g.Position()
	moves := pos.LegalMoves()
	sans := make([]string, len(moves))
	for i, m := range moves {
		sans[i], _ = pos.SAN(m)
	}
	return sans
}

// Play appends a move. An illegal move leaves the game unchanged.
func (g *Game) Play(m board.Move) error {
	pos := g.Position()
	san, err := pos.SAN(m)
	if err != nil {
		return err
	}
	next, err := pos.ApplyMove(m)
	if err != nil {
		return err
	}
	g.positions = append(g.positions, next)
	g.moves = append(g.moves, m)
	g.sans = append(g.sans, san)
	return nil
}

// PlayString plays a move in coordinate text such as "e2e4".
func (g *Game) PlayString(s string) error {
	m, err := board.ParseMove(s)
	if err != nil {
		return err
	}
	return g.Play(m)
}

// PlaySAN plays a move in SAN such as "Nf3".
func (g *Game) PlaySAN(s string) error {
	m, err := g.Position().ParseSAN(s)
	if err != nil {
		return err
	}
	return g.Play(m)
}

// PlayMoves plays coordinate or SAN moves in order, stopping at the first
// error. Coordinate text is tried first.
func (g *Game) PlayMoves(moves ...string) error {
	for i, s := range moves {
		err := g.PlayString(s)
		if err != nil {
			if _, perr := board.ParseMove(s); perr != nil {
				err = g.PlaySAN(s)
			}
		}
		if err != nil {
			return fmt.Errorf("move %d (%s): %w", i+1, s, err)
		}
	}
	return nil
}

// IsThreefoldRepetition reports whether the current position occurred at
// least twice before. Only the stretch since the last capture or pawn move
// is searched.
func (g *Game) IsThreefoldRepetition() bool {
	cur := g.Position()
	key := cur.Key()
	seen := 0
	for i := len(g.positions) - 2; i >= 0; i-- {
		if g.positions[i+1].HalfMoveClock() == 0 {
			break
		}
		p := g.positions[i]
		if p.Key() == key && p.EqualIgnoreMoveCounts(cur) {
			if seen++; seen == 2 {
				return true
			}
		}
	}
	return false
}

// IsFiftyMoveRule reports whether a draw may be claimed under the fifty
// move rule.
func (g *Game) IsFiftyMoveRule() bool {
	return g.Position().IsFiftyMoveRule()
}

// Outcome reports the result of the game. Draws by repetition or the fifty
// move rule are claimable: they are reported here but more moves may still
// be played.
func (g *Game) Outcome() (Result, Method) {
	pos := g.Position()
	switch {
	case pos.IsCheckmate():
		if pos.SideToMove() == board.White {
			return BlackWins, Checkmate
		}
		return WhiteWins, Checkmate
	case pos.IsStalemate():
		return Draw, Stalemate
	case g.IsThreefoldRepetition():
		return Draw, ThreefoldRepetition
	case g.IsFiftyMoveRule():
		return Draw, FiftyMoveRule
	}
	return Ongoing, NoMethod
}

// SetTag sets a tag pair, replacing an existing value.
func (g *Game) SetTag(key, value string) {
	for i := range g.tags {
		if g.tags[i].key == key {
			g.tags[i].value = value
			return
		}
	}
	g.tags = append(g.tags, tag{key, value})
}

// Tag returns the value of a tag pair.
func (g *Game) Tag(key string) (string, bool) {
	for _, t := range g.tags {
		if t.key == key {
			return t.value, true
		}
	}
	return "", false
}

// Tags returns the tag pairs in insertion order as key, value pairs.
func (g *Game) Tags() [][2]string {
	out := make([][2]string, len(g.tags))
	for i, t := range g.tags {
		out[i] = [2]string{t.key, t.value}
	}
	return out
}

func (g *Game) SetWhitePlayer(name string)  { g.SetTag(TagWhite, name) }
func (g *Game) SetBlackPlayer(name string)  { g.SetTag(TagBlack, name) }
func (g *Game) WhitePlayer() (string, bool) { return g.Tag(TagWhite) }
func (g *Game) BlackPlayer() (string, bool) { return g.Tag(TagBlack) }

// PGN renders the tag pairs and the move text. A game that does not
// start from the initial position carries SetUp and FEN tags.
func (g *Game) PGN() string {
	var sb strings.Builder
	result, method := g.Outcome()
	if method == ThreefoldRepetition || method == FiftyMoveRule {
		result = Ongoing // claimable, not final
	}

	for _, t := range g.tags {
		fmt.Fprintf(&sb, "[%s %q]\n", t.key, t.value)
	}
	start := g.InitialPosition()
	if start.FEN() != board.StartFEN {
		fmt.Fprintf(&sb, "[SetUp \"1\"]\n[FEN %q]\n", start.FEN())
	}
	fmt.Fprintf(&sb, "[Result %q]\n\n", result.String())

	number := start.FullMoveNumber()
	for i, san := range g.sans {
		white := g.positions[i].SideToMove() == board.White
		switch {
		case white:
			fmt.Fprintf(&sb, "%d. ", number)
		case i == 0:
			fmt.Fprintf(&sb, "%d... ", number)
		}
		sb.WriteString(san)
		sb.WriteByte(' ')
		if !white {
			number++
		}
	}
	sb.WriteString(result.String())
	return sb.String()
}
