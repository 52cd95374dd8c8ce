package board

// Zobrist keys, generated from a fixed seed so that keys are stable across
// runs and can be persisted.
var (
	zobristPiece      [12][64]uint64 // [Piece][Square]
	zobristEnPassant  [8]uint64      // by file
	zobristCastling   [16]uint64
	zobristSideToMove uint64
)

func init() {
	rng := prng{state: 0x98F107A2BEEF1234}
	for p := range zobristPiece {
		for sq := range zobristPiece[p] {
			zobristPiece[p][sq] = rng.next()
		}
	}
	for f := range zobristEnPassant {
		zobristEnPassant[f] = rng.next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// prng is xorshift64*.
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// Key returns the Zobrist hash of the position. Move counters are not
// hashed: positions equal under EqualIgnoreMoveCounts share a key.
func (p *Position) Key() uint64 {
	var key uint64
	for occ := p.board.occupied(); occ != 0; {
		sq := occ.PopLSB()
		rs := p.toReal(sq)
		key ^= zobristPiece[p.board.PieceAt(rs)][rs]
	}
	if p.board.mirrored {
		key ^= zobristSideToMove
	}
	key ^= zobristCastling[p.castling]
	if p.epSquare != NoSquare {
		key ^= zobristEnPassant[p.epSquare.File()]
	}
	return key
}
