package board

// Fancy magic bitboards for sliding pieces. For every square the relevant
// occupancy (the attack rays without the square itself and without the
// board edge) is hashed by a multiply and shift into a per-square slice of
// a shared attack table.

// Magic holds the lookup parameters of one square.
type Magic struct {
	Mask   Bitboard // relevant occupancy
	Magic  uint64
	Shift  uint8 // 64 - popcount(Mask)
	Offset uint32
}

// index maps an occupancy to its slot in the shared table.
func (m *Magic) index(occupied Bitboard) uint32 {
	return m.Offset + uint32((uint64(occupied&m.Mask)*m.Magic)>>m.Shift)
}

const (
	rookTableSize   = 102400
	bishopTableSize = 5248
)

var (
	bishopMagics [64]Magic
	rookMagics   [64]Magic

	bishopTable [bishopTableSize]Bitboard
	rookTable   [rookTableSize]Bitboard
)

var bishopMagicNumbers = [64]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

var rookMagicNumbers = [64]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}

func initMagics() {
	fillMagics(bishopMagics[:], bishopTable[:], &bishopMagicNumbers, bishopMask, bishopAttacksSlow)
	fillMagics(rookMagics[:], rookTable[:], &rookMagicNumbers, rookMask, rookAttacksSlow)
}

// fillMagics enumerates every subset of each square's mask and stores the
// ray-cast attack set at its hashed slot. A slot already holding a
// different attack set means the magic number collides, which is a
// programming error.
func fillMagics(magics []Magic, table []Bitboard, numbers *[64]uint64,
	mask func(Square) Bitboard, slow func(Square, Bitboard) Bitboard) {
	filled := make([]bool, len(table))
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		m := mask(sq)
		n := m.PopCount()
		magics[sq] = Magic{Mask: m, Magic: numbers[sq], Shift: uint8(64 - n), Offset: offset}

		entries := 1 << n
		for i := 0; i < entries; i++ {
			occ := indexToOccupancy(i, n, m)
			idx := magics[sq].index(occ)
			attacks := slow(sq, occ)
			if filled[idx] && table[idx] != attacks {
				panic("board: magic collision on " + sq.String())
			}
			table[idx] = attacks
			filled[idx] = true
		}
		offset += uint32(entries)
	}
	if int(offset) != len(table) {
		panic("board: magic table size mismatch")
	}
}

// bishopMask is the diagonal rays from sq without the board edge.
func bishopMask(sq Square) Bitboard {
	return bishopAttacksSlow(sq, 0) &^ edges
}

// rookMask is the rank and file of sq without the square and without the
// far end of each ray.
func rookMask(sq Square) Bitboard {
	file, rank := sq.File(), sq.Rank()
	var mask Bitboard
	for f := 1; f < 7; f++ {
		if f != file {
			mask = mask.Set(NewSquare(f, rank))
		}
	}
	for r := 1; r < 7; r++ {
		if r != rank {
			mask = mask.Set(NewSquare(file, r))
		}
	}
	return mask
}

// indexToOccupancy spreads the low n bits of index over the squares of mask.
func indexToOccupancy(index, n int, mask Bitboard) Bitboard {
	var occ Bitboard
	for i := 0; i < n; i++ {
		sq := mask.PopLSB()
		if index&(1<<i) != 0 {
			occ = occ.Set(sq)
		}
	}
	return occ
}

var (
	diagonalSteps   = [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	orthogonalSteps = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

// castRays walks each step direction from sq until the edge or the first
// occupied square, which is included.
func castRays(sq Square, occupied Bitboard, steps *[4][2]int) Bitboard {
	var attacks Bitboard
	for _, d := range steps {
		for f, r := sq.File()+d[0], sq.Rank()+d[1]; onBoard(f, r); f, r = f+d[0], r+d[1] {
			s := NewSquare(f, r)
			attacks = attacks.Set(s)
			if occupied.IsSet(s) {
				break
			}
		}
	}
	return attacks
}

func bishopAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return castRays(sq, occupied, &diagonalSteps)
}

func rookAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return castRays(sq, occupied, &orthogonalSteps)
}

// BishopAttacks returns the squares a bishop on sq attacks given the
// occupancy. The first blocker on each ray is included.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return bishopTable[bishopMagics[sq].index(occupied)]
}

// RookAttacks returns the squares a rook on sq attacks given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return rookTable[rookMagics[sq].index(occupied)]
}

// QueenAttacks is the union of rook and bishop attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}
