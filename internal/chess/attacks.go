package chess

// Pre-computed attack tables. Knights, kings and pawns use plain lookup
// tables; sliders use classical ray-casting that stops at the first blocker.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]

	rayAttacks [8][64]Bitboard // [Direction][Square]

	betweenBB [64][64]Bitboard // Squares strictly between two aligned squares
)

// Ray directions. Positive rays scan toward higher square indices.
const (
	dirNorth = iota
	dirNorthEast
	dirEast
	dirNorthWest
	dirSouth
	dirSouthWest
	dirWest
	dirSouthEast
)

var dirOffsets = [8][2]int{
	dirNorth:     {0, 1},
	dirNorthEast: {1, 1},
	dirEast:      {1, 0},
	dirNorthWest: {-1, 1},
	dirSouth:     {0, -1},
	dirSouthWest: {-1, -1},
	dirWest:      {-1, 0},
	dirSouthEast: {1, -1},
}

func init() {
	initKnightAttacks()
	initKingAttacks()
	initPawnAttacks()
	initRayAttacks()
	initBetweenBB()
}

func initKnightAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		attacks := Empty
		attacks |= (bb << 17) & NotFileA  // NNE
		attacks |= (bb << 15) & NotFileH  // NNW
		attacks |= (bb >> 17) & NotFileH  // SSW
		attacks |= (bb >> 15) & NotFileA  // SSE
		attacks |= (bb << 10) & NotFileAB // ENE
		attacks |= (bb << 6) & NotFileGH  // WNW
		attacks |= (bb >> 10) & NotFileGH // WSW
		attacks |= (bb >> 6) & NotFileAB  // ESE

		knightAttacks[sq] = attacks
	}
}

func initKingAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		attacks := bb.North() | bb.South()
		attacks |= bb.East() | bb.West()
		attacks |= bb.NorthEast() | bb.NorthWest()
		attacks |= bb.SouthEast() | bb.SouthWest()

		kingAttacks[sq] = attacks
	}
}

func initPawnAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)
		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

func initRayAttacks() {
	for dir := 0; dir < 8; dir++ {
		df := dirOffsets[dir][0]
		dr := dirOffsets[dir][1]
		for sq := A1; sq <= H8; sq++ {
			var ray Bitboard
			f, r := sq.File()+df, sq.Rank()+dr
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				ray |= SquareBB(NewSquare(f, r))
				f += df
				r += dr
			}
			rayAttacks[dir][sq] = ray
		}
	}
}

func initBetweenBB() {
	for sq1 := A1; sq1 <= H8; sq1++ {
		for sq2 := A1; sq2 <= H8; sq2++ {
			if sq1 == sq2 {
				continue
			}

			f1, r1 := sq1.File(), sq1.Rank()
			f2, r2 := sq2.File(), sq2.Rank()

			df := sign(f2 - f1)
			dr := sign(r2 - r1)

			if df != 0 && dr != 0 && abs(f2-f1) != abs(r2-r1) {
				continue // Not on a diagonal
			}

			var between Bitboard
			f, r := f1+df, r1+dr
			for f != f2 || r != r2 {
				if f < 0 || f > 7 || r < 0 || r > 7 {
					break
				}
				between |= SquareBB(NewSquare(f, r))
				f += df
				r += dr
			}

			betweenBB[sq1][sq2] = between
		}
	}
}

func sign(x int) int {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// positiveRay walks a ray toward higher square indices, stopping at the
// first blocker (the blocker square is included).
func positiveRay(dir int, sq Square, occupied Bitboard) Bitboard {
	attacks := rayAttacks[dir][sq]
	blockers := attacks & occupied
	if blockers != 0 {
		attacks ^= rayAttacks[dir][blockers.LSB()]
	}
	return attacks
}

// negativeRay walks a ray toward lower square indices.
func negativeRay(dir int, sq Square, occupied Bitboard) Bitboard {
	attacks := rayAttacks[dir][sq]
	blockers := attacks & occupied
	if blockers != 0 {
		attacks ^= rayAttacks[dir][blockers.MSB()]
	}
	return attacks
}

// KnightAttacks returns the knight attack bitboard for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack bitboard for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the pawn attack bitboard for a square and color.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns the bishop attack bitboard for a square with given occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return positiveRay(dirNorthEast, sq, occupied) |
		positiveRay(dirNorthWest, sq, occupied) |
		negativeRay(dirSouthEast, sq, occupied) |
		negativeRay(dirSouthWest, sq, occupied)
}

// RookAttacks returns the rook attack bitboard for a square with given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return positiveRay(dirNorth, sq, occupied) |
		positiveRay(dirEast, sq, occupied) |
		negativeRay(dirSouth, sq, occupied) |
		negativeRay(dirWest, sq, occupied)
}

// QueenAttacks returns the queen attack bitboard for a square with given occupancy.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Between returns the bitboard of squares strictly between two squares.
// Returns empty if the squares are not aligned.
func Between(sq1, sq2 Square) Bitboard {
	return betweenBB[sq1][sq2]
}

// AttackersByColor returns a bitboard of pieces of the given color attacking a square.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	enemy := c.Other()
	return (pawnAttacks[enemy][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(BishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(RookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// IsSquareAttacked returns true if the square is attacked by the given color.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor, p.AllOccupied) != 0
}

// ThreatenedSquares returns the set of squares attacked by the given side,
// with the opposing king removed from the occupancy so that sliding attacks
// extend through it. Used for castling and king-move legality.
func (p *Position) ThreatenedSquares(bySide Color) Bitboard {
	occupied := p.AllOccupied &^ p.Pieces[bySide.Other()][King]

	var attacks Bitboard

	pawns := p.Pieces[bySide][Pawn]
	if bySide == White {
		attacks |= pawns.NorthEast() | pawns.NorthWest()
	} else {
		attacks |= pawns.SouthEast() | pawns.SouthWest()
	}

	knights := p.Pieces[bySide][Knight]
	for knights != 0 {
		attacks |= knightAttacks[knights.PopLSB()]
	}

	bishops := p.Pieces[bySide][Bishop] | p.Pieces[bySide][Queen]
	for bishops != 0 {
		attacks |= BishopAttacks(bishops.PopLSB(), occupied)
	}

	rooks := p.Pieces[bySide][Rook] | p.Pieces[bySide][Queen]
	for rooks != 0 {
		attacks |= RookAttacks(rooks.PopLSB(), occupied)
	}

	attacks |= kingAttacks[p.KingSquare[bySide]]

	return attacks
}

// UpdateCheckers updates the Checkers bitboard for the side to move.
func (p *Position) UpdateCheckers() {
	us := p.SideToMove
	kingBB := p.Pieces[us][King]
	if kingBB == 0 {
		p.Checkers = 0
		return
	}
	p.Checkers = p.AttackersByColor(kingBB.LSB(), us.Other(), p.AllOccupied)
}
