package bot

import (
	"math/rand/v2"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
)

// DefaultDepth is the minimax search horizon in plies.
const DefaultDepth = 6

// Choose picks a column for me on board b using the default search depth.
func Choose(b domain.Board, me domain.Cell) int {
	return ChooseDepth(b, me, DefaultDepth)
}

// ChooseDepth layers the selection: immediate win, immediate block, fork
// creation, fork denial, then bounded minimax. Every layer only ever
// considers currently legal columns, so the result is legal whenever any
// legal column exists. Returns -1 on a full board.
func ChooseDepth(b domain.Board, me domain.Cell, depth int) int {
	cols := orderedColumns(b)
	if len(cols) == 0 {
		return -1
	}
	opp := domain.Opponent(me)

	// 1. Take an immediate win.
	if col, ok := winningColumn(b, me, cols); ok {
		return col
	}

	// 2. Block the opponent's immediate win.
	if col, ok := winningColumn(b, opp, cols); ok {
		return col
	}

	// 3. Create a double threat the opponent can't answer.
	if col, ok := forkColumn(b, me, cols); ok {
		return col
	}

	// 4. Avoid gifting one: prune columns whose reply lets the opponent
	// fork or win on top. The pruning is heuristic; minimax below finds
	// double threats within its horizon regardless.
	safe := safeColumns(b, me, cols)
	if len(safe) == 0 {
		safe = cols
	}

	if col := searchBest(b, me, safe, depth); col >= 0 && b.Legal(col) {
		return col
	}

	// Last resort so a session never stalls on the AI.
	return cols[rand.IntN(len(cols))]
}

// orderedColumns returns the legal columns center-out, which both plays
// better and tightens alpha-beta pruning.
func orderedColumns(b domain.Board) []int {
	order := [domain.Columns]int{3, 2, 4, 1, 5, 0, 6}
	cols := make([]int, 0, domain.Columns)
	for _, c := range order {
		if b.Legal(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// winningColumn finds a column where dropping cell wins at once.
func winningColumn(b domain.Board, cell domain.Cell, cols []int) (int, bool) {
	for _, col := range cols {
		next, row, err := b.Drop(col, cell)
		if err != nil {
			continue
		}
		if domain.IsWinningCell(next, row, col, cell) {
			return col, true
		}
	}
	return -1, false
}

// countImmediateWins counts the distinct columns from which cell wins on
// its next drop.
func countImmediateWins(b domain.Board, cell domain.Cell) int {
	wins := 0
	for _, col := range b.LegalColumns() {
		next, row, err := b.Drop(col, cell)
		if err != nil {
			continue
		}
		if domain.IsWinningCell(next, row, col, cell) {
			wins++
		}
	}
	return wins
}

// forkColumn finds a column that leaves cell with two or more immediate
// winning follow-ups: an unstoppable double threat.
func forkColumn(b domain.Board, cell domain.Cell, cols []int) (int, bool) {
	for _, col := range cols {
		next, _, err := b.Drop(col, cell)
		if err != nil {
			continue
		}
		if countImmediateWins(next, cell) >= 2 {
			return col, true
		}
	}
	return -1, false
}

// safeColumns drops candidates after which the opponent can either win
// immediately or set up a fork of their own.
func safeColumns(b domain.Board, me domain.Cell, cols []int) []int {
	opp := domain.Opponent(me)
	safe := make([]int, 0, len(cols))
	for _, col := range cols {
		next, _, err := b.Drop(col, me)
		if err != nil {
			continue
		}
		if countImmediateWins(next, opp) > 0 {
			continue
		}
		if _, forks := forkColumn(next, opp, next.LegalColumns()); forks {
			continue
		}
		safe = append(safe, col)
	}
	return safe
}
