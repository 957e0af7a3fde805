package bot

import (
	"math"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
)

const (
	scoreWin  = 1_000_000
	scoreLoss = -1_000_000
)

// searchBest runs the minimax root over cols and returns the best column,
// or -1 when every candidate simulation failed. A candidate that errors is
// skipped instead of aborting the whole search, so a race with real board
// mutation can't stall the session.
func searchBest(b domain.Board, me domain.Cell, cols []int, depth int) int {
	bestCol := -1
	bestScore := math.MinInt32
	alpha := math.MinInt32
	beta := math.MaxInt32
	opp := domain.Opponent(me)

	for _, col := range cols {
		next, row, err := b.Drop(col, me)
		if err != nil {
			continue
		}

		var score int
		if domain.IsWinningCell(next, row, col, me) {
			score = scoreWin + depth
		} else {
			score = minimax(next, depth-1, alpha, beta, false, me, opp)
		}

		if score > bestScore {
			bestScore = score
			bestCol = col
		}
		alpha = max(alpha, bestScore)
	}

	return bestCol
}

// minimax with alpha-beta pruning. Wins and losses found during search are
// saturating scores offset by the remaining depth, so faster wins and
// slower losses are preferred among otherwise-equal lines.
func minimax(b domain.Board, depth, alpha, beta int, maximizing bool, me, opp domain.Cell) int {
	cols := orderedColumns(b)
	if depth == 0 || len(cols) == 0 {
		return Evaluate(b, me)
	}

	if maximizing {
		best := math.MinInt32
		for _, col := range cols {
			next, row, err := b.Drop(col, me)
			if err != nil {
				continue
			}
			if domain.IsWinningCell(next, row, col, me) {
				return scoreWin + depth
			}
			best = max(best, minimax(next, depth-1, alpha, beta, false, me, opp))
			alpha = max(alpha, best)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := math.MaxInt32
	for _, col := range cols {
		next, row, err := b.Drop(col, opp)
		if err != nil {
			continue
		}
		if domain.IsWinningCell(next, row, col, opp) {
			return scoreLoss - depth
		}
		best = min(best, minimax(next, depth-1, alpha, beta, true, me, opp))
		beta = min(beta, best)
		if beta <= alpha {
			break
		}
	}
	return best
}
