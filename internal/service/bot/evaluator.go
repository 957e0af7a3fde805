package bot

import "github.com/abhayymishraa/4-in-a-row/internal/domain"

const (
	weightFour        = 100_000
	weightThreeOpen   = 120
	weightTwoOpen     = 12
	weightCenterBonus = 6
)

// Evaluate scores a board from me's point of view by summing every
// four-in-a-row window on all four axes, plus a bonus for own discs in the
// center column (they participate in the most windows).
func Evaluate(b domain.Board, me domain.Cell) int {
	opp := domain.Opponent(me)
	score := 0

	// Horizontal windows.
	for r := 0; r < domain.Rows; r++ {
		for c := 0; c+domain.ToWin <= domain.Columns; c++ {
			score += scoreWindow(b, r, c, 0, 1, me, opp)
		}
	}
	// Vertical windows.
	for r := 0; r+domain.ToWin <= domain.Rows; r++ {
		for c := 0; c < domain.Columns; c++ {
			score += scoreWindow(b, r, c, 1, 0, me, opp)
		}
	}
	// Diagonal \ windows.
	for r := 0; r+domain.ToWin <= domain.Rows; r++ {
		for c := 0; c+domain.ToWin <= domain.Columns; c++ {
			score += scoreWindow(b, r, c, 1, 1, me, opp)
		}
	}
	// Diagonal / windows.
	for r := domain.ToWin - 1; r < domain.Rows; r++ {
		for c := 0; c+domain.ToWin <= domain.Columns; c++ {
			score += scoreWindow(b, r, c, -1, 1, me, opp)
		}
	}

	center := domain.Columns / 2
	for r := 0; r < domain.Rows; r++ {
		switch b[r][center] {
		case me:
			score += weightCenterBonus
		case opp:
			score -= weightCenterBonus
		}
	}

	return score
}

// scoreWindow rates the four cells starting at (r, c) along (dr, dc). A
// window holding both players' discs can never complete and scores zero.
func scoreWindow(b domain.Board, r, c, dr, dc int, me, opp domain.Cell) int {
	var mine, theirs int
	for i := 0; i < domain.ToWin; i++ {
		switch b[r+i*dr][c+i*dc] {
		case me:
			mine++
		case opp:
			theirs++
		}
	}

	switch {
	case mine > 0 && theirs > 0:
		return 0
	case mine == 4:
		return weightFour
	case mine == 3:
		return weightThreeOpen
	case mine == 2:
		return weightTwoOpen
	case theirs == 4:
		return -weightFour
	case theirs == 3:
		return -weightThreeOpen
	case theirs == 2:
		return -weightTwoOpen
	}
	return 0
}
