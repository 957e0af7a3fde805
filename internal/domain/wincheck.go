package domain

// The four axes a connect-four line can lie on. The anti-diagonal is
// {1, -1}; scanning both directions of each axis covers all eight rays.
var axes = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{1, -1}, // diagonal /
}

// countRun counts contiguous cells matching cell, starting one step away
// from (row, col) in direction (dr, dc).
func countRun(b Board, row, col, dr, dc int, cell Cell) int {
	count := 0
	r, c := row+dr, col+dc
	for r >= 0 && r < Rows && c >= 0 && c < Columns && b[r][c] == cell {
		count++
		r += dr
		c += dc
	}
	return count
}

// IsWinningCell reports whether the disc at (row, col) completes a line of
// ToWin for cell. The origin must be in bounds and actually hold cell.
func IsWinningCell(b Board, row, col int, cell Cell) bool {
	if row < 0 || row >= Rows || col < 0 || col >= Columns {
		return false
	}
	if cell == Empty || b[row][col] != cell {
		return false
	}
	for _, axis := range axes {
		run := 1 +
			countRun(b, row, col, axis[0], axis[1], cell) +
			countRun(b, row, col, -axis[0], -axis[1], cell)
		if run >= ToWin {
			return true
		}
	}
	return false
}

// FindWinner re-derives a winner by scanning every occupied cell. Used for
// boards recovered from an external source where the last move is unknown.
// Returns Empty when no line of ToWin exists.
func FindWinner(b Board) Cell {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if cell := b[r][c]; cell != Empty && IsWinningCell(b, r, c, cell) {
				return cell
			}
		}
	}
	return Empty
}
