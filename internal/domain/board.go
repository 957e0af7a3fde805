package domain

// Board is a 6x7 grid, row 0 on top. It is a value type: Drop returns a
// new Board and never touches the receiver, so snapshots handed to the bot
// or to other sessions can't alias live state.
type Board [Rows][Columns]Cell

// Legal reports whether a disc can be dropped into column.
func (b Board) Legal(column int) bool {
	if column < 0 || column >= Columns {
		return false
	}
	return b[0][column] == Empty
}

// Drop places cell in the lowest empty row of column and returns the
// resulting board together with the row the disc landed in.
func (b Board) Drop(column int, cell Cell) (Board, int, error) {
	if column < 0 || column >= Columns {
		return b, -1, ErrInvalidMove
	}
	for row := Rows - 1; row >= 0; row-- {
		if b[row][column] == Empty {
			b[row][column] = cell
			return b, row, nil
		}
	}
	return b, -1, ErrColumnFull
}

// Full reports whether every column's top cell is occupied.
func (b Board) Full() bool {
	for c := 0; c < Columns; c++ {
		if b[0][c] == Empty {
			return false
		}
	}
	return true
}

// LegalColumns returns the columns that can still take a disc, left to right.
func (b Board) LegalColumns() []int {
	cols := make([]int, 0, Columns)
	for c := 0; c < Columns; c++ {
		if b[0][c] == Empty {
			cols = append(cols, c)
		}
	}
	return cols
}

// TopRow returns the topmost occupied row of column, or -1 if the column is
// empty. Since discs always stack from the bottom, this is the row of the
// most recently placed disc in that column.
func (b Board) TopRow(column int) int {
	if column < 0 || column >= Columns {
		return -1
	}
	for row := 0; row < Rows; row++ {
		if b[row][column] != Empty {
			return row
		}
	}
	return -1
}

// Cells exports the board row-major as plain ints for the wire and the
// database.
func (b Board) Cells() [][]int {
	out := make([][]int, Rows)
	for r := 0; r < Rows; r++ {
		out[r] = make([]int, Columns)
		for c := 0; c < Columns; c++ {
			out[r][c] = int(b[r][c])
		}
	}
	return out
}

// BoardFromCells rebuilds a Board from a row-major export. Used when state
// is recovered from an external source.
func BoardFromCells(cells [][]int) Board {
	var b Board
	for r := 0; r < Rows && r < len(cells); r++ {
		for c := 0; c < Columns && c < len(cells[r]); c++ {
			b[r][c] = Cell(cells[r][c])
		}
	}
	return b
}
