package domain

// Cell is the occupant of a single board position.
type Cell int

const (
	Empty Cell = 0
	P1    Cell = 1
	P2    Cell = 2
)

const (
	Rows    = 6
	Columns = 7
	ToWin   = 4
)

// Status of a session's game.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusWon        Status = "won"
	StatusDrawn      Status = "drawn"
)

// Opponent returns the other player's cell.
func Opponent(c Cell) Cell {
	if c == P1 {
		return P2
	}
	return P1
}

// Error is a sentinel domain error.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidMove          Error = "invalid move"
	ErrColumnFull           Error = "column is full"
	ErrGameOver             Error = "game already over"
	ErrNotYourTurn          Error = "not your turn"
	ErrSessionNotFound      Error = "session not found"
	ErrIdentityNotInSession Error = "identity not in session"
	ErrAlreadyQueued        Error = "identity already queued"
)
