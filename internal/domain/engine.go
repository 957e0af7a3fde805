package domain

// Engine tracks a single game: the board, whose turn it is and the outcome.
// The turn counter alternates strictly and stops advancing once the game is
// terminal; the final board stays readable for post-game inspection.
type Engine struct {
	board     Board
	turn      Cell
	status    Status
	winner    Cell
	moveCount int
}

// MoveResult reports the effect of one applied move.
type MoveResult struct {
	Column int
	Row    int
	Status Status
	Winner Cell
}

func NewEngine() *Engine {
	return &Engine{
		turn:   P1,
		status: StatusInProgress,
	}
}

// ApplyMove drops the current player's disc into column. On a winning or
// drawing move the status flips and the turn stays with the final mover.
func (e *Engine) ApplyMove(column int) (MoveResult, error) {
	if e.status != StatusInProgress {
		return MoveResult{}, ErrGameOver
	}
	if !e.board.Legal(column) {
		return MoveResult{}, ErrInvalidMove
	}

	board, row, err := e.board.Drop(column, e.turn)
	if err != nil {
		return MoveResult{}, err
	}
	e.board = board
	e.moveCount++

	if IsWinningCell(e.board, row, column, e.turn) {
		e.status = StatusWon
		e.winner = e.turn
		return MoveResult{Column: column, Row: row, Status: e.status, Winner: e.winner}, nil
	}

	if e.board.Full() {
		e.status = StatusDrawn
		return MoveResult{Column: column, Row: row, Status: e.status}, nil
	}

	e.turn = Opponent(e.turn)
	return MoveResult{Column: column, Row: row, Status: e.status}, nil
}

// Resign ends the game with a win for loser's opponent. Used for forfeits;
// the board is left as it stands.
func (e *Engine) Resign(loser Cell) {
	if e.status != StatusInProgress {
		return
	}
	e.status = StatusWon
	e.winner = Opponent(loser)
}

func (e *Engine) Board() Board { return e.board }

// Turn returns the cell to move, or Empty once the game is terminal.
func (e *Engine) Turn() Cell {
	if e.status != StatusInProgress {
		return Empty
	}
	return e.turn
}

func (e *Engine) Status() Status { return e.status }
func (e *Engine) Winner() Cell   { return e.winner }
func (e *Engine) MoveCount() int { return e.moveCount }

func (e *Engine) Finished() bool {
	return e.status != StatusInProgress
}
