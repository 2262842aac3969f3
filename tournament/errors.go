package tournament

import "errors"

var (
	ErrGameNotFound      = errors.New("no such game")
	ErrPlayerNotFound    = errors.New("no such player")
	ErrDuplicatePlayer   = errors.New("player already registered")
	ErrWrongGameStatus   = errors.New("game is not in the right state for that")
	ErrTooFewPlayers     = errors.New("a game needs at least two players")
	ErrAlreadyEliminated = errors.New("player is already out")
	ErrNotEliminated     = errors.New("player is still in")
	ErrLastPlayer        = errors.New("can't eliminate the last player")
	ErrPlayersRemain     = errors.New("more than one player is still in")
	ErrRebuyClosed       = errors.New("rebuys are closed")
	ErrNoLevels          = errors.New("structure has no levels")
	ErrNoPreviousLevel   = errors.New("already at the first level")
	ErrInvalidSplit      = errors.New("split must be non-negative and sum to 100")
	ErrNoSettlement      = errors.New("tournament has not been settled")
	ErrNoSuchTransaction = errors.New("no such transaction")
	ErrInvalidInput      = errors.New("invalid input")
)
