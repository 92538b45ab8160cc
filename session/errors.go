package session

import "errors"

var (
	ErrUnknownSession      = errors.New("unknown session")
	ErrDuplicatePlayer     = errors.New("gamer already joined session")
	ErrInvalidPhase        = errors.New("operation not allowed in current phase")
	ErrInsufficientPlayers = errors.New("not enough gamers to start")
	ErrNotYourTurn         = errors.New("not this gamer's turn")
	ErrUnknownPlayer       = errors.New("gamer is not part of session")
)
