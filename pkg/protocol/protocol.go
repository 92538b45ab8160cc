// Package protocol defines the JSON request/response envelope spoken between
// the minignet server and its clients. One request per websocket message,
// one response back on the same connection.
package protocol

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/itarato/minignetserver/session"
)

// Operation names
const (
	OpJoinSession             = "JOIN_SESSION"
	OpResetSession            = "RESET_SESSION"
	OpStartSession            = "START_SESSION"
	OpEndSession              = "END_SESSION"
	OpIsGamerTurn             = "IS_GAMER_TURN"
	OpIsGameOn                = "IS_GAME_ON"
	OpSendUpdate              = "SEND_UPDATE"
	OpGetPreviousRoundUpdates = "GET_PREVIOUS_ROUND_UPDATES"
	OpSendMessage             = "SEND_MESSAGE"
	OpFetchAllMessages        = "FETCH_ALL_MESSAGES"
	OpNextGamer               = "NEXT_GAMER"
)

// Response statuses
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Error codes carried in Response.Code
const (
	CodeUnknownSession      = "UNKNOWN_SESSION"
	CodeDuplicatePlayer     = "DUPLICATE_PLAYER"
	CodeInvalidPhase        = "INVALID_PHASE"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeNotYourTurn         = "NOT_YOUR_TURN"
	CodeUnknownPlayer       = "UNKNOWN_PLAYER"
	CodeBadRequest          = "BAD_REQUEST"
	CodeRateLimited         = "RATE_LIMITED"
)

// Request is one operation call. GamerID may be left empty by clients whose
// identity the server already assigned through the gamerid cookie. Round is
// a pointer so "no round given" stays distinguishable from round zero.
type Request struct {
	Op        string `json:"op"`
	SessionID string `json:"session_id"`
	GamerID   string `json:"gamer_id,omitempty"`
	To        string `json:"to,omitempty"`
	Round     *int   `json:"round,omitempty"`
	Payload   []byte `json:"payload,omitempty"`
}

// Response carries the outcome of one operation. Only the result field
// matching the operation is populated.
type Response struct {
	Op        string                `json:"op"`
	Status    string                `json:"status"`
	Code      string                `json:"code,omitempty"`
	Error     string                `json:"error,omitempty"`
	SessionID string                `json:"session_id,omitempty"`
	Gamers    []string              `json:"gamers,omitempty"`
	Answer    *bool                 `json:"answer,omitempty"`
	Updates   []session.RoundUpdate `json:"updates,omitempty"`
	Messages  []session.Message     `json:"messages,omitempty"`
}

// ErrFromCode maps a wire error code back to the session sentinel so client
// callers can compare against the same errors in-process callers see.
func ErrFromCode(code string) error {
	switch code {
	case CodeUnknownSession:
		return session.ErrUnknownSession
	case CodeDuplicatePlayer:
		return session.ErrDuplicatePlayer
	case CodeInvalidPhase:
		return session.ErrInvalidPhase
	case CodeInsufficientPlayers:
		return session.ErrInsufficientPlayers
	case CodeNotYourTurn:
		return session.ErrNotYourTurn
	case CodeUnknownPlayer:
		return session.ErrUnknownPlayer
	}
	return nil
}

// CodeFromErr maps a session sentinel to its wire error code.
func CodeFromErr(err error) string {
	switch err {
	case session.ErrUnknownSession:
		return CodeUnknownSession
	case session.ErrDuplicatePlayer:
		return CodeDuplicatePlayer
	case session.ErrInvalidPhase:
		return CodeInvalidPhase
	case session.ErrInsufficientPlayers:
		return CodeInsufficientPlayers
	case session.ErrNotYourTurn:
		return CodeNotYourTurn
	case session.ErrUnknownPlayer:
		return CodeUnknownPlayer
	}
	return CodeBadRequest
}

// Wrap marshals a response for the wire.
func Wrap(resp Response) []byte {
	b, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("error wrapping response for op '%s': %s", resp.Op, err)
		return []byte(``)
	}
	return b
}

// WrapError marshals an error response for the wire.
func WrapError(op string, err error) []byte {
	return Wrap(Response{
		Op:     op,
		Status: StatusError,
		Code:   CodeFromErr(err),
		Error:  err.Error(),
	})
}
