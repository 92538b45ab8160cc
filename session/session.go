package session

import "sync"

// DefaultMinGamers is the minimum rotation size a session needs before it
// can start.
const DefaultMinGamers = 2

// Session is one game instance: an ordered gamer rotation, the current turn,
// the per-round update history and the message log. All state is in memory
// and guarded by a single lock, so concurrent calls against the same session
// serialize while independent sessions proceed in parallel. Reads take the
// shared lock, mutations the exclusive one, and a failed call never leaves a
// partial mutation behind.
type Session struct {
	id        string
	minGamers int

	mtx      sync.RWMutex
	turns    turnTracker
	rounds   roundHistory
	messages messageLog
}

func newSession(id string, minGamers int) *Session {
	if minGamers < 1 {
		minGamers = DefaultMinGamers
	}
	return &Session{
		id:        id,
		minGamers: minGamers,
		turns:     newTurnTracker(),
		rounds:    newRoundHistory(),
		messages:  newMessageLog(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Status returns the lifecycle status of the session.
func (s *Session) Status() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.turns.status
}

// Gamers returns the rotation in join order.
func (s *Session) Gamers() []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.gamersLocked()
}

func (s *Session) gamersLocked() []string {
	out := make([]string, len(s.turns.gamers))
	copy(out, s.turns.gamers)
	return out
}

// Round returns the number of completed full rotations.
func (s *Session) Round() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.turns.round
}

// CurrentGamer returns the gamer holding the turn. The second value is false
// while the session is not active.
func (s *Session) CurrentGamer() (string, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.turns.status != StatusActive {
		return "", false
	}
	return s.turns.current()
}

// Join adds a gamer to the end of the rotation and returns the updated
// rotation. Gamers can only join while the session is pending.
func (s *Session) Join(gamerID string) ([]string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.turns.status != StatusPending {
		return nil, ErrInvalidPhase
	}
	if err := s.turns.addGamer(gamerID); err != nil {
		return nil, err
	}
	return s.gamersLocked(), nil
}

// Start activates a pending session. The first gamer to have joined moves
// first.
func (s *Session) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.turns.status != StatusPending {
		return ErrInvalidPhase
	}
	if len(s.turns.gamers) < s.minGamers {
		return ErrInsufficientPlayers
	}
	s.turns.status = StatusActive
	s.turns.index = 0
	return nil
}

// End moves the session to its terminal status. Ending is legal from any
// status and idempotent; afterwards only reads and Reset are allowed.
func (s *Session) End() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.turns.status = StatusEnded
	return nil
}

// Reset clears the rotation, the round history and the message log and
// returns the session to pending. The registry slot survives so the same
// session id can host a fresh game.
func (s *Session) Reset() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.turns.clear()
	s.rounds.clear()
	s.messages.clear()
}

// IsGamerTurn reports whether the session is active and the turn belongs to
// the given gamer. Pure query, no side effects.
func (s *Session) IsGamerTurn(gamerID string) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.turns.status != StatusActive {
		return false
	}
	current, ok := s.turns.current()
	return ok && current == gamerID
}

// IsGameOn reports whether the session is active.
func (s *Session) IsGameOn() bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.turns.status == StatusActive
}

// SubmitUpdate records a state update for the current round and passes the
// turn to the next gamer. Only the turn holder of an active session can
// submit.
func (s *Session) SubmitUpdate(gamerID string, payload []byte) (RoundUpdate, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.turns.status != StatusActive {
		return RoundUpdate{}, ErrInvalidPhase
	}
	if !s.turns.contains(gamerID) {
		return RoundUpdate{}, ErrUnknownPlayer
	}
	if current, _ := s.turns.current(); current != gamerID {
		return RoundUpdate{}, ErrNotYourTurn
	}
	u := s.rounds.append(s.turns.round, gamerID, payload)
	s.turns.advance()
	return u, nil
}

// NextGamer passes the turn without recording an update. It shares the
// advance algorithm with SubmitUpdate.
func (s *Session) NextGamer() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.turns.status != StatusActive {
		return ErrInvalidPhase
	}
	s.turns.advance()
	return nil
}

// RoundUpdates returns the updates recorded for the given round in
// submission order, empty when none were recorded.
func (s *Session) RoundUpdates(round int) []RoundUpdate {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.rounds.updates(round)
}

// PreviousRoundUpdates returns the updates of the most recently completed
// round, empty while no full rotation has finished yet.
func (s *Session) PreviousRoundUpdates() []RoundUpdate {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.turns.round == 0 {
		return []RoundUpdate{}
	}
	return s.rounds.updates(s.turns.round - 1)
}

// PostMessage appends a message from a session gamer, optionally addressed
// to a single recipient. Messaging works while gamers are still joining and
// during the game, but not once the session ended.
func (s *Session) PostMessage(from, to string, payload []byte) (Message, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.turns.status == StatusEnded {
		return Message{}, ErrInvalidPhase
	}
	if !s.turns.contains(from) {
		return Message{}, ErrUnknownPlayer
	}
	if to != "" && !s.turns.contains(to) {
		return Message{}, ErrUnknownPlayer
	}
	return s.messages.append(from, to, payload), nil
}

// AllMessages returns the full ordered message log. Reading works in any
// status, including after the session ended.
func (s *Session) AllMessages() []Message {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.messages.all()
}
