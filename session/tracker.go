package session

// Session Statuses
const (
	StatusPending = "Pending"
	StatusActive  = "Active"
	StatusEnded   = "Ended"
)

// turnTracker owns the gamer rotation, the current turn index, the round
// counter and the session status. It does no locking of its own, the owning
// Session serializes access.
type turnTracker struct {
	status string
	gamers []string
	index  int
	round  int
}

func newTurnTracker() turnTracker {
	return turnTracker{
		status: StatusPending,
		gamers: []string{},
	}
}

func (t *turnTracker) addGamer(gamerID string) error {
	if t.contains(gamerID) {
		return ErrDuplicatePlayer
	}
	t.gamers = append(t.gamers, gamerID)
	return nil
}

func (t *turnTracker) contains(gamerID string) bool {
	for _, id := range t.gamers {
		if id == gamerID {
			return true
		}
	}
	return false
}

// current returns the gamer whose turn it is. The second value is false when
// the session has no gamers yet.
func (t *turnTracker) current() (string, bool) {
	if len(t.gamers) == 0 {
		return "", false
	}
	return t.gamers[t.index], true
}

// advance moves the turn to the next gamer in join order. Wrapping back to
// the first gamer completes a full rotation and increments the round counter.
// Both SubmitUpdate and NextGamer funnel through here so the two advance
// paths can never diverge.
func (t *turnTracker) advance() {
	t.index = (t.index + 1) % len(t.gamers)
	if t.index == 0 {
		t.round++
	}
}

func (t *turnTracker) clear() {
	t.status = StatusPending
	t.gamers = t.gamers[:0]
	t.index = 0
	t.round = 0
}
