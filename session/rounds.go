package session

// RoundUpdate is a single state update submitted by the gamer whose turn it
// was, tagged with the round it was played in.
type RoundUpdate struct {
	Round   int    `json:"round"`
	GamerID string `json:"gamer_id"`
	Payload []byte `json:"payload"`
	Seq     uint64 `json:"seq"`
}

// roundHistory groups updates by round number, insertion order preserved.
// Sequence numbers are strictly increasing across the whole session.
type roundHistory struct {
	seq     uint64
	byRound map[int][]RoundUpdate
}

func newRoundHistory() roundHistory {
	return roundHistory{
		byRound: make(map[int][]RoundUpdate),
	}
}

func (h *roundHistory) append(round int, gamerID string, payload []byte) RoundUpdate {
	h.seq++
	u := RoundUpdate{
		Round:   round,
		GamerID: gamerID,
		Payload: payload,
		Seq:     h.seq,
	}
	h.byRound[round] = append(h.byRound[round], u)
	return u
}

// updates returns a copy of the updates recorded for a round, empty when the
// round has none.
func (h *roundHistory) updates(round int) []RoundUpdate {
	recorded := h.byRound[round]
	out := make([]RoundUpdate, len(recorded))
	copy(out, recorded)
	return out
}

func (h *roundHistory) clear() {
	h.seq = 0
	h.byRound = make(map[int][]RoundUpdate)
}
