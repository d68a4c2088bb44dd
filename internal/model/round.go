package model

import "time"

// Pair assigns one participant to secretly play as another.
// Invariant: Player != Avatar.
type Pair struct {
	Player ParticipantID `json:"player"`
	Avatar ParticipantID `json:"avatar"`
}

// Assignment is an ordered sequence of pairs forming a single cycle over
// the full participant set: each pair's avatar is the next pair's player,
// and the last pair wraps back to the first.
type Assignment []Pair

// Host returns the participant responsible for relaying messages to the
// group: the player of the first pair in generation order.
func (a Assignment) Host() ParticipantID {
	if len(a) == 0 {
		return 0
	}
	return a[0].Player
}

// Participants returns the players in cycle order
func (a Assignment) Participants() []ParticipantID {
	ids := make([]ParticipantID, len(a))
	for i, p := range a {
		ids[i] = p.Player
	}
	return ids
}

// AvoidSet returns the assignment's pairs as a set, for use as the
// exclusion input to the next shuffle on the same conversation
func (a Assignment) AvoidSet() map[Pair]struct{} {
	set := make(map[Pair]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	return set
}

// Round is one active pairing cycle for a conversation, owned by one host
type Round struct {
	Host       ParticipantID `json:"host"`
	Channel    ChannelID     `json:"channel"`
	Assignment Assignment    `json:"assignment"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Clone returns a deep copy. The registry owns its Round values and only
// ever hands out clones.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Assignment = make(Assignment, len(r.Assignment))
	copy(cp.Assignment, r.Assignment)
	return &cp
}
