package registry

import (
	"context"

	"github.com/masqueradebot/masquerade/internal/model"
)

// Registry tracks the active rounds. At any instant there is at most one
// round per host and at most one per conversation; Put maintains both
// invariants in a single critical section. Lookups and Remove report a
// missing round as model.ErrRoundNotFound.
type Registry interface {
	// Put inserts a round keyed by its host, first evicting any round
	// that shares the conversation (regardless of host)
	Put(ctx context.Context, round *model.Round) error

	// GetByInitiator returns the round hosted by the given participant
	GetByInitiator(ctx context.Context, host model.ParticipantID) (*model.Round, error)

	// GetByConversation returns the round active in the given conversation
	GetByConversation(ctx context.Context, channel model.ChannelID) (*model.Round, error)

	// Remove deletes the round hosted by the given participant and
	// returns the removed value
	Remove(ctx context.Context, host model.ParticipantID) (*model.Round, error)
}
