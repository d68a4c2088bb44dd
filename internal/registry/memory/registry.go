package memory

import (
	"context"
	"sync"

	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/registry"
)

// Registry is an in-memory implementation of the registry interface.
// Reads share the lock; Put and Remove are fully exclusive, so the
// read-then-evict step in Put cannot interleave with another writer.
type Registry struct {
	mu     sync.RWMutex
	rounds map[model.ParticipantID]*model.Round
}

// New creates a new in-memory registry
func New() *Registry {
	return &Registry{
		rounds: make(map[model.ParticipantID]*model.Round),
	}
}

// Ensure Registry implements the interface
var _ registry.Registry = (*Registry)(nil)

func (r *Registry) Put(ctx context.Context, round *model.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Evict any round already running in this conversation, whoever
	// hosts it
	for host, existing := range r.rounds {
		if existing.Channel == round.Channel {
			delete(r.rounds, host)
			break
		}
	}

	r.rounds[round.Host] = round.Clone()
	return nil
}

func (r *Registry) GetByInitiator(ctx context.Context, host model.ParticipantID) (*model.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	round, ok := r.rounds[host]
	if !ok {
		return nil, model.ErrRoundNotFound
	}
	return round.Clone(), nil
}

func (r *Registry) GetByConversation(ctx context.Context, channel model.ChannelID) (*model.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Linear scan: the registry only ever holds the concurrently active
	// rounds, so this stays small
	for _, round := range r.rounds {
		if round.Channel == channel {
			return round.Clone(), nil
		}
	}
	return nil, model.ErrRoundNotFound
}

func (r *Registry) Remove(ctx context.Context, host model.ParticipantID) (*model.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[host]
	if !ok {
		return nil, model.ErrRoundNotFound
	}
	delete(r.rounds, host)
	return round, nil
}
