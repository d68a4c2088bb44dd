package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/registry"
)

// Registry is a Redis-backed implementation of the registry interface.
// The one-round-per-conversation invariant is kept by a channel index key
// updated in the same transaction as the round itself; Put and Remove run
// under WATCH so a concurrent writer forces a retry instead of leaving a
// stale index behind.
type Registry struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis registry
func New(cfg Config) (*Registry, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Registry{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis registry with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Registry {
	return &Registry{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (r *Registry) Close() error {
	return r.client.Close()
}

// Ensure Registry implements the interface
var _ registry.Registry = (*Registry)(nil)

func (r *Registry) Put(ctx context.Context, round *model.Round) error {
	key := roundKey(round.Host)
	chKey := channelIndexKey(round.Channel)

	data, err := json.Marshal(round)
	if err != nil {
		return err
	}

	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		var stale []string

		// Evict any round already running in this conversation
		prevHost, err := tx.Get(ctx, chKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil && prevHost != round.Host.String() {
			id, perr := model.ParseParticipantID(prevHost)
			if perr == nil {
				stale = append(stale, roundKey(id))
			}
		}

		// A host restarting in a different conversation leaves a stale
		// channel index behind; clear it too
		existing, err := r.getRound(ctx, tx, round.Host)
		if err != nil && !errors.Is(err, model.ErrRoundNotFound) {
			return err
		}
		if existing != nil && existing.Channel != round.Channel {
			stale = append(stale, channelIndexKey(existing.Channel))
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(stale) > 0 {
				pipe.Del(ctx, stale...)
			}
			pipe.Set(ctx, key, data, r.cfg.RoundTTL)
			pipe.Set(ctx, chKey, round.Host.String(), r.cfg.RoundTTL)
			return nil
		})
		return err
	}, key, chKey)
}

func (r *Registry) GetByInitiator(ctx context.Context, host model.ParticipantID) (*model.Round, error) {
	return r.getRound(ctx, r.client, host)
}

func (r *Registry) GetByConversation(ctx context.Context, channel model.ChannelID) (*model.Round, error) {
	hostStr, err := r.client.Get(ctx, channelIndexKey(channel)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoundNotFound
		}
		return nil, err
	}

	host, err := model.ParseParticipantID(hostStr)
	if err != nil {
		return nil, err
	}
	return r.getRound(ctx, r.client, host)
}

func (r *Registry) Remove(ctx context.Context, host model.ParticipantID) (*model.Round, error) {
	key := roundKey(host)

	var removed *model.Round
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		round, err := r.getRound(ctx, tx, host)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.Del(ctx, channelIndexKey(round.Channel))
			return nil
		})
		if err != nil {
			return err
		}

		removed = round
		return nil
	}, key)
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// redisGetter is satisfied by both *redis.Client and *redis.Tx
type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *Registry) getRound(ctx context.Context, c redisGetter, host model.ParticipantID) (*model.Round, error) {
	data, err := c.Get(ctx, roundKey(host)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoundNotFound
		}
		return nil, err
	}

	var round model.Round
	if err := json.Unmarshal(data, &round); err != nil {
		return nil, err
	}
	return &round, nil
}
