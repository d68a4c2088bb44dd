package shuffle

import (
	"context"
	"log/slog"
	"slices"

	"github.com/masqueradebot/masquerade/internal/dependencies/random"
	"github.com/masqueradebot/masquerade/internal/model"
)

const (
	// MinParticipants is the smallest group that can be shuffled. Below
	// three, each participant has at most one alternative target and the
	// exchange degenerates.
	MinParticipants = 3

	// DefaultMaxAttempts is the rejection-sampling retry cap before the
	// engine switches to the constructive search
	DefaultMaxAttempts = 100
)

// Engine produces cyclic assignments: random permutations arranged into a
// single cycle, so no participant is ever assigned to themselves. It holds
// no shared state and is safe for concurrent use.
type Engine struct {
	random      random.Random
	maxAttempts int
	logger      *slog.Logger
}

// New creates an Engine. maxAttempts bounds the rejection-sampling phase;
// 0 selects DefaultMaxAttempts.
func New(rnd random.Random, maxAttempts int, logger *slog.Logger) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Engine{
		random:      rnd,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Shuffle returns a random cyclic assignment over participants in which no
// pair appears in avoid. It retries fresh random orders up to the attempt
// cap, then falls back to a backtracking search over the complement of the
// exclusion set, so it always terminates with either a valid assignment or
// a definitive error.
func (e *Engine) Shuffle(
	ctx context.Context,
	participants []model.ParticipantID,
	avoid map[model.Pair]struct{},
) (model.Assignment, error) {
	// Detect duplicates by sorting a copy and comparing neighbours,
	// rather than trusting the caller
	sorted := slices.Clone(participants)
	slices.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, model.ErrDuplicateParticipant
		}
	}

	if len(participants) < MinParticipants {
		return nil, model.ErrTooFewParticipants
	}

	// Necessary, not sufficient: a solution may still not exist below
	// this bound, which is what the constructive fallback settles.
	if len(avoid) > len(participants) {
		return nil, model.ErrTooManyExclusions
	}

	order := slices.Clone(participants)
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.random.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		if assignment, ok := buildCycle(order, avoid); ok {
			return assignment, nil
		}
	}

	e.logger.Debug("rejection sampling exhausted, switching to constructive search",
		slog.Int("attempts", e.maxAttempts),
		slog.Int("participants", len(participants)),
		slog.Int("exclusions", len(avoid)),
	)

	// order is still randomly permuted from the sampling phase, so the
	// constructive search starts from a random position too
	return backtrack(ctx, order, avoid)
}

// buildCycle pairs each participant with its successor, wrapping the last
// back to the first. It reports false if any pair is excluded.
func buildCycle(order []model.ParticipantID, avoid map[model.Pair]struct{}) (model.Assignment, bool) {
	assignment := make(model.Assignment, len(order))
	for i, player := range order {
		pair := model.Pair{Player: player, Avatar: order[(i+1)%len(order)]}
		if _, forbidden := avoid[pair]; forbidden {
			return nil, false
		}
		assignment[i] = pair
	}
	return assignment, true
}

// backtrack searches for a cycle avoiding the exclusion set by extending a
// path one participant at a time and undoing steps that lead nowhere.
// Exhausting the search proves the exclusion set unsatisfiable.
func backtrack(
	ctx context.Context,
	participants []model.ParticipantID,
	avoid map[model.Pair]struct{},
) (model.Assignment, error) {
	n := len(participants)
	path := make([]model.ParticipantID, 1, n)
	path[0] = participants[0]
	used := make(map[model.ParticipantID]bool, n)
	used[participants[0]] = true

	allowed := func(from, to model.ParticipantID) bool {
		_, forbidden := avoid[model.Pair{Player: from, Avatar: to}]
		return !forbidden
	}

	var extend func() bool
	extend = func() bool {
		if ctx.Err() != nil {
			return false
		}
		if len(path) == n {
			// Close the cycle
			return allowed(path[n-1], path[0])
		}
		for _, candidate := range participants {
			if used[candidate] || !allowed(path[len(path)-1], candidate) {
				continue
			}
			used[candidate] = true
			path = append(path, candidate)
			if extend() {
				return true
			}
			path = path[:len(path)-1]
			used[candidate] = false
		}
		return false
	}

	if !extend() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, model.ErrExclusionsUnsatisfiable
	}

	assignment, _ := buildCycle(path, avoid)
	return assignment, nil
}
