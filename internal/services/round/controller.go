package round

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/masqueradebot/masquerade/internal/dependencies/clock"
	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/registry"
	"github.com/masqueradebot/masquerade/internal/shuffle"
)

// Controller orchestrates rounds: it feeds the previous assignment into
// the shuffle engine as the exclusion set, registers the result, and
// drives notification and host relay through the messenger.
type Controller struct {
	registry  registry.Registry
	engine    *shuffle.Engine
	messenger Messenger
	clock     clock.Clock
	logger    *slog.Logger
}

// NewController creates a new round Controller
func NewController(
	reg registry.Registry,
	engine *shuffle.Engine,
	messenger Messenger,
	clk clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		registry:  reg,
		engine:    engine,
		messenger: messenger,
		clock:     clk,
		logger:    logger,
	}
}

// StartRound shuffles participants into a new round for the conversation.
// If the conversation already has a round, its pairs are forbidden from
// reappearing. The existing round is only replaced after the shuffle
// succeeds; on any shuffle failure the registry is untouched.
func (c *Controller) StartRound(
	ctx context.Context,
	channel model.ChannelID,
	participants []model.ParticipantID,
) (*model.Round, error) {
	avoid := map[model.Pair]struct{}{}
	prev, err := c.registry.GetByConversation(ctx, channel)
	if err != nil && !errors.Is(err, model.ErrRoundNotFound) {
		return nil, err
	}
	if prev != nil {
		avoid = prev.Assignment.AvoidSet()
	}

	assignment, err := c.engine.Shuffle(ctx, participants, avoid)
	if err != nil {
		return nil, err
	}

	round := &model.Round{
		Host:       assignment.Host(),
		Channel:    channel,
		Assignment: assignment,
		CreatedAt:  c.clock.Now(),
	}

	// Put evicts the superseded round atomically
	if err := c.registry.Put(ctx, round); err != nil {
		return nil, err
	}

	c.logger.Info("round started",
		slog.String("channel", channel.String()),
		slog.String("host", round.Host.String()),
		slog.Int("participants", len(assignment)),
		slog.Bool("superseded", prev != nil),
	)

	return round, nil
}

// NotifyParticipants privately tells each participant who they play as,
// and additionally tells the host that their DMs will be relayed. Delivery
// is sequential and fail-fast: the first failure stops the loop and is
// returned as a DeliveryError, leaving later participants un-notified. The
// round stays registered either way.
func (c *Controller) NotifyParticipants(ctx context.Context, round *model.Round) error {
	host := round.Host
	for _, pair := range round.Assignment {
		dm, err := c.messenger.OpenDirectChannel(ctx, pair.Player)
		if err != nil {
			return &DeliveryError{Participant: pair.Player, Err: err}
		}

		text := fmt.Sprintf("You play as %s!", pair.Avatar.Mention())
		if err := c.messenger.Send(ctx, dm, text); err != nil {
			return &DeliveryError{Participant: pair.Player, Err: err}
		}

		if pair.Player == host {
			const hostText = "You are also the host! Send me a message to relay it to everyone in your game."
			if err := c.messenger.Send(ctx, dm, hostText); err != nil {
				return &DeliveryError{Participant: pair.Player, Err: err}
			}
		}
	}

	c.logger.Info("participants notified",
		slog.String("channel", round.Channel.String()),
		slog.Int("participants", len(round.Assignment)),
	)
	return nil
}

// RelayHostMessage forwards a private message from a round's host to the
// round's conversation. Senders without an active round get
// model.ErrRoundNotFound; not every private message is part of a game.
func (c *Controller) RelayHostMessage(ctx context.Context, sender model.ParticipantID, text string) error {
	round, err := c.registry.GetByInitiator(ctx, sender)
	if err != nil {
		return err
	}

	relayed := fmt.Sprintf("The host says: %q", text)
	if err := c.messenger.Send(ctx, round.Channel, relayed); err != nil {
		return &DeliveryError{Participant: sender, Err: err}
	}

	c.logger.Info("host message relayed",
		slog.String("host", sender.String()),
		slog.String("channel", round.Channel.String()),
	)
	return nil
}

// EndRound retires the round hosted by the given participant
func (c *Controller) EndRound(ctx context.Context, host model.ParticipantID) (*model.Round, error) {
	round, err := c.registry.Remove(ctx, host)
	if err != nil {
		return nil, err
	}

	c.logger.Info("round ended",
		slog.String("host", host.String()),
		slog.String("channel", round.Channel.String()),
	)
	return round, nil
}

// ActiveRound returns the round currently running in the conversation
func (c *Controller) ActiveRound(ctx context.Context, channel model.ChannelID) (*model.Round, error) {
	return c.registry.GetByConversation(ctx, channel)
}
