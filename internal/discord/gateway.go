package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/parser"
	"github.com/masqueradebot/masquerade/internal/services/round"
	"github.com/masqueradebot/masquerade/internal/shuffle"
)

// NewSession creates a discordgo session with the intents the bot needs:
// guild messages for commands, message content to read them, and direct
// messages for the host relay.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentDirectMessages

	return session, nil
}

// Gateway routes incoming Discord events to the round controller. Guild
// messages may carry shuffle commands; direct messages may be host relay
// requests.
type Gateway struct {
	session    *discordgo.Session
	controller *round.Controller
	logger     *slog.Logger
}

// NewGateway creates a Gateway and registers its handlers on the session
func NewGateway(session *discordgo.Session, controller *round.Controller, logger *slog.Logger) *Gateway {
	g := &Gateway{
		session:    session,
		controller: controller,
		logger:     logger,
	}

	session.AddHandler(g.onReady)
	session.AddHandler(g.onMessageCreate)

	return g
}

// Open connects to the Discord gateway
func (g *Gateway) Open() error {
	return g.session.Open()
}

// Close disconnects from the Discord gateway
func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.logger.Info("connected to gateway", slog.String("user", r.User.Username))
}

func (g *Gateway) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Never react to ourselves or to other bots
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	ctx := context.Background()
	if m.GuildID != "" {
		g.guildMessage(ctx, m)
	} else {
		g.directMessage(ctx, m)
	}
}

// guildMessage handles a potential shuffle command in a guild channel
func (g *Gateway) guildMessage(ctx context.Context, m *discordgo.MessageCreate) {
	mentioned, err := parser.ParseShuffleCommand(m.Content)
	if err != nil {
		// Most guild messages are not commands
		g.logger.Debug("message rejected by parser", slog.String("error", err.Error()))
		return
	}

	participants := g.filterHumans(mentioned, m.Mentions)
	if len(participants) == 0 {
		// A bare "!shuffle" with nobody mentioned is not worth an error
		return
	}

	channel, err := model.ParseChannelID(m.ChannelID)
	if err != nil {
		g.logger.Error("unparseable channel id", slog.String("channel", m.ChannelID))
		return
	}

	newRound, err := g.controller.StartRound(ctx, channel, participants)
	if err != nil {
		g.logger.Warn("shuffle failed",
			slog.String("channel", m.ChannelID),
			slog.String("error", err.Error()),
		)
		g.reply(ctx, m.ChannelID, "Shuffle failed: "+userMessage(err))
		return
	}

	if err := g.controller.NotifyParticipants(ctx, newRound); err != nil {
		g.logger.Warn("notification failed",
			slog.String("channel", m.ChannelID),
			slog.String("error", err.Error()),
		)
		g.reply(ctx, m.ChannelID, notifyFailureMessage(err))
	}
}

// directMessage handles a potential host relay request
func (g *Gateway) directMessage(ctx context.Context, m *discordgo.MessageCreate) {
	sender, err := model.ParseParticipantID(m.Author.ID)
	if err != nil {
		return
	}

	err = g.controller.RelayHostMessage(ctx, sender, m.Content)
	if errors.Is(err, model.ErrRoundNotFound) {
		// Not every private message is part of an active round
		return
	}
	if err != nil {
		g.logger.Warn("host relay failed",
			slog.String("host", m.Author.ID),
			slog.String("error", err.Error()),
		)
		g.reply(ctx, m.ChannelID, "Error while relaying your message, please try again.")
	}
}

// filterHumans keeps only IDs that the message's mention metadata confirms
// to be non-bot users. Anything the parser found that Discord did not list
// as a mention was never a real mention.
func (g *Gateway) filterHumans(ids []model.ParticipantID, mentions []*discordgo.User) []model.ParticipantID {
	human := make(map[string]bool, len(mentions))
	for _, u := range mentions {
		human[u.ID] = !u.Bot
	}

	filtered := make([]model.ParticipantID, 0, len(ids))
	for _, id := range ids {
		if human[id.String()] {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

func (g *Gateway) reply(ctx context.Context, channelID, text string) {
	if _, err := g.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		g.logger.Error("failed to send reply",
			slog.String("channel", channelID),
			slog.String("error", err.Error()),
		)
	}
}

// userMessage maps shuffle errors to text fit for the channel
func userMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrTooFewParticipants):
		return fmt.Sprintf("mention at least %d people.", shuffle.MinParticipants)
	case errors.Is(err, model.ErrDuplicateParticipant):
		return "someone was mentioned more than once."
	case errors.Is(err, model.ErrTooManyExclusions),
		errors.Is(err, model.ErrExclusionsUnsatisfiable):
		return "couldn't find an arrangement different from the previous round."
	default:
		return err.Error()
	}
}

// notifyFailureMessage names the participant a DM could not reach. The
// round stays registered; the group can re-shuffle if they want a clean
// slate.
func notifyFailureMessage(err error) string {
	var de *round.DeliveryError
	if errors.As(err, &de) {
		return fmt.Sprintf("Error while sending a DM to %s: %v", de.Participant.Mention(), de.Unwrap())
	}
	return "Error while sending DMs: " + err.Error()
}
