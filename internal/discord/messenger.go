package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/services/round"
)

// Messenger adapts a discordgo session to the controller's messenger
// interface
type Messenger struct {
	session *discordgo.Session
}

// NewMessenger creates a Messenger on top of an open or soon-to-be-open
// session
func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{session: session}
}

// Ensure Messenger implements the interface
var _ round.Messenger = (*Messenger)(nil)

// OpenDirectChannel opens (or reuses) the DM channel with a participant
func (m *Messenger) OpenDirectChannel(ctx context.Context, participant model.ParticipantID) (model.ChannelID, error) {
	ch, err := m.session.UserChannelCreate(participant.String(), discordgo.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	return model.ParseChannelID(ch.ID)
}

// Send delivers text to a channel
func (m *Messenger) Send(ctx context.Context, channel model.ChannelID, text string) error {
	_, err := m.session.ChannelMessageSend(channel.String(), text, discordgo.WithContext(ctx))
	return err
}
