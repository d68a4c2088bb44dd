package discord

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"

	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/services/round"
	"github.com/masqueradebot/masquerade/internal/testutil"
)

type GatewaySuite struct {
	suite.Suite
	gateway *Gateway
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.gateway = &Gateway{logger: testutil.NopLogger()}
}

func (s *GatewaySuite) TestFilterHumansDropsBots() {
	mentions := []*discordgo.User{
		{ID: "101", Bot: false},
		{ID: "102", Bot: true},
		{ID: "103", Bot: false},
	}

	filtered := s.gateway.filterHumans([]model.ParticipantID{101, 102, 103}, mentions)
	s.Equal([]model.ParticipantID{101, 103}, filtered)
}

func (s *GatewaySuite) TestFilterHumansDropsUnconfirmedMentions() {
	// The parser found an ID but Discord never listed it as a mention:
	// the text only looked like a mention
	mentions := []*discordgo.User{{ID: "101", Bot: false}}

	filtered := s.gateway.filterHumans([]model.ParticipantID{101, 999}, mentions)
	s.Equal([]model.ParticipantID{101}, filtered)
}

func (s *GatewaySuite) TestFilterHumansPreservesOrder() {
	mentions := []*discordgo.User{
		{ID: "103", Bot: false},
		{ID: "101", Bot: false},
		{ID: "102", Bot: false},
	}

	filtered := s.gateway.filterHumans([]model.ParticipantID{103, 101, 102}, mentions)
	s.Equal([]model.ParticipantID{103, 101, 102}, filtered)
}

func (s *GatewaySuite) TestUserMessages() {
	s.Contains(userMessage(model.ErrTooFewParticipants), "at least 3")
	s.Contains(userMessage(model.ErrDuplicateParticipant), "more than once")
	s.Contains(userMessage(model.ErrTooManyExclusions), "previous round")
	s.Contains(userMessage(model.ErrExclusionsUnsatisfiable), "previous round")
	s.Equal("boom", userMessage(errors.New("boom")))
}

func (s *GatewaySuite) TestNotifyFailureMessageNamesParticipant() {
	err := &round.DeliveryError{Participant: 285136304914563075, Err: errors.New("dm closed")}
	msg := notifyFailureMessage(err)
	s.Contains(msg, "<@285136304914563075>")
	s.Contains(msg, "dm closed")
}
