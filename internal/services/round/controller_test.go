package round

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/masqueradebot/masquerade/internal/dependencies/mocks"
	"github.com/masqueradebot/masquerade/internal/dependencies/random"
	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/registry/memory"
	"github.com/masqueradebot/masquerade/internal/shuffle"
	"github.com/masqueradebot/masquerade/internal/testutil"
)

// dmOffset maps a participant to their fake DM channel
const dmOffset = 1_000_000

type sentMessage struct {
	channel model.ChannelID
	text    string
}

// fakeMessenger records deliveries and can be told to fail for a
// particular participant or channel
type fakeMessenger struct {
	opened []model.ParticipantID
	sent   []sentMessage

	failOpenFor model.ParticipantID
	failSendTo  model.ChannelID
	failErr     error
}

var _ Messenger = (*fakeMessenger)(nil)

func (f *fakeMessenger) OpenDirectChannel(_ context.Context, participant model.ParticipantID) (model.ChannelID, error) {
	f.opened = append(f.opened, participant)
	if participant != 0 && participant == f.failOpenFor {
		return 0, f.failErr
	}
	return model.ChannelID(participant) + dmOffset, nil
}

func (f *fakeMessenger) Send(_ context.Context, channel model.ChannelID, text string) error {
	if channel != 0 && channel == f.failSendTo {
		return f.failErr
	}
	f.sent = append(f.sent, sentMessage{channel: channel, text: text})
	return nil
}

type ControllerSuite struct {
	suite.Suite
	registry   *memory.Registry
	messenger  *fakeMessenger
	clock      *mocks.MockClock
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.registry = memory.New()
	s.messenger = &fakeMessenger{failErr: errors.New("transport down")}
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	engine := shuffle.New(random.New(), 0, testutil.NopLogger())
	s.controller = NewController(s.registry, engine, s.messenger, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func ids(n int) []model.ParticipantID {
	out := make([]model.ParticipantID, n)
	for i := range out {
		out[i] = model.ParticipantID(100 + i)
	}
	return out
}

func (s *ControllerSuite) TestStartRoundRegistersRound() {
	round, err := s.controller.StartRound(s.ctx, 555, ids(3))
	s.Require().NoError(err)

	s.Equal(model.ChannelID(555), round.Channel)
	s.Equal(round.Assignment[0].Player, round.Host)
	s.Equal(s.clock.CurrentTime, round.CreatedAt)

	stored, err := s.registry.GetByConversation(s.ctx, 555)
	s.Require().NoError(err)
	s.Equal(round.Assignment, stored.Assignment)

	byHost, err := s.registry.GetByInitiator(s.ctx, round.Host)
	s.Require().NoError(err)
	s.Equal(round.Assignment, byHost.Assignment)
}

func (s *ControllerSuite) TestSecondRoundAvoidsPriorPairs() {
	first, err := s.controller.StartRound(s.ctx, 555, ids(5))
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)

	for i := 0; i < 20; i++ {
		second, err := s.controller.StartRound(s.ctx, 555, ids(5))
		s.Require().NoError(err)

		avoid := first.Assignment.AvoidSet()
		for _, pair := range second.Assignment {
			s.NotContains(avoid, pair)
		}
		first = second
	}
}

func (s *ControllerSuite) TestSecondRoundSupersedesFirst() {
	first, err := s.controller.StartRound(s.ctx, 555, ids(4))
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	second, err := s.controller.StartRound(s.ctx, 555, ids(4))
	s.Require().NoError(err)

	stored, err := s.registry.GetByConversation(s.ctx, 555)
	s.Require().NoError(err)
	s.Equal(second.CreatedAt, stored.CreatedAt)

	if first.Host != second.Host {
		_, err := s.registry.GetByInitiator(s.ctx, first.Host)
		s.ErrorIs(err, model.ErrRoundNotFound)
	}
}

func (s *ControllerSuite) TestShuffleFailureLeavesRegistryUntouched() {
	first, err := s.controller.StartRound(s.ctx, 555, ids(3))
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	duplicated := append(ids(3), ids(3)[0])
	_, err = s.controller.StartRound(s.ctx, 555, duplicated)
	s.ErrorIs(err, model.ErrDuplicateParticipant)

	stored, err := s.registry.GetByConversation(s.ctx, 555)
	s.Require().NoError(err)
	s.Equal(first.CreatedAt, stored.CreatedAt)
	s.Equal(first.Assignment, stored.Assignment)
}

func (s *ControllerSuite) TestStartRoundTooFewParticipants() {
	_, err := s.controller.StartRound(s.ctx, 555, ids(2))
	s.ErrorIs(err, model.ErrTooFewParticipants)

	_, err = s.registry.GetByConversation(s.ctx, 555)
	s.ErrorIs(err, model.ErrRoundNotFound)
}

func (s *ControllerSuite) TestNotifyParticipants() {
	round, err := s.controller.StartRound(s.ctx, 555, ids(3))
	s.Require().NoError(err)

	s.Require().NoError(s.controller.NotifyParticipants(s.ctx, round))

	// One DM channel per participant
	s.Len(s.messenger.opened, 3)

	// Three role messages plus the host notice
	s.Require().Len(s.messenger.sent, 4)

	hostNotices := 0
	for i, pair := range round.Assignment {
		msg := s.messenger.sent[i+hostNotices]
		s.Equal(model.ChannelID(pair.Player)+dmOffset, msg.channel)
		s.Contains(msg.text, "You play as "+pair.Avatar.Mention())

		if pair.Player == round.Host {
			notice := s.messenger.sent[i+1]
			s.Equal(model.ChannelID(round.Host)+dmOffset, notice.channel)
			s.Contains(notice.text, "host")
			hostNotices++
		}
	}
	s.Equal(1, hostNotices)
}

func (s *ControllerSuite) TestNotifyStopsAtFirstFailure() {
	round, err := s.controller.StartRound(s.ctx, 555, ids(4))
	s.Require().NoError(err)

	victim := round.Assignment[1].Player
	s.messenger.failOpenFor = victim

	err = s.controller.NotifyParticipants(s.ctx, round)
	s.Require().Error(err)

	var de *DeliveryError
	s.Require().ErrorAs(err, &de)
	s.Equal(victim, de.Participant)

	// The loop stopped: channels were opened only up to the failure
	s.Len(s.messenger.opened, 2)

	// The round is still registered
	_, err = s.registry.GetByConversation(s.ctx, 555)
	s.NoError(err)
}

func (s *ControllerSuite) TestRelayHostMessage() {
	round, err := s.controller.StartRound(s.ctx, 555, ids(3))
	s.Require().NoError(err)

	err = s.controller.RelayHostMessage(s.ctx, round.Host, "the game is afoot")
	s.Require().NoError(err)

	last := s.messenger.sent[len(s.messenger.sent)-1]
	s.Equal(model.ChannelID(555), last.channel)
	s.Equal(`The host says: "the game is afoot"`, last.text)
}

func (s *ControllerSuite) TestRelayFromUnknownSender() {
	err := s.controller.RelayHostMessage(s.ctx, 9999, "hello?")
	s.ErrorIs(err, model.ErrRoundNotFound)
	s.Empty(s.messenger.sent)
}

func (s *ControllerSuite) TestRelayTransportFailure() {
	round, err := s.controller.StartRound(s.ctx, 555, ids(3))
	s.Require().NoError(err)

	s.messenger.failSendTo = 555
	err = s.controller.RelayHostMessage(s.ctx, round.Host, "anyone there?")

	var de *DeliveryError
	s.Require().ErrorAs(err, &de)
	s.Equal(round.Host, de.Participant)
}

func (s *ControllerSuite) TestEndRound() {
	round, err := s.controller.StartRound(s.ctx, 555, ids(3))
	s.Require().NoError(err)

	ended, err := s.controller.EndRound(s.ctx, round.Host)
	s.Require().NoError(err)
	s.Equal(round.Assignment, ended.Assignment)

	_, err = s.controller.EndRound(s.ctx, round.Host)
	s.ErrorIs(err, model.ErrRoundNotFound)

	_, err = s.controller.ActiveRound(s.ctx, 555)
	s.ErrorIs(err, model.ErrRoundNotFound)
}

func (s *ControllerSuite) TestDeliveryErrorMessageNamesParticipant() {
	de := &DeliveryError{Participant: 123, Err: fmt.Errorf("boom")}
	s.True(strings.Contains(de.Error(), "123"))
	s.Equal("boom", de.Unwrap().Error())
}
