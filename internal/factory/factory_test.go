package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/testutil"
)

// nopMessenger satisfies the messenger interface without delivering anything
type nopMessenger struct{}

func (nopMessenger) OpenDirectChannel(_ context.Context, participant model.ParticipantID) (model.ChannelID, error) {
	return model.ChannelID(participant), nil
}

func (nopMessenger) Send(_ context.Context, _ model.ChannelID, _ string) error {
	return nil
}

type FactorySuite struct {
	suite.Suite
	ctx context.Context
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactorySuite))
}

func (s *FactorySuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *FactorySuite) TestDefaultsToMemoryRegistry() {
	app, err := New(Config{
		Logger:    testutil.NopLogger(),
		Messenger: nopMessenger{},
	})
	s.Require().NoError(err)
	s.NotNil(app.Registry)
	s.NotNil(app.Engine)
	s.NotNil(app.RoundController)
}

func (s *FactorySuite) TestMessengerRequired() {
	_, err := New(Config{Logger: testutil.NopLogger()})
	s.Error(err)
}

func (s *FactorySuite) TestRedisRequiresConfig() {
	_, err := New(Config{
		StorageType: StorageTypeRedis,
		Messenger:   nopMessenger{},
	})
	s.Error(err)
}

func (s *FactorySuite) TestInvalidStorageType() {
	_, err := New(Config{
		StorageType: "carrier-pigeon",
		Messenger:   nopMessenger{},
	})
	s.Error(err)
}

func (s *FactorySuite) TestWiredControllerRunsARound() {
	app, err := New(Config{
		Logger:    testutil.NopLogger(),
		Messenger: nopMessenger{},
	})
	s.Require().NoError(err)

	participants := []model.ParticipantID{101, 102, 103}
	round, err := app.RoundController.StartRound(s.ctx, 555, participants)
	s.Require().NoError(err)
	s.Len(round.Assignment, 3)

	s.Require().NoError(app.RoundController.NotifyParticipants(s.ctx, round))

	stored, err := app.Registry.GetByConversation(s.ctx, 555)
	s.Require().NoError(err)
	s.Equal(round.Host, stored.Host)
}
