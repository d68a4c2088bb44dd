package round

import (
	"context"
	"fmt"

	"github.com/masqueradebot/masquerade/internal/model"
)

// Messenger is the message-delivery collaborator. The controller only
// needs to open private channels and send text; the transport owns
// everything else.
type Messenger interface {
	// OpenDirectChannel returns a private channel to the participant
	OpenDirectChannel(ctx context.Context, participant model.ParticipantID) (model.ChannelID, error)

	// Send delivers text to a channel
	Send(ctx context.Context, channel model.ChannelID, text string) error
}

// DeliveryError reports which participant a transport failure occurred on
type DeliveryError struct {
	Participant model.ParticipantID
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Participant, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
