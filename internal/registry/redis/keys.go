package redis

import (
	"fmt"

	"github.com/masqueradebot/masquerade/internal/model"
)

// Key prefix for all registry data
const keyPrefix = "masq"

// roundKey returns the Redis key for a Round, keyed by host
func roundKey(host model.ParticipantID) string {
	return fmt.Sprintf("%s:round:%s", keyPrefix, host)
}

// channelIndexKey returns the Redis key for the channel -> host index
func channelIndexKey(channel model.ChannelID) string {
	return fmt.Sprintf("%s:idx:channel:%s", keyPrefix, channel)
}
