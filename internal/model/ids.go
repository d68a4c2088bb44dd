package model

import "strconv"

// ParticipantID uniquely identifies a participant (a Discord user snowflake)
type ParticipantID uint64

// ChannelID uniquely identifies a conversation (a Discord channel snowflake)
type ChannelID uint64

// ParseParticipantID parses a decimal snowflake string
func ParseParticipantID(s string) (ParticipantID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ParticipantID(v), nil
}

// ParseChannelID parses a decimal snowflake string
func ParseChannelID(s string) (ChannelID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ChannelID(v), nil
}

// String returns the decimal form of the ID
func (id ParticipantID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Mention returns the chat mention form of the ID, e.g. <@285136304914563075>
func (id ParticipantID) Mention() string {
	return "<@" + id.String() + ">"
}

// String returns the decimal form of the ID
func (id ChannelID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
