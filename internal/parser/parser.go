// Package parser recognizes shuffle commands in raw chat text and extracts
// the mentioned participants. Rejections here are expected: most messages
// are simply not commands, so callers log them at debug level and move on.
package parser

import (
	"errors"
	"strings"

	"github.com/masqueradebot/masquerade/internal/model"
)

const (
	// CommandKeyword is the long command form
	CommandKeyword = "!shuffle"
	// CommandKeywordShort is the short command form
	CommandKeywordShort = "!sh"
)

// Snowflake IDs are 17-20 decimal digits
const (
	minIDDigits = 17
	maxIDDigits = 20
)

// Parse rejections
var (
	ErrMessageTooShort = errors.New("message too short to be a command")
	ErrNotACommand     = errors.New("message is not a shuffle command")
)

// ParseShuffleCommand checks text for a shuffle command and returns the
// mentioned participant IDs in the order they appear. Malformed mention
// candidates are skipped rather than rejected; deciding whether the
// surviving mentions make a playable group is the shuffle engine's job.
func ParseShuffleCommand(text string) ([]model.ParticipantID, error) {
	if len(text) < len(CommandKeywordShort) {
		return nil, ErrMessageTooShort
	}

	// The long form starts with the short form, so try it first
	var rest string
	switch {
	case strings.HasPrefix(text, CommandKeyword):
		rest = text[len(CommandKeyword):]
	case strings.HasPrefix(text, CommandKeywordShort):
		rest = text[len(CommandKeywordShort):]
	default:
		return nil, ErrNotACommand
	}

	var mentioned []model.ParticipantID
	for {
		start := strings.IndexByte(rest, '<')
		if start < 0 {
			break
		}
		rest = rest[start+1:]

		id, consumed, ok := parseMention(rest)
		if ok {
			mentioned = append(mentioned, id)
		}
		rest = rest[consumed:]
	}

	return mentioned, nil
}

// parseMention tries to read a mention body ("@123456789012345678>" or
// "@!123456789012345678>") from the start of s, with the leading '<'
// already consumed. It returns how many bytes were examined so the caller
// can continue scanning after a malformed candidate.
func parseMention(s string) (model.ParticipantID, int, bool) {
	consumed := 0
	if consumed >= len(s) || s[consumed] != '@' {
		return 0, consumed, false
	}
	consumed++

	// Nickname mentions carry an extra '!'
	if consumed < len(s) && s[consumed] == '!' {
		consumed++
	}

	digitsStart := consumed
	for consumed < len(s) && s[consumed] >= '0' && s[consumed] <= '9' {
		consumed++
	}
	digits := s[digitsStart:consumed]

	if consumed >= len(s) || s[consumed] != '>' {
		return 0, consumed, false
	}
	consumed++

	if len(digits) < minIDDigits || len(digits) > maxIDDigits {
		return 0, consumed, false
	}

	id, err := model.ParseParticipantID(digits)
	if err != nil {
		return 0, consumed, false
	}
	return id, consumed, true
}
