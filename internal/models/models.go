package models

import "time"

// Speaker identifies who produced a turn
type Speaker int

const (
	SpeakerUser Speaker = iota
	SpeakerAssistant
)

func (s Speaker) String() string {
	switch s {
	case SpeakerUser:
		return "user"
	case SpeakerAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Turn is one message of a conversation
type Turn struct {
	Speaker Speaker
	Text    string
}

// UserTurn builds a turn spoken by the user
func UserTurn(text string) Turn {
	return Turn{Speaker: SpeakerUser, Text: text}
}

// AssistantTurn builds a turn produced by the model
func AssistantTurn(text string) Turn {
	return Turn{Speaker: SpeakerAssistant, Text: text}
}

// Outcome values recorded for an exchange
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
	OutcomeUnknown     = "unknown"
)

// Exchange is a usage record of one completion request. It never carries message text.
type Exchange struct {
	ID          string
	UserID      int64
	Provider    string
	Model       string
	Outcome     string
	PromptChars int
	ReplyChars  int
	Latency     time.Duration
	CreatedAt   time.Time
}

// UsageStats aggregates exchanges of a single user
type UsageStats struct {
	Exchanges  int
	Failures   int
	ReplyChars int
	LastAt     time.Time
}
