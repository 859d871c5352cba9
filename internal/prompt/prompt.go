// Package prompt turns conversation history into provider-specific payloads.
package prompt

import (
	"chatbot/internal/models"
)

// PreamblePolicy says where a system preamble goes in a payload
type PreamblePolicy int

const (
	// PreambleSystemEntry prepends a message with the system role
	PreambleSystemEntry PreamblePolicy = iota
	// PreambleInstruction carries the preamble in Payload.Instruction
	PreambleInstruction
)

// Roles is the role vocabulary of a provider
type Roles struct {
	User      string
	Assistant string
	System    string
}

// Dialect describes how a provider expects its conversation
type Dialect struct {
	Name     string
	Roles    Roles
	Preamble PreamblePolicy
}

// Params are generation parameters passed through to the provider
type Params struct {
	Temperature     *float64 // nil keeps the provider default; zero is a valid value
	MaxOutputTokens int      // zero keeps the provider default
}

// Float returns a pointer to v, for Params.Temperature
func Float(v float64) *float64 {
	return &v
}

// Message is one role-tagged entry of a payload
type Message struct {
	Role string
	Text string
}

// Payload is the provider request built from history and a new message.
// Messages ends with the new user message.
type Payload struct {
	Messages    []Message
	Instruction string
	Params      Params
}

// Latest returns the new user message
func (p Payload) Latest() Message {
	if len(p.Messages) == 0 {
		return Message{}
	}
	return p.Messages[len(p.Messages)-1]
}

// History returns every entry before the new user message
func (p Payload) History() []Message {
	if len(p.Messages) == 0 {
		return nil
	}
	return p.Messages[:len(p.Messages)-1]
}

// Chars counts the characters sent in the payload
func (p Payload) Chars() int {
	n := len([]rune(p.Instruction))
	for _, m := range p.Messages {
		n += len([]rune(m.Text))
	}
	return n
}

// Assembler builds payloads for one dialect
type Assembler struct {
	dialect Dialect
	params  Params
}

// NewAssembler creates an assembler for the given dialect
func NewAssembler(dialect Dialect, params Params) *Assembler {
	return &Assembler{dialect: dialect, params: params}
}

// Dialect returns the dialect the assembler targets
func (a *Assembler) Dialect() Dialect {
	return a.dialect
}

// Build maps history to the dialect's roles and appends the new message.
// An empty preamble is treated as absent.
func (a *Assembler) Build(history []models.Turn, newMessage string, preamble string) Payload {
	payload := Payload{
		Messages: make([]Message, 0, len(history)+2),
		Params:   a.params,
	}

	if preamble != "" {
		switch a.dialect.Preamble {
		case PreambleInstruction:
			payload.Instruction = preamble
		default:
			payload.Messages = append(payload.Messages, Message{Role: a.dialect.Roles.System, Text: preamble})
		}
	}

	for _, turn := range history {
		payload.Messages = append(payload.Messages, Message{Role: a.role(turn.Speaker), Text: turn.Text})
	}

	payload.Messages = append(payload.Messages, Message{Role: a.dialect.Roles.User, Text: newMessage})
	return payload
}

func (a *Assembler) role(speaker models.Speaker) string {
	if speaker == models.SpeakerAssistant {
		return a.dialect.Roles.Assistant
	}
	return a.dialect.Roles.User
}
