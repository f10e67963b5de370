package chat

import (
	"fmt"

	"github.com/jwebster45206/skeld-engine/pkg/game"
)

// Message is one committed meeting statement. Only statements that
// passed the speech gate are ever appended; drafts never enter the
// transcript.
type Message struct {
	Speaker  game.PlayerID `json:"speaker"`
	Content  string        `json:"content"`
	Round    int           `json:"round"`
	Stage    int           `json:"stage"`
	Timestep int           `json:"timestep"`
}

// Transcript is the ordered meeting chat history for one game.
type Transcript []Message

// Append validates and adds a committed statement.
func (t *Transcript) Append(m Message) error {
	if m.Speaker == "" {
		return fmt.Errorf("message speaker cannot be empty")
	}
	if m.Content == "" {
		return fmt.Errorf("message content cannot be empty")
	}
	*t = append(*t, m)
	return nil
}

// By returns all statements made by one speaker, in order.
func (t Transcript) By(speaker game.PlayerID) []Message {
	var out []Message
	for _, m := range t {
		if m.Speaker == speaker {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent n messages.
func (t Transcript) Last(n int) []Message {
	if n >= len(t) {
		return t
	}
	return t[len(t)-n:]
}
