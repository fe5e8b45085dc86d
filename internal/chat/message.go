package chat

import (
	"context"
	"strings"
)

// KeyButton is one button on an outbound keyboard.
type KeyButton struct {
	Label string `json:"label"`
	Data  string `json:"data,omitempty"`
}

// Keyboard is attached to an outbound message. Inline keyboards carry
// action tokens in Data; a Menu keyboard is a persistent reply keyboard
// whose labels come back as Text events.
type Keyboard struct {
	Rows [][]KeyButton `json:"rows"`
	Menu bool          `json:"menu,omitempty"`
}

// Message is one outbound reply addressed to a handle.
type Message struct {
	Target   string    `json:"target"`
	Text     string    `json:"text"`
	Keyboard *Keyboard `json:"keyboard,omitempty"`
}

// Sender delivers outbound messages to a chat transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Render formats a message as plain text, listing keyboard buttons after
// the body. Used by text-only transports.
func Render(msg Message) string {
	var b strings.Builder
	b.WriteString(msg.Text)
	if msg.Keyboard == nil {
		return b.String()
	}
	for _, row := range msg.Keyboard.Rows {
		for _, btn := range row {
			b.WriteString("\n")
			if msg.Keyboard.Menu || btn.Data == "" {
				b.WriteString("[" + btn.Label + "]")
				continue
			}
			b.WriteString("[" + btn.Label + "] -> " + btn.Data)
		}
	}
	return b.String()
}
