// Package chat defines the transport-neutral inbound events and outbound
// messages exchanged between chat transports and the router.
package chat

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of an inbound event.
type Kind int

const (
	KindCommand Kind = iota + 1
	KindButton
	KindText
	KindMedia
)

// Kinds returns every event kind the router must handle.
func Kinds() []Kind {
	return []Kind{KindCommand, KindButton, KindText, KindMedia}
}

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindButton:
		return "button"
	case KindText:
		return "text"
	case KindMedia:
		return "media"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses the wire name of an event kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// User identifies who produced an event on the transport.
type User struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	Username    string `json:"username,omitempty"`
}

// Payload is the kind-specific content of an event. It is implemented by
// Command, Button, Text and Media only.
type Payload interface {
	Kind() Kind
	isPayload()
}

// Event is one inbound message from a chat transport.
type Event struct {
	From    User
	Payload Payload
}

// Kind returns the event kind, or zero when the payload is missing.
func (e Event) Kind() Kind {
	if e.Payload == nil {
		return 0
	}
	return e.Payload.Kind()
}

// Command is a slash command such as /start.
type Command struct {
	Name string
	Args []string
}

// Button is an inline keyboard press carrying an action token.
type Button struct {
	Data string
}

// Text is a free-text message, including reply-keyboard menu labels.
type Text struct {
	Body string
}

// MediaKind is the transport's classification of an uploaded file.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// Media is a file upload. FileRef is an opaque transport reference; the
// bytes themselves never pass through the router.
type Media struct {
	MediaKind MediaKind
	FileRef   string
	FileName  string
	MimeType  string
	Size      int64
}

func (Command) Kind() Kind { return KindCommand }
func (Button) Kind() Kind  { return KindButton }
func (Text) Kind() Kind    { return KindText }
func (Media) Kind() Kind   { return KindMedia }

func (Command) isPayload() {}
func (Button) isPayload()  {}
func (Text) isPayload()    {}
func (Media) isPayload()   {}

// ParseMessage turns a typed message into a Command when it starts with a
// slash, otherwise into Text.
func ParseMessage(from User, body string) Event {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "/") && len(trimmed) > 1 {
		fields := strings.Fields(trimmed[1:])
		name := strings.ToLower(fields[0])
		// Telegram-style /cmd@botname
		if at := strings.IndexByte(name, '@'); at > 0 {
			name = name[:at]
		}
		return Event{From: from, Payload: Command{Name: name, Args: fields[1:]}}
	}
	return Event{From: from, Payload: Text{Body: body}}
}
