package transport

import (
	"fmt"
	"strings"

	"github.com/rpggio/actionplan/internal/chat"
)

// EventRequest is the webhook payload for one inbound event.
type EventRequest struct {
	From  chat.User     `json:"from"`
	Kind  string        `json:"kind"`
	Text  string        `json:"text,omitempty"`
	Data  string        `json:"data,omitempty"`
	Media *MediaPayload `json:"media,omitempty"`
}

// MediaPayload describes an uploaded file by reference.
type MediaPayload struct {
	Kind     string `json:"kind"`
	FileRef  string `json:"file_ref"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size"`
}

// EventResponse carries the replies produced for one event.
type EventResponse struct {
	Replies []chat.Message `json:"replies"`
}

// Event converts the payload to a chat event.
func (in EventRequest) Event() (chat.Event, error) {
	if strings.TrimSpace(in.From.Handle) == "" {
		return chat.Event{}, fmt.Errorf("%w: missing from.handle", ErrInvalidEvent)
	}
	kind, err := chat.ParseKind(in.Kind)
	if err != nil {
		return chat.Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	switch kind {
	case chat.KindCommand:
		text := strings.TrimSpace(in.Text)
		if !strings.HasPrefix(text, "/") {
			text = "/" + text
		}
		if text == "/" {
			return chat.Event{}, fmt.Errorf("%w: empty command", ErrInvalidEvent)
		}
		return chat.ParseMessage(in.From, text), nil
	case chat.KindText:
		return chat.ParseMessage(in.From, in.Text), nil
	case chat.KindButton:
		if in.Data == "" {
			return chat.Event{}, fmt.Errorf("%w: missing button data", ErrInvalidEvent)
		}
		return chat.Event{From: in.From, Payload: chat.Button{Data: in.Data}}, nil
	case chat.KindMedia:
		if in.Media == nil || in.Media.FileRef == "" {
			return chat.Event{}, fmt.Errorf("%w: missing media", ErrInvalidEvent)
		}
		return chat.Event{From: in.From, Payload: chat.Media{
			MediaKind: chat.MediaKind(in.Media.Kind),
			FileRef:   in.Media.FileRef,
			FileName:  in.Media.FileName,
			MimeType:  in.Media.MimeType,
			Size:      in.Media.Size,
		}}, nil
	}
	return chat.Event{}, fmt.Errorf("%w: unsupported kind %s", ErrInvalidEvent, kind)
}
