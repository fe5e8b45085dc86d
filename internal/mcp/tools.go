package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/outbox"
)

// SendMessageInput is a typed chat message. Text starting with a slash
// is a command.
type SendMessageInput struct {
	Text string `json:"text" jsonschema:"message text, a /command, or a menu label such as My Tasks"`
}

// PressButtonInput presses an inline button from an earlier reply.
type PressButtonInput struct {
	Data string `json:"data" jsonschema:"the data token of the button, for example tasks:all"`
}

// UploadFileInput describes a file by reference.
type UploadFileInput struct {
	Kind     string `json:"kind" jsonschema:"photo, video or document"`
	FileRef  string `json:"file_ref" jsonschema:"opaque reference to the stored file"`
	FileName string `json:"file_name,omitempty" jsonschema:"original file name"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size" jsonschema:"file size in bytes"`
}

// Reply is one bot message returned to the client.
type Reply struct {
	Text    string           `json:"text"`
	Buttons []chat.KeyButton `json:"buttons,omitempty"`
	Menu    bool             `json:"menu,omitempty"`
}

// ToolOutput is the structured result of every tool.
type ToolOutput struct {
	Replies []Reply `json:"replies"`
}

func registerTools(server *sdkmcp.Server, events EventHandler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "send_message",
		Description: "Send a text message or /command to the bot and return its replies",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SendMessageInput) (*sdkmcp.CallToolResult, ToolOutput, error) {
		if strings.TrimSpace(in.Text) == "" {
			return nil, ToolOutput{}, invalidArgument("text is required", "Send /help to list commands")
		}
		return dispatch(ctx, events, func(from chat.User) chat.Event {
			return chat.ParseMessage(from, in.Text)
		})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "press_button",
		Description: "Press an inline button from a previous reply, by its data token",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in PressButtonInput) (*sdkmcp.CallToolResult, ToolOutput, error) {
		if strings.TrimSpace(in.Data) == "" {
			return nil, ToolOutput{}, invalidArgument("data is required", "Use the data value shown after a button label")
		}
		return dispatch(ctx, events, func(from chat.User) chat.Event {
			return chat.Event{From: from, Payload: chat.Button{Data: in.Data}}
		})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "upload_file",
		Description: "Upload a file reference while the bot is waiting for an attachment",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in UploadFileInput) (*sdkmcp.CallToolResult, ToolOutput, error) {
		if strings.TrimSpace(in.FileRef) == "" {
			return nil, ToolOutput{}, invalidArgument("file_ref is required", "")
		}
		switch chat.MediaKind(in.Kind) {
		case chat.MediaPhoto, chat.MediaVideo, chat.MediaDocument:
		default:
			return nil, ToolOutput{}, invalidArgument("kind must be photo, video or document", "")
		}
		return dispatch(ctx, events, func(from chat.User) chat.Event {
			return chat.Event{From: from, Payload: chat.Media{
				MediaKind: chat.MediaKind(in.Kind),
				FileRef:   in.FileRef,
				FileName:  in.FileName,
				MimeType:  in.MimeType,
				Size:      in.Size,
			}}
		})
	})
}

// dispatch runs one event for the connection's handle and collects the
// replies.
func dispatch(ctx context.Context, events EventHandler, build func(chat.User) chat.Event) (*sdkmcp.CallToolResult, ToolOutput, error) {
	handle := getHandle(ctx)
	if handle == "" {
		return nil, ToolOutput{}, ErrNoHandle
	}

	ctx, collector := outbox.WithCollector(ctx)
	events.HandleEvent(ctx, build(chat.User{Handle: handle}))

	msgs := collector.Messages()
	out := ToolOutput{Replies: make([]Reply, 0, len(msgs))}
	content := make([]sdkmcp.Content, 0, len(msgs))
	for _, m := range msgs {
		reply := Reply{Text: m.Text}
		if m.Keyboard != nil {
			reply.Menu = m.Keyboard.Menu
			for _, row := range m.Keyboard.Rows {
				reply.Buttons = append(reply.Buttons, row...)
			}
		}
		out.Replies = append(out.Replies, reply)
		content = append(content, &sdkmcp.TextContent{Text: chat.Render(m)})
	}
	return &sdkmcp.CallToolResult{Content: content}, out, nil
}
