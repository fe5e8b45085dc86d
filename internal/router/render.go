package router

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/domain/workitem"
)

const (
	msgAccessDenied   = "🔒 You need an approved account to do that. Use /register to request access."
	msgForbidden      = "⛔ Your role does not allow this action."
	msgUnknownAction  = "❓ Unknown action. Use /help to see what I can do."
	msgActionExpired  = "⌛ This action has expired."
	msgSessionExpired = "⌛ Your previous operation timed out and was discarded."
	msgFinishFlow     = "You are in the middle of an operation. Finish it or send /cancel."
	msgUnexpectedFile = "📎 To attach a file, choose Upload File and pick a task first."
	msgNotFound       = "🔍 Not found."
	msgConflict       = "That was changed by someone else. Please refresh and try again."
	msgRetry          = "⚠️ The service is busy. Please try again in a moment."
	msgGenericError   = "❌ Something went wrong. Please try again."
	msgCancelled      = "Operation cancelled."
	msgNothingPending = "Nothing to cancel."
)

const (
	tokenConfirm = "confirm"
	tokenCancel  = "cancel"
	tokenSkip    = "skip"
	tokenNoop    = "noop"
)

// Menu labels. Typed back as text by reply keyboards.
const (
	labelTasks      = "My Tasks"
	labelNewTask    = "New Task"
	labelLog        = "Log Activity"
	labelActivities = "My Activities"
	labelStats      = "My Stats"
	labelUpload     = "Upload File"
	labelSchedule   = "Schedule"
	labelSettings   = "Settings"
	labelHelp       = "Help"
)

// display turns an enum value such as "in_progress" into "In Progress".
// A Caser holds state, so one is made per call.
func display[T ~string](v T) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(v), "_", " "))
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func btn(label, data string) chat.KeyButton {
	return chat.KeyButton{Label: label, Data: data}
}

// grid lays buttons out perRow to a row.
func grid(buttons []chat.KeyButton, perRow int) [][]chat.KeyButton {
	var rows [][]chat.KeyButton
	for len(buttons) > 0 {
		n := min(perRow, len(buttons))
		rows = append(rows, buttons[:n])
		buttons = buttons[n:]
	}
	return rows
}

func inline(rows ...[]chat.KeyButton) *chat.Keyboard {
	return &chat.Keyboard{Rows: rows}
}

func mainMenu() *chat.Keyboard {
	return &chat.Keyboard{
		Menu: true,
		Rows: [][]chat.KeyButton{
			{{Label: labelTasks}, {Label: labelNewTask}},
			{{Label: labelLog}, {Label: labelActivities}},
			{{Label: labelStats}, {Label: labelUpload}},
			{{Label: labelSchedule}, {Label: labelSettings}},
			{{Label: labelHelp}},
		},
	}
}

func registerKeyboard() *chat.Keyboard {
	return inline([]chat.KeyButton{
		btn("📝 Register", "start_registration"),
		btn("ℹ️ Learn more", "learn_more"),
	})
}

func cancelRow() []chat.KeyButton {
	return []chat.KeyButton{btn("❌ Cancel", tokenCancel)}
}

func statusIcon(s workitem.Status) string {
	switch s {
	case workitem.StatusToDo:
		return "📋"
	case workitem.StatusInProgress:
		return "🔧"
	case workitem.StatusPending:
		return "⏸"
	case workitem.StatusBlocked:
		return "🚫"
	case workitem.StatusCompleted:
		return "✅"
	default:
		return "•"
	}
}

func priorityIcon(p workitem.Priority) string {
	switch p {
	case workitem.PriorityHigh:
		return "🟠"
	case workitem.PriorityCritical:
		return "🔴"
	default:
		return "🟢"
	}
}

func formatWorkItem(item *workitem.WorkItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", statusIcon(item.Status), item.Code)
	fmt.Fprintf(&b, "Category: %s\n", display(item.Category))
	fmt.Fprintf(&b, "Status: %s\n", display(item.Status))
	fmt.Fprintf(&b, "Priority: %s %s\n", priorityIcon(item.Priority), display(item.Priority))
	fmt.Fprintf(&b, "Created: %s\n", item.CreatedAt.Format("2006-01-02 15:04"))
	if item.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed: %s\n", item.CompletedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "\n%s", item.Description)
	return b.String()
}

func formatMinutes(m int) string {
	h, rem := m/60, m%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", rem)
	case rem == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, rem)
	}
}
