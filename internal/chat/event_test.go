package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	from := User{Handle: "42"}

	ev := ParseMessage(from, "/Start@actionplan_bot now")
	cmd, ok := ev.Payload.(Command)
	require.True(t, ok)
	require.Equal(t, "start", cmd.Name)
	require.Equal(t, []string{"now"}, cmd.Args)
	require.Equal(t, KindCommand, ev.Kind())

	ev = ParseMessage(from, "fix the pump")
	text, ok := ev.Payload.(Text)
	require.True(t, ok)
	require.Equal(t, "fix the pump", text.Body)

	ev = ParseMessage(from, "/")
	require.Equal(t, KindText, ev.Kind())
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
	}
	_, err := ParseKind("sticker")
	require.Error(t, err)
	require.Equal(t, Kind(0), Event{}.Kind())
}

func TestRender(t *testing.T) {
	msg := Message{
		Text: "Pick one",
		Keyboard: &Keyboard{Rows: [][]KeyButton{
			{{Label: "Repair", Data: "cat:repair"}},
		}},
	}
	require.Equal(t, "Pick one\n[Repair] -> cat:repair", Render(msg))

	menu := Message{Text: "Menu", Keyboard: &Keyboard{Menu: true, Rows: [][]KeyButton{{{Label: "My Tasks"}}}}}
	require.Equal(t, "Menu\n[My Tasks]", Render(menu))
}
