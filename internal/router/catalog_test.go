package router

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/attachment"
	"github.com/rpggio/actionplan/internal/domain/session"
	"github.com/rpggio/actionplan/internal/domain/workitem"
	"github.com/rpggio/actionplan/internal/outbox"
	"github.com/rpggio/actionplan/internal/policy"
	"github.com/rpggio/actionplan/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestMatchersCoverEveryKind(t *testing.T) {
	for _, k := range chat.Kinds() {
		_, ok := matchers[k]
		require.True(t, ok, "no matcher for %s", k)
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := newCatalog(defaultEntries())
	user := chat.User{Handle: "1"}

	tests := []struct {
		ev   chat.Event
		name string
		arg  string
	}{
		{chat.ParseMessage(user, "/start"), "start", ""},
		{chat.ParseMessage(user, "/tasks@actionplan_bot"), "tasks", ""},
		{chat.ParseMessage(user, "  my   TASKS "), "tasks", ""},
		{chat.Event{From: user, Payload: chat.Button{Data: "tasks:to_do:2"}}, "task_list", "to_do:2"},
		{chat.Event{From: user, Payload: chat.Button{Data: "task:REP-250301-001"}}, "task_detail", "REP-250301-001"},
		{chat.Event{From: user, Payload: chat.Button{Data: "status:REP-250301-001:blocked"}}, "task_status", "REP-250301-001:blocked"},
		{chat.Event{From: user, Payload: chat.Button{Data: "cancel"}}, "cancel", ""},
		{chat.Event{From: user, Payload: chat.Button{Data: "acts:3"}}, "activities", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tokenOf(tt.ev), func(t *testing.T) {
			e, arg := c.match(tt.ev)
			require.NotNil(t, e)
			require.Equal(t, tt.name, e.name)
			require.Equal(t, tt.arg, arg)
		})
	}

	for _, ev := range []chat.Event{
		chat.ParseMessage(user, "/nope"),
		chat.ParseMessage(user, "fixed the pump"),
		{From: user, Payload: chat.Button{Data: "confirm"}},
		{From: user, Payload: chat.Media{MediaKind: chat.MediaPhoto, FileRef: "x"}},
	} {
		e, _ := c.match(ev)
		require.Nil(t, e, tokenOf(ev))
	}
}

func TestNewCatalog_Panics(t *testing.T) {
	noop := func(context.Context, *Router, *request) error { return nil }

	require.Panics(t, func() {
		newCatalog([]*entry{
			{name: "a", commands: []string{"/x"}, run: noop},
			{name: "b", commands: []string{"/x"}, run: noop},
		})
	})
	require.Panics(t, func() {
		newCatalog([]*entry{{name: "a", commands: []string{"/x"}}})
	})
	require.Panics(t, func() {
		newCatalog([]*entry{{name: "a", partition: []policy.EntityKind{"invoice"}, run: noop}})
	})
	require.Panics(t, func() {
		newCatalog([]*entry{{name: "a", prefixes: []string{"task"}, run: noop}})
	})
}

func TestSuggest(t *testing.T) {
	c := newCatalog(defaultEntries())
	require.Equal(t, "/tasks", c.suggest("/taks"))
	require.Equal(t, "My Stats", c.suggest("my stat"))
	require.Empty(t, c.suggest("completely unrelated words"))
	require.Empty(t, c.suggest(""))
}

func TestIsStepToken(t *testing.T) {
	for _, data := range []string{"confirm", "skip", "cat:repair", "act:travel_time", "prio:high", "when:now", "link:none"} {
		require.True(t, isStepToken(data), data)
	}
	for _, data := range []string{"tasks:all", "confirmed", "cancel", "category"} {
		require.False(t, isStepToken(data), data)
	}
}

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"45":     45 * time.Minute,
		"45m":    45 * time.Minute,
		"1h30m":  90 * time.Minute,
		"1H 30M": 90 * time.Minute,
	}
	for in, want := range tests {
		got, err := parseDuration(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := parseDuration("soon")
	require.Error(t, err)
}

func TestParseListArg(t *testing.T) {
	f, p, err := parseListArg("")
	require.NoError(t, err)
	require.Equal(t, "all", f)
	require.Equal(t, 1, p)

	f, p, err = parseListArg("in_progress:3")
	require.NoError(t, err)
	require.Equal(t, "in_progress", f)
	require.Equal(t, 3, p)

	_, _, err = parseListArg("all:0")
	require.Equal(t, ValidationFailed, Classify(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{account.ErrAccessDenied, AccessDenied},
		{fmt.Errorf("scope: %w", policy.ErrAccessDenied), AccessDenied},
		{fmt.Errorf("listing: %w", repository.ErrTransient), TransientStorageFailure},
		{context.DeadlineExceeded, TransientStorageFailure},
		{workitem.ErrNotFound, NotFound},
		{workitem.ErrConflict, Conflict},
		{account.ErrAlreadyExists, Conflict},
		{invalidf("bad page"), ValidationFailed},
		{attachment.ErrTooLarge, ValidationFailed},
		{workitem.ErrInvalidTransition, ValidationFailed},
		{errors.New("boom"), Unexpected},
		{nil, Unexpected},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}

func TestReason(t *testing.T) {
	require.Equal(t, "Bad page \"x\"", reason(invalidf("bad page %q", "x")))
	require.Equal(t, "That file is too large.", reason(fmt.Errorf("%w: 20 MB", attachment.ErrTooLarge)))
}

func TestDisplay(t *testing.T) {
	require.Equal(t, "In Progress", display(workitem.StatusInProgress))
	require.Equal(t, "Courier Collection", display("courier_collection"))
	require.Equal(t, "All", display("all"))
}

func TestFormatMinutes(t *testing.T) {
	require.Equal(t, "45m", formatMinutes(45))
	require.Equal(t, "2h", formatMinutes(120))
	require.Equal(t, "1h05m", formatMinutes(65))
}

type panickingAccounts struct{}

func (panickingAccounts) Resolve(context.Context, string) (*account.Account, error) {
	panic("resolve")
}

func (panickingAccounts) Authorize(context.Context, string) (*account.Account, error) {
	panic("authorize")
}

func (panickingAccounts) Register(context.Context, account.RegisterRequest) (*account.Account, error) {
	panic("register")
}

func (panickingAccounts) CountActive(context.Context) (int, error) {
	panic("count")
}

func TestHandleEvent_RecoversPanic(t *testing.T) {
	sessions := session.NewStore(time.Minute, nil)
	r := New(Config{
		Services: Services{Accounts: panickingAccounts{}},
		Sessions: sessions,
		Sender:   outbox.NewSender(nil, nil),
	})
	sessions.Begin("1", session.FlowLogActivity, stepActivityType)

	ctx, collector := outbox.WithCollector(context.Background())
	require.NotPanics(t, func() {
		r.HandleEvent(ctx, chat.ParseMessage(chat.User{Handle: "1"}, "/tasks"))
	})

	msgs := collector.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, msgGenericError, msgs[0].Text)
	_, err := sessions.Get("1")
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestHandleEvent_DropsMalformed(t *testing.T) {
	r := New(Config{Sender: outbox.NewSender(nil, nil)})
	ctx, collector := outbox.WithCollector(context.Background())

	r.HandleEvent(ctx, chat.Event{From: chat.User{Handle: " "}, Payload: chat.Text{Body: "hi"}})
	r.HandleEvent(ctx, chat.Event{From: chat.User{Handle: "1"}})
	require.Empty(t, collector.Messages())
}
