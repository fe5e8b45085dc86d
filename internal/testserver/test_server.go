// Package testserver assembles the full bot over an in-memory database
// for tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/activity"
	"github.com/rpggio/actionplan/internal/domain/attachment"
	"github.com/rpggio/actionplan/internal/domain/session"
	"github.com/rpggio/actionplan/internal/domain/workitem"
	"github.com/rpggio/actionplan/internal/outbox"
	"github.com/rpggio/actionplan/internal/router"
	"github.com/rpggio/actionplan/internal/sqlite"
	"github.com/rpggio/actionplan/internal/telemetry"
	"github.com/rpggio/actionplan/internal/transport"
	"github.com/stretchr/testify/require"
)

// Options tunes the stack. The zero value uses production defaults.
type Options struct {
	SessionTTL time.Duration
	PageSize   int
	Metrics    *telemetry.Metrics
	Limits     *attachment.Limits
	// WrapWorkItems, when set, decorates the work item service the
	// router sees.
	WrapWorkItems func(router.WorkItemService) router.WorkItemService
}

// Stack is the wired bot without a network transport.
type Stack struct {
	DB        *sqlite.DB
	Accounts  *account.Service
	WorkItems *workitem.Service
	Sessions  *session.Store
	Router    *router.Router
}

// NewStack builds the bot over a fresh migrated in-memory database.
func NewStack(t *testing.T, opts Options) *Stack {
	t.Helper()

	db, err := sqlite.New(":memory:", sqlite.Options{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	limits := attachment.DefaultLimits()
	if opts.Limits != nil {
		limits = *opts.Limits
	}

	workItemRepo := sqlite.NewWorkItemRepository(db)
	accounts := account.NewService(sqlite.NewAccountRepository(db), nil)
	workItems := workitem.NewService(workItemRepo, workitem.NewGenerator(time.UTC), nil)
	sessions := session.NewStore(opts.SessionTTL, nil)

	var routed router.WorkItemService = workItems
	if opts.WrapWorkItems != nil {
		routed = opts.WrapWorkItems(workItems)
	}

	rtr := router.New(router.Config{
		Services: router.Services{
			Accounts:    accounts,
			WorkItems:   routed,
			Activities:  activity.NewService(sqlite.NewActivityRepository(db), nil),
			Attachments: attachment.NewService(sqlite.NewAttachmentRepository(db), workItems, limits, nil),
		},
		Sessions: sessions,
		Sender:   outbox.NewSender(nil, nil),
		Metrics:  opts.Metrics,
		PageSize: opts.PageSize,
		Location: time.UTC,
	})

	return &Stack{
		DB:        db,
		Accounts:  accounts,
		WorkItems: workItems,
		Sessions:  sessions,
		Router:    rtr,
	}
}

// Send delivers one event and returns the replies it produced.
func (s *Stack) Send(t *testing.T, ev chat.Event) []chat.Message {
	t.Helper()
	ctx, collector := outbox.WithCollector(context.Background())
	s.Router.HandleEvent(ctx, ev)
	return collector.Messages()
}

// Say sends typed text, or a command when it starts with a slash.
func (s *Stack) Say(t *testing.T, handle, text string) []chat.Message {
	t.Helper()
	return s.Send(t, chat.ParseMessage(chat.User{Handle: handle}, text))
}

// Press sends a button press.
func (s *Stack) Press(t *testing.T, handle, data string) []chat.Message {
	t.Helper()
	return s.Send(t, chat.Event{From: chat.User{Handle: handle}, Payload: chat.Button{Data: data}})
}

// AddAccount registers handle and, unless role is RoleNone, approves it
// with role.
func (s *Stack) AddAccount(t *testing.T, handle string, role account.Role) *account.Account {
	t.Helper()
	ctx := context.Background()
	acc, err := s.Accounts.Register(ctx, account.RegisterRequest{Handle: handle, DisplayName: "User " + handle})
	require.NoError(t, err)
	if role == account.RoleNone {
		return acc
	}
	acc, err = s.Accounts.Approve(ctx, handle, role)
	require.NoError(t, err)
	return acc
}

// TestServer serves a Stack over the HTTP webhook transport.
type TestServer struct {
	*Stack
	Server *httptest.Server
	Secret string
}

// New starts an HTTP test server over a fresh stack.
func New(t *testing.T, secret string) *TestServer {
	t.Helper()
	stack := NewStack(t, Options{})
	server := httptest.NewServer(transport.NewServer(transport.Config{
		Events:        stack.Router,
		Health:        stack.DB,
		WebhookSecret: secret,
	}))
	t.Cleanup(server.Close)
	return &TestServer{Stack: stack, Server: server, Secret: secret}
}
