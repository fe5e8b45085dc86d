package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/actionplan/internal/chat"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	msgs []chat.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg chat.Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestSender_CollectsWhenCollectorPresent(t *testing.T) {
	fallback := &recordingSender{}
	s := NewSender(fallback, nil)

	ctx, c := WithCollector(context.Background())
	require.NoError(t, s.Send(ctx, chat.Message{Target: "1", Text: "a"}))
	require.NoError(t, s.Send(ctx, chat.Message{Target: "1", Text: "b"}))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "a", msgs[0].Text)
	require.Equal(t, "b", msgs[1].Text)
	require.Empty(t, fallback.msgs)
}

func TestSender_Fallback(t *testing.T) {
	fallback := &recordingSender{}
	s := NewSender(fallback, nil)

	require.NoError(t, s.Send(context.Background(), chat.Message{Target: "1", Text: "hi"}))
	require.Len(t, fallback.msgs, 1)

	fallback.err = errors.New("down")
	require.Error(t, s.Send(context.Background(), chat.Message{Target: "1", Text: "again"}))
}

func TestSender_NoFallbackDrops(t *testing.T) {
	s := NewSender(nil, nil)
	require.NoError(t, s.Send(context.Background(), chat.Message{Target: "1", Text: "hi"}))
}

func TestCollector_MessagesIsCopy(t *testing.T) {
	ctx, c := WithCollector(context.Background())
	require.NoError(t, NewSender(nil, nil).Send(ctx, chat.Message{Text: "x"}))

	msgs := c.Messages()
	msgs[0].Text = "changed"
	require.Equal(t, "x", c.Messages()[0].Text)
}
