// Package router is the single entry point for inbound chat events. It
// authorizes the sender, feeds in-flow input to the sender's session and
// dispatches everything else through a static catalog of commands and
// buttons.
package router

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/session"
	"github.com/rpggio/actionplan/internal/policy"
	"github.com/rpggio/actionplan/internal/telemetry"
)

const (
	// DefaultPageSize is the number of rows on one listing page.
	DefaultPageSize = 5
	// DefaultOpTimeout bounds the storage work done for one event.
	DefaultOpTimeout = 10 * time.Second

	uploadPickLimit = 10
	scheduleLimit   = 3
)

// Config contains router configuration.
type Config struct {
	Services  Services
	Sessions  *session.Store
	Sender    chat.Sender
	Metrics   *telemetry.Metrics
	PageSize  int
	OpTimeout time.Duration
	// Location is used to read times typed by users. Nil means UTC.
	Location *time.Location
	Logger   *slog.Logger
}

// Router dispatches inbound events.
type Router struct {
	svc       Services
	sessions  *session.Store
	sender    chat.Sender
	metrics   *telemetry.Metrics
	catalog   *catalog
	flows     map[session.Flow]*flowDef
	times     *when.Parser
	pageSize  int
	opTimeout time.Duration
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a router.
func New(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.DefaultTTL, logger)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	times := when.New(nil)
	times.Add(en.All...)
	times.Add(common.All...)

	return &Router{
		svc:       cfg.Services,
		sessions:  sessions,
		sender:    cfg.Sender,
		metrics:   cfg.Metrics,
		catalog:   newCatalog(defaultEntries()),
		flows:     defaultFlows(),
		times:     times,
		pageSize:  pageSize,
		opTimeout: opTimeout,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

type outcome string

const (
	outcomeOK        outcome = "ok"
	outcomeDenied    outcome = "denied"
	outcomeForbidden outcome = "forbidden"
	outcomeInvalid   outcome = "invalid"
	outcomeNotFound  outcome = "not_found"
	outcomeConflict  outcome = "conflict"
	outcomeTransient outcome = "transient"
	outcomeError     outcome = "error"
	outcomeUnknown   outcome = "unknown"
	outcomeExpired   outcome = "expired"
	outcomePanic     outcome = "panic"
)

// request is one event being handled. caller is nil until the sender
// has been authorized.
type request struct {
	ev     chat.Event
	handle string
	caller *account.Account
	arg    string
}

// HandleEvent processes one inbound event. Events from the same handle
// are handled one at a time. It never returns an error or panics: every
// outcome is answered through the sender.
func (r *Router) HandleEvent(ctx context.Context, ev chat.Event) {
	handle := strings.TrimSpace(ev.From.Handle)
	if handle == "" || ev.Payload == nil {
		r.logger.Warn("dropping malformed event", "kind", ev.Kind())
		return
	}
	ev.From.Handle = handle

	unlock := r.sessions.Lock(handle)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	start := r.now()
	out := r.handleSafely(ctx, ev)
	r.metrics.RecordEvent(ctx, ev.Kind().String(), string(out), r.now().Sub(start))
	r.logger.Debug("event handled", "handle", handle, "kind", ev.Kind().String(), "outcome", out)
}

func (r *Router) handleSafely(ctx context.Context, ev chat.Event) (out outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic handling event",
				"handle", ev.From.Handle,
				"kind", ev.Kind().String(),
				"panic", p,
				"stack", string(debug.Stack()),
			)
			r.sessions.End(ev.From.Handle)
			r.reply(ctx, ev.From.Handle, msgGenericError, nil)
			out = outcomePanic
		}
	}()
	return r.handle(ctx, ev)
}

func (r *Router) handle(ctx context.Context, ev chat.Event) outcome {
	handle := ev.From.Handle
	e, arg := r.catalog.match(ev)

	if e != nil && e.public {
		req := &request{ev: ev, handle: handle, arg: arg}
		if err := e.run(ctx, r, req); err != nil {
			return r.fail(ctx, req, nil, err)
		}
		return outcomeOK
	}

	caller, err := r.svc.Accounts.Authorize(ctx, handle)
	if err != nil {
		return r.fail(ctx, &request{ev: ev, handle: handle}, nil, err)
	}
	req := &request{ev: ev, handle: handle, caller: caller, arg: arg}

	st, err := r.sessions.Get(handle)
	switch {
	case errors.Is(err, session.ErrExpired):
		r.reply(ctx, handle, msgSessionExpired, nil)
	case err == nil:
		if e == nil {
			return r.advance(ctx, req, st)
		}
		if e.flow == "" && !e.cancels {
			r.reply(ctx, handle, msgFinishFlow, nil)
			r.prompt(ctx, req, st)
			return outcomeInvalid
		}
	}

	if e == nil {
		return r.unmatched(ctx, req)
	}
	return r.dispatch(ctx, e, req)
}

// dispatch runs a catalog entry for an authorized caller.
func (r *Router) dispatch(ctx context.Context, e *entry, req *request) outcome {
	if !account.HasRole(req.caller, e.roles) {
		r.reply(ctx, req.handle, msgForbidden, nil)
		return outcomeForbidden
	}
	for _, kind := range e.partition {
		if _, err := policy.ScopeFor(kind, req.caller); err != nil {
			return r.fail(ctx, req, nil, err)
		}
	}
	if err := e.run(ctx, r, req); err != nil {
		return r.fail(ctx, req, nil, err)
	}
	return outcomeOK
}

func (r *Router) unmatched(ctx context.Context, req *request) outcome {
	switch p := req.ev.Payload.(type) {
	case chat.Button:
		if isStepToken(p.Data) {
			r.reply(ctx, req.handle, msgActionExpired, nil)
			return outcomeExpired
		}
	case chat.Media:
		r.reply(ctx, req.handle, msgUnexpectedFile, nil)
		return outcomeUnknown
	}

	text := msgUnknownAction
	if hint := r.catalog.suggest(tokenOf(req.ev)); hint != "" {
		text += "\nDid you mean " + hint + "?"
	}
	r.reply(ctx, req.handle, text, nil)
	return outcomeUnknown
}

// advance feeds an event to the caller's current flow step.
func (r *Router) advance(ctx context.Context, req *request, st *session.State) outcome {
	step, ok := r.stepOf(st)
	if !ok {
		r.logger.Error("session in unknown step", "handle", req.handle, "flow", st.Flow, "step", st.Step)
		r.sessions.End(req.handle)
		r.reply(ctx, req.handle, msgGenericError, nil)
		return outcomeError
	}

	next, err := step.accept(ctx, r, req, st)
	if err != nil {
		return r.fail(ctx, req, st, err)
	}
	if next == stepDone {
		r.sessions.End(req.handle)
		r.metrics.FlowCompleted(ctx, string(st.Flow))
		return outcomeOK
	}

	st.Step = next
	if !r.sessions.Save(st) {
		r.logger.Warn("session replaced while advancing", "handle", req.handle, "flow", st.Flow)
		return outcomeConflict
	}
	r.prompt(ctx, req, st)
	return outcomeOK
}

// begin starts flow for the caller, replacing any flow in progress, and
// sends the first prompt.
func (r *Router) begin(ctx context.Context, req *request, flow session.Flow, values ...session.Value) error {
	def, ok := r.flows[flow]
	if !ok {
		return errors.New("unknown flow " + string(flow))
	}
	st := r.sessions.Begin(req.handle, flow, def.first)
	if len(values) > 0 {
		for _, v := range values {
			st.Set(v.Step, v.Value)
		}
		r.sessions.Save(st)
	}
	r.logger.Debug("flow started", "handle", req.handle, "flow", flow)
	r.prompt(ctx, req, st)
	return nil
}

func (r *Router) stepOf(st *session.State) (stepDef, bool) {
	def, ok := r.flows[st.Flow]
	if !ok {
		return stepDef{}, false
	}
	step, ok := def.steps[st.Step]
	return step, ok
}

func (r *Router) prompt(ctx context.Context, req *request, st *session.State) {
	step, ok := r.stepOf(st)
	if !ok {
		return
	}
	msg := step.prompt(r, st)
	msg.Target = req.handle
	r.send(ctx, msg)
}

func (r *Router) reply(ctx context.Context, handle, text string, kb *chat.Keyboard) {
	r.send(ctx, chat.Message{Target: handle, Text: text, Keyboard: kb})
}

func (r *Router) send(ctx context.Context, msg chat.Message) {
	if r.sender == nil {
		return
	}
	if err := r.sender.Send(ctx, msg); err != nil {
		r.logger.Debug("reply not delivered", "target", msg.Target, "error", err)
	}
}
