package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/domain/activity"
	"github.com/rpggio/actionplan/internal/domain/attachment"
	"github.com/rpggio/actionplan/internal/domain/session"
	"github.com/rpggio/actionplan/internal/domain/workitem"
)

// stepDone is returned by the final step once the flow's effect is done.
const stepDone session.Step = ""

const (
	stepCategory     session.Step = "category"
	stepDescription  session.Step = "description"
	stepConfirm      session.Step = "confirm"
	stepActivityType session.Step = "activity_type"
	stepStart        session.Step = "start"
	stepDuration     session.Step = "duration"
	stepLink         session.Step = "link"
	stepFile         session.Step = "file"

	// Values collected outside a step of their own.
	valuePriority session.Step = "priority"
	valueWorkItem session.Step = "work_item"
)

type stepDef struct {
	prompt func(r *Router, st *session.State) chat.Message
	// accept validates input for the step, records it on st and returns
	// the next step. An error leaves the stored session untouched.
	accept func(ctx context.Context, r *Router, req *request, st *session.State) (session.Step, error)
}

type flowDef struct {
	first session.Step
	steps map[session.Step]stepDef
}

func defaultFlows() map[session.Flow]*flowDef {
	return map[session.Flow]*flowDef{
		session.FlowCreateWorkItem: {
			first: stepCategory,
			steps: map[session.Step]stepDef{
				stepCategory:    {prompt: promptWorkItemCategory, accept: acceptWorkItemCategory},
				stepDescription: {prompt: promptWorkItemDescription, accept: acceptWorkItemDescription},
				stepConfirm:     {prompt: promptWorkItemConfirm, accept: acceptWorkItemConfirm},
			},
		},
		session.FlowLogActivity: {
			first: stepActivityType,
			steps: map[session.Step]stepDef{
				stepActivityType: {prompt: promptActivityType, accept: acceptActivityType},
				stepDescription:  {prompt: promptActivityDescription, accept: acceptActivityDescription},
				stepStart:        {prompt: promptActivityStart, accept: acceptActivityStart},
				stepDuration:     {prompt: promptActivityDuration, accept: acceptActivityDuration},
				stepLink:         {prompt: promptActivityLink, accept: acceptActivityLink},
			},
		},
		session.FlowAttachFile: {
			first: stepFile,
			steps: map[session.Step]stepDef{
				stepFile: {prompt: promptFile, accept: acceptFile},
			},
		},
	}
}

// selection reads a choice either from a button carrying prefix or from
// typed text naming the option.
func selection(ev chat.Event, prefix string) (string, bool) {
	switch p := ev.Payload.(type) {
	case chat.Button:
		return strings.CutPrefix(p.Data, prefix)
	case chat.Text:
		v := strings.ToLower(strings.Join(strings.Fields(p.Body), "_"))
		return v, v != ""
	}
	return "", false
}

func textOf(ev chat.Event) (string, bool) {
	t, ok := ev.Payload.(chat.Text)
	if !ok {
		return "", false
	}
	body := strings.TrimSpace(t.Body)
	return body, body != ""
}

// pressed reports whether ev is the button token, or the same word typed.
func pressed(ev chat.Event, token string) bool {
	switch p := ev.Payload.(type) {
	case chat.Button:
		return p.Data == token
	case chat.Text:
		return strings.EqualFold(strings.TrimSpace(p.Body), token)
	}
	return false
}

// create_work_item

func promptWorkItemCategory(_ *Router, _ *session.State) chat.Message {
	var buttons []chat.KeyButton
	for _, c := range workitem.Categories() {
		buttons = append(buttons, btn(display(c), "cat:"+string(c)))
	}
	rows := append(grid(buttons, 2), cancelRow())
	return chat.Message{Text: "🆕 New task\n\nSelect a category:", Keyboard: inline(rows...)}
}

func acceptWorkItemCategory(_ context.Context, _ *Router, req *request, st *session.State) (session.Step, error) {
	v, ok := selection(req.ev, "cat:")
	if !ok {
		return "", invalidf("choose a category from the buttons")
	}
	cat, err := workitem.ParseCategory(v)
	if err != nil {
		return "", invalidf("%q is not a task category", v)
	}
	st.Set(stepCategory, string(cat))
	return stepDescription, nil
}

func promptWorkItemDescription(_ *Router, st *session.State) chat.Message {
	cat, _ := st.Get(stepCategory)
	return chat.Message{
		Text: fmt.Sprintf("Category: %s\n\nDescribe the task (%d to %d characters).",
			display(cat), workitem.MinDescriptionLen, workitem.MaxDescriptionLen),
		Keyboard: inline(cancelRow()),
	}
}

func acceptWorkItemDescription(_ context.Context, _ *Router, req *request, st *session.State) (session.Step, error) {
	body, ok := textOf(req.ev)
	if !ok {
		return "", invalidf("send the description as a text message")
	}
	if err := workitem.ValidateDescription(body); err != nil {
		return "", err
	}
	st.Set(stepDescription, body)
	return stepConfirm, nil
}

func priorityOf(st *session.State) workitem.Priority {
	if v, ok := st.Get(valuePriority); ok {
		return workitem.Priority(v)
	}
	return workitem.PriorityNormal
}

func promptWorkItemConfirm(_ *Router, st *session.State) chat.Message {
	cat, _ := st.Get(stepCategory)
	desc, _ := st.Get(stepDescription)
	prio := priorityOf(st)

	var prios []chat.KeyButton
	for _, p := range workitem.Priorities() {
		label := display(p)
		if p == prio {
			label = "• " + label
		}
		prios = append(prios, btn(label, "prio:"+string(p)))
	}
	return chat.Message{
		Text: fmt.Sprintf("Please confirm the new task:\n\nCategory: %s\nPriority: %s %s\n\n%s",
			display(cat), priorityIcon(prio), display(prio), desc),
		Keyboard: inline(
			prios,
			[]chat.KeyButton{btn("✅ Confirm", tokenConfirm), btn("❌ Cancel", tokenCancel)},
		),
	}
}

func acceptWorkItemConfirm(ctx context.Context, r *Router, req *request, st *session.State) (session.Step, error) {
	if v, ok := req.ev.Payload.(chat.Button); ok && strings.HasPrefix(v.Data, "prio:") {
		p, err := workitem.ParsePriority(strings.TrimPrefix(v.Data, "prio:"))
		if err != nil {
			return "", invalidf("unknown priority")
		}
		st.Set(valuePriority, string(p))
		return stepConfirm, nil
	}
	if !pressed(req.ev, tokenConfirm) {
		return "", invalidf("press Confirm to create the task or pick a priority")
	}

	cat, _ := st.Get(stepCategory)
	desc, _ := st.Get(stepDescription)
	item, err := r.svc.WorkItems.Create(ctx, req.caller, workitem.CreateRequest{
		Category:    workitem.Category(cat),
		Description: desc,
		Priority:    priorityOf(st),
	})
	if err != nil {
		return "", err
	}
	r.metrics.CodeAllocated(ctx, workitem.Prefix(item.Category))

	r.send(ctx, chat.Message{
		Target: req.handle,
		Text:   "✅ Task created\n\n" + formatWorkItem(item),
		Keyboard: inline([]chat.KeyButton{
			btn("📎 Attach file", "upload:"+item.Code),
			btn("📋 All tasks", "tasks:all"),
		}),
	})
	return stepDone, nil
}

// log_activity

func promptActivityType(_ *Router, _ *session.State) chat.Message {
	var buttons []chat.KeyButton
	for _, c := range activity.Categories() {
		buttons = append(buttons, btn(display(c), "act:"+string(c)))
	}
	rows := append(grid(buttons, 2), cancelRow())
	return chat.Message{Text: "⏱ Log activity\n\nWhat kind of work was it?", Keyboard: inline(rows...)}
}

func acceptActivityType(_ context.Context, _ *Router, req *request, st *session.State) (session.Step, error) {
	v, ok := selection(req.ev, "act:")
	if !ok {
		return "", invalidf("choose an activity type from the buttons")
	}
	cat, err := activity.ParseCategory(v)
	if err != nil {
		return "", invalidf("%q is not an activity type", v)
	}
	st.Set(stepActivityType, string(cat))
	return stepDescription, nil
}

func promptActivityDescription(_ *Router, st *session.State) chat.Message {
	cat, _ := st.Get(stepActivityType)
	return chat.Message{
		Text:     fmt.Sprintf("Type: %s\n\nDescribe what you did.", display(cat)),
		Keyboard: inline(cancelRow()),
	}
}

func acceptActivityDescription(_ context.Context, _ *Router, req *request, st *session.State) (session.Step, error) {
	body, ok := textOf(req.ev)
	if !ok {
		return "", invalidf("send the description as a text message")
	}
	if err := activity.ValidateDescription(body); err != nil {
		return "", err
	}
	st.Set(stepDescription, body)
	return stepStart, nil
}

func promptActivityStart(_ *Router, _ *session.State) chat.Message {
	return chat.Message{
		Text: "When did it start? Reply with a time such as \"9:30\", \"2 hours ago\" or \"yesterday 3pm\".",
		Keyboard: inline(
			[]chat.KeyButton{btn("🕒 Now", "when:now")},
			cancelRow(),
		),
	}
}

func acceptActivityStart(_ context.Context, r *Router, req *request, st *session.State) (session.Step, error) {
	now := r.now().In(r.loc)
	var started time.Time
	switch {
	case pressed(req.ev, "when:now"), pressed(req.ev, "now"):
		started = now
	default:
		body, ok := textOf(req.ev)
		if !ok {
			return "", invalidf("reply with a start time or press Now")
		}
		t, err := r.parseTime(body, now)
		if err != nil {
			return "", err
		}
		started = t
	}
	if started.After(now.Add(time.Minute)) {
		return "", invalidf("the start time cannot be in the future")
	}
	st.Set(stepStart, started.UTC().Format(time.RFC3339))
	return stepDuration, nil
}

// parseTime reads a natural-language time relative to now.
func (r *Router) parseTime(s string, now time.Time) (time.Time, error) {
	res, err := r.times.Parse(s, now)
	if err != nil || res == nil {
		return time.Time{}, invalidf("could not read %q as a time", s)
	}
	return res.Time, nil
}

func promptActivityDuration(_ *Router, _ *session.State) chat.Message {
	return chat.Message{
		Text: "How long did it take? For example 45m, 1h30m or a number of minutes.",
		Keyboard: inline(
			[]chat.KeyButton{btn("Skip", tokenSkip)},
			cancelRow(),
		),
	}
}

func acceptActivityDuration(_ context.Context, _ *Router, req *request, st *session.State) (session.Step, error) {
	if pressed(req.ev, tokenSkip) {
		st.Set(stepDuration, "0")
		return stepLink, nil
	}
	body, ok := textOf(req.ev)
	if !ok {
		return "", invalidf("reply with a duration or press Skip")
	}
	d, err := parseDuration(body)
	if err != nil {
		return "", invalidf("could not read %q as a duration", body)
	}
	if d <= 0 {
		return "", invalidf("the duration must be positive")
	}
	if err := activity.ValidateDuration(d); err != nil {
		return "", err
	}
	st.Set(stepDuration, strconv.Itoa(int(d/time.Minute)))
	return stepLink, nil
}

// parseDuration accepts Go durations ("45m", "1h30m") and bare minutes.
func parseDuration(s string) (time.Duration, error) {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(s)
}

func promptActivityLink(_ *Router, _ *session.State) chat.Message {
	return chat.Message{
		Text: "Link this activity to a task? Send the task code, or choose No link.",
		Keyboard: inline(
			[]chat.KeyButton{btn("No link", "link:none")},
			cancelRow(),
		),
	}
}

func acceptActivityLink(ctx context.Context, r *Router, req *request, st *session.State) (session.Step, error) {
	var (
		workItemID *int64
		code       string
	)
	if !pressed(req.ev, "link:none") && !pressed(req.ev, "none") {
		body, ok := textOf(req.ev)
		if !ok {
			return "", invalidf("send a task code or press No link")
		}
		item, err := r.svc.WorkItems.Get(ctx, req.caller, body)
		if errors.Is(err, workitem.ErrNotFound) || errors.Is(err, workitem.ErrInvalidInput) {
			return "", invalidf("no task with code %s", strings.ToUpper(body))
		}
		if err != nil {
			return "", err
		}
		workItemID, code = &item.ID, item.Code
	}
	st.Set(stepLink, code)

	cat, _ := st.Get(stepActivityType)
	desc, _ := st.Get(stepDescription)
	startRaw, _ := st.Get(stepStart)
	minutesRaw, _ := st.Get(stepDuration)
	started, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return "", fmt.Errorf("reading stored start time: %w", err)
	}
	minutes, err := strconv.Atoi(minutesRaw)
	if err != nil {
		return "", fmt.Errorf("reading stored duration: %w", err)
	}

	rec, err := r.svc.Activities.Log(ctx, req.caller, activity.LogRequest{
		Category:     activity.Category(cat),
		Description:  desc,
		StartedAt:    started,
		Duration:     time.Duration(minutes) * time.Minute,
		WorkItemID:   workItemID,
		WorkItemCode: code,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Activity logged\n\nType: %s\nStarted: %s\n", display(rec.Category), rec.StartedAt.In(r.loc).Format("2006-01-02 15:04"))
	if rec.DurationMinutes != nil {
		fmt.Fprintf(&b, "Duration: %s\n", formatMinutes(*rec.DurationMinutes))
	}
	if rec.WorkItemCode != "" {
		fmt.Fprintf(&b, "Task: %s\n", rec.WorkItemCode)
	}
	if !rec.Billable {
		b.WriteString("Not billable\n")
	}
	r.send(ctx, chat.Message{Target: req.handle, Text: strings.TrimRight(b.String(), "\n"), Keyboard: mainMenu()})
	return stepDone, nil
}

// attach_file

func promptFile(r *Router, st *session.State) chat.Message {
	code, _ := st.Get(valueWorkItem)
	limits := r.svc.Attachments.Limits()
	return chat.Message{
		Text: fmt.Sprintf("📎 Send the photo, video or document to attach to %s.\nMax size %d MB. Allowed types: %s.",
			code, limits.MaxSizeBytes/(1024*1024), strings.Join(limits.AllowedTypes, ", ")),
		Keyboard: inline(cancelRow()),
	}
}

func acceptFile(ctx context.Context, r *Router, req *request, st *session.State) (session.Step, error) {
	m, ok := req.ev.Payload.(chat.Media)
	if !ok {
		return "", invalidf("send a photo, video or document")
	}
	code, _ := st.Get(valueWorkItem)
	att, err := r.svc.Attachments.Attach(ctx, req.caller, attachment.AttachRequest{
		WorkItemCode: code,
		OriginalName: m.FileName,
		MediaKind:    attachment.MediaKind(m.MediaKind),
		MimeType:     m.MimeType,
		SizeBytes:    m.Size,
		FileRef:      m.FileRef,
	})
	if err != nil {
		return "", err
	}
	r.send(ctx, chat.Message{
		Target: req.handle,
		Text: fmt.Sprintf("✅ File attached to %s\n\n%s (%s, %.1f KB)",
			att.WorkItemCode, att.OriginalName, att.MediaKind, float64(att.SizeBytes)/1024),
		Keyboard: inline([]chat.KeyButton{btn("View task", "task:"+att.WorkItemCode)}),
	})
	return stepDone, nil
}
