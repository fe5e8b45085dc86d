package router

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/activity"
	"github.com/rpggio/actionplan/internal/domain/session"
	"github.com/rpggio/actionplan/internal/domain/workitem"
	"github.com/rpggio/actionplan/internal/policy"
)

// fieldStaff may create work items and change their status.
var fieldStaff = account.Roles(account.RoleManager, account.RoleTechnician)

func defaultEntries() []*entry {
	return []*entry{
		{name: "start", commands: []string{"/start"}, public: true, run: start},
		{name: "register", commands: []string{"/register"}, buttons: []string{"start_registration"}, public: true, run: register},
		{name: "learn_more", buttons: []string{"learn_more"}, public: true, run: learnMore},
		{name: "help", commands: []string{"/help"}, labels: []string{labelHelp}, public: true, run: help},

		{name: "tasks", commands: []string{"/tasks"}, labels: []string{labelTasks},
			partition: []policy.EntityKind{policy.KindWorkItem}, run: taskFilters},
		{name: "task_list", prefixes: []string{"tasks:"},
			partition: []policy.EntityKind{policy.KindWorkItem}, run: listTasks},
		{name: "task_detail", prefixes: []string{"task:"},
			partition: []policy.EntityKind{policy.KindWorkItem, policy.KindAttachment}, run: showTask},
		{name: "task_status", prefixes: []string{"status:"}, roles: fieldStaff,
			partition: []policy.EntityKind{policy.KindWorkItem}, run: changeStatus},
		{name: "new_task", commands: []string{"/newtask"}, labels: []string{labelNewTask}, roles: fieldStaff,
			partition: []policy.EntityKind{policy.KindWorkItem}, flow: session.FlowCreateWorkItem, run: startCreate},

		{name: "log_activity", commands: []string{"/log"}, labels: []string{labelLog},
			partition: []policy.EntityKind{policy.KindActivity}, flow: session.FlowLogActivity, run: startLog},
		{name: "activities", commands: []string{"/activities"}, labels: []string{labelActivities}, prefixes: []string{"acts:"},
			partition: []policy.EntityKind{policy.KindActivity}, run: listActivities},

		{name: "upload", commands: []string{"/upload"}, labels: []string{labelUpload},
			partition: []policy.EntityKind{policy.KindWorkItem}, run: uploadPicker},
		{name: "upload_to", prefixes: []string{"upload:"},
			partition: []policy.EntityKind{policy.KindWorkItem, policy.KindAttachment}, flow: session.FlowAttachFile, run: startAttach},

		{name: "stats", commands: []string{"/stats"}, labels: []string{labelStats}, run: statsMenu},
		{name: "stats_view", prefixes: []string{"stats:"},
			partition: []policy.EntityKind{policy.KindActivity, policy.KindWorkItem, policy.KindAttachment}, run: showStats},
		{name: "schedule", commands: []string{"/schedule"}, labels: []string{labelSchedule},
			partition: []policy.EntityKind{policy.KindWorkItem, policy.KindActivity}, run: schedule},
		{name: "settings", commands: []string{"/me", "/settings"}, labels: []string{labelSettings}, run: profile},

		{name: "cancel", commands: []string{"/cancel"}, buttons: []string{tokenCancel}, cancels: true, run: cancel},
		{name: "noop", buttons: []string{tokenNoop}, run: func(context.Context, *Router, *request) error { return nil }},
	}
}

// Registration and help. These run before authorization, so they look
// the sender up themselves.

func start(ctx context.Context, r *Router, req *request) error {
	acc, err := r.svc.Accounts.Resolve(ctx, req.handle)
	switch {
	case errors.Is(err, account.ErrNotFound):
		r.reply(ctx, req.handle,
			"👋 Welcome to Action Plan.\n\nI help field teams track tasks, log work and share files. Register to request access.",
			registerKeyboard())
		return nil
	case err != nil:
		return err
	}

	switch acc.Status {
	case account.StatusActive:
		r.reply(ctx, req.handle, fmt.Sprintf("👋 Welcome back, %s.", acc.DisplayName), mainMenu())
	case account.StatusPending:
		r.reply(ctx, req.handle, "⏳ Your registration is pending approval.", nil)
	default:
		r.reply(ctx, req.handle, "🚫 Your registration was not approved. Contact a manager for access.", nil)
	}
	return nil
}

func register(ctx context.Context, r *Router, req *request) error {
	acc, err := r.svc.Accounts.Register(ctx, account.RegisterRequest{
		Handle:      req.handle,
		DisplayName: req.ev.From.DisplayName,
		Username:    req.ev.From.Username,
	})
	if errors.Is(err, account.ErrAlreadyExists) {
		existing, err := r.svc.Accounts.Resolve(ctx, req.handle)
		if err != nil {
			return err
		}
		r.reply(ctx, req.handle, fmt.Sprintf("You are already registered. Status: %s.", display(existing.Status)), nil)
		return nil
	}
	if err != nil {
		return err
	}
	r.reply(ctx, req.handle,
		fmt.Sprintf("📝 Registration received, %s.\nA manager will review it and assign your role.", acc.DisplayName), nil)
	return nil
}

func learnMore(ctx context.Context, r *Router, req *request) error {
	r.reply(ctx, req.handle,
		"Action Plan keeps the team's tasks in one place.\n\n"+
			"• Tasks get a unique code such as INST-250301-001\n"+
			"• Everyone sees the task list and its files\n"+
			"• Your activity log is private to you\n\n"+
			"Register to get started.",
		registerKeyboard())
	return nil
}

func help(ctx context.Context, r *Router, req *request) error {
	r.reply(ctx, req.handle,
		"Commands:\n"+
			"/start  welcome and main menu\n"+
			"/register  request access\n"+
			"/tasks  browse tasks\n"+
			"/newtask  create a task\n"+
			"/log  log an activity\n"+
			"/activities  your activity log\n"+
			"/upload  attach a file to a task\n"+
			"/stats  statistics\n"+
			"/schedule  what is on today\n"+
			"/me  your profile\n"+
			"/cancel  abandon the current operation",
		nil)
	return nil
}

// Tasks.

var taskFilterOrder = []string{
	string(workitem.StatusToDo), string(workitem.StatusInProgress), string(workitem.StatusPending),
	string(workitem.StatusBlocked), string(workitem.StatusCompleted), "all",
}

func taskFilters(ctx context.Context, r *Router, req *request) error {
	var buttons []chat.KeyButton
	for _, f := range taskFilterOrder {
		buttons = append(buttons, btn(display(f), "tasks:"+f))
	}
	r.reply(ctx, req.handle, "📋 Tasks\n\nChoose a filter:", inline(grid(buttons, 2)...))
	return nil
}

// parseListArg splits "<filter>[:<page>]". Pages are 1-based.
func parseListArg(arg string) (filter string, page int, err error) {
	filter, pageRaw, _ := strings.Cut(arg, ":")
	if filter == "" {
		filter = "all"
	}
	page = 1
	if pageRaw != "" {
		page, err = strconv.Atoi(pageRaw)
		if err != nil || page < 1 {
			return "", 0, invalidf("bad page %q", pageRaw)
		}
	}
	return filter, page, nil
}

func listTasks(ctx context.Context, r *Router, req *request) error {
	filter, page, err := parseListArg(req.arg)
	if err != nil {
		return err
	}
	opts := workitem.ListOptions{Limit: r.pageSize, Offset: (page - 1) * r.pageSize}
	if filter != "all" {
		status, err := workitem.ParseStatus(filter)
		if err != nil {
			return invalidf("unknown filter %q", filter)
		}
		opts.Status = &status
	}

	p, err := r.svc.WorkItems.List(ctx, req.caller, opts)
	if err != nil {
		return err
	}
	if p.Total == 0 {
		r.reply(ctx, req.handle, fmt.Sprintf("No tasks (%s).", display(filter)), nil)
		return nil
	}

	pages := (p.Total + r.pageSize - 1) / r.pageSize
	var rows [][]chat.KeyButton
	for _, item := range p.Items {
		rows = append(rows, []chat.KeyButton{
			btn(fmt.Sprintf("%s %s · %s", statusIcon(item.Status), item.Code, truncate(item.Description, 30)), "task:"+item.Code),
		})
	}
	var nav []chat.KeyButton
	if p.HasPrev() {
		nav = append(nav, btn("« Prev", fmt.Sprintf("tasks:%s:%d", filter, page-1)))
	}
	nav = append(nav, btn(fmt.Sprintf("%d/%d", page, pages), tokenNoop))
	if p.HasNext() {
		nav = append(nav, btn("Next »", fmt.Sprintf("tasks:%s:%d", filter, page+1)))
	}
	rows = append(rows, nav)

	r.reply(ctx, req.handle, fmt.Sprintf("📋 Tasks (%s): %d", display(filter), p.Total), inline(rows...))
	return nil
}

func showTask(ctx context.Context, r *Router, req *request) error {
	item, err := r.svc.WorkItems.Get(ctx, req.caller, req.arg)
	if err != nil {
		return err
	}
	atts, err := r.svc.Attachments.ListForWorkItem(ctx, req.caller, item.ID)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(formatWorkItem(item))
	if len(atts) > 0 {
		fmt.Fprintf(&b, "\n\n📎 Files (%d):", len(atts))
		for _, a := range atts {
			fmt.Fprintf(&b, "\n• %s (%s)", a.OriginalName, a.MediaKind)
		}
	}

	var rows [][]chat.KeyButton
	if account.HasRole(req.caller, fieldStaff) {
		var moves []chat.KeyButton
		for _, s := range workitem.NextStatuses(item.Status) {
			moves = append(moves, btn(statusIcon(s)+" "+display(s), fmt.Sprintf("status:%s:%s", item.Code, s)))
		}
		rows = append(rows, grid(moves, 2)...)
	}
	rows = append(rows, []chat.KeyButton{
		btn("📎 Attach file", "upload:"+item.Code),
		btn("📋 All tasks", "tasks:all"),
	})
	r.reply(ctx, req.handle, b.String(), inline(rows...))
	return nil
}

func changeStatus(ctx context.Context, r *Router, req *request) error {
	code, raw, ok := strings.Cut(req.arg, ":")
	if !ok {
		return invalidf("malformed status change")
	}
	to, err := workitem.ParseStatus(raw)
	if err != nil {
		return invalidf("unknown status %q", raw)
	}

	item, err := r.svc.WorkItems.Transition(ctx, req.caller, code, to)
	switch {
	case errors.Is(err, workitem.ErrInvalidTransition):
		r.reply(ctx, req.handle, fmt.Sprintf("%s cannot move to %s from its current status.", strings.ToUpper(code), display(to)), nil)
		return nil
	case errors.Is(err, workitem.ErrConflict):
		r.reply(ctx, req.handle, fmt.Sprintf("%s was changed by someone else. Open it again to see its status.", strings.ToUpper(code)),
			inline([]chat.KeyButton{btn("Open", "task:"+strings.ToUpper(code))}))
		return nil
	case err != nil:
		return err
	}
	r.reply(ctx, req.handle, fmt.Sprintf("%s %s is now %s.", statusIcon(item.Status), item.Code, display(item.Status)),
		inline([]chat.KeyButton{btn("Open", "task:"+item.Code)}))
	return nil
}

func startCreate(ctx context.Context, r *Router, req *request) error {
	return r.begin(ctx, req, session.FlowCreateWorkItem)
}

// Uploads.

func uploadPicker(ctx context.Context, r *Router, req *request) error {
	p, err := r.svc.WorkItems.List(ctx, req.caller, workitem.ListOptions{Limit: uploadPickLimit})
	if err != nil {
		return err
	}
	if len(p.Items) == 0 {
		r.reply(ctx, req.handle, "There are no tasks to attach files to yet.", nil)
		return nil
	}
	var rows [][]chat.KeyButton
	for _, item := range p.Items {
		rows = append(rows, []chat.KeyButton{btn(item.Code+" · "+truncate(item.Description, 30), "upload:"+item.Code)})
	}
	r.reply(ctx, req.handle, "📎 Which task is the file for?", inline(rows...))
	return nil
}

func startAttach(ctx context.Context, r *Router, req *request) error {
	item, err := r.svc.WorkItems.Get(ctx, req.caller, req.arg)
	if err != nil {
		return err
	}
	return r.begin(ctx, req, session.FlowAttachFile, session.Value{Step: valueWorkItem, Value: item.Code})
}

// Activities.

func startLog(ctx context.Context, r *Router, req *request) error {
	return r.begin(ctx, req, session.FlowLogActivity)
}

func listActivities(ctx context.Context, r *Router, req *request) error {
	page := 1
	if arg := strings.TrimSpace(req.arg); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return invalidf("bad page %q", arg)
		}
		page = n
	}

	// One extra row tells whether a next page exists.
	records, err := r.svc.Activities.List(ctx, req.caller, activity.ListOptions{
		Limit:  r.pageSize + 1,
		Offset: (page - 1) * r.pageSize,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		r.reply(ctx, req.handle, "You have not logged any activities yet.", nil)
		return nil
	}
	hasNext := len(records) > r.pageSize
	if hasNext {
		records = records[:r.pageSize]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⏱ Your activities (page %d)", page)
	for _, rec := range records {
		b.WriteString("\n\n" + formatRecord(r, rec))
	}

	var nav []chat.KeyButton
	if page > 1 {
		nav = append(nav, btn("« Prev", fmt.Sprintf("acts:%d", page-1)))
	}
	if hasNext {
		nav = append(nav, btn("Next »", fmt.Sprintf("acts:%d", page+1)))
	}
	var kb *chat.Keyboard
	if len(nav) > 0 {
		kb = inline(nav)
	}
	r.reply(ctx, req.handle, b.String(), kb)
	return nil
}

func formatRecord(r *Router, rec activity.Record) string {
	line := fmt.Sprintf("%s · %s", rec.StartedAt.In(r.loc).Format("01-02 15:04"), display(rec.Category))
	if rec.DurationMinutes != nil {
		line += " · " + formatMinutes(*rec.DurationMinutes)
	}
	if rec.WorkItemCode != "" {
		line += " · " + rec.WorkItemCode
	}
	return line + "\n" + truncate(rec.Description, 80)
}

// Stats and overview.

func statsMenu(ctx context.Context, r *Router, req *request) error {
	r.reply(ctx, req.handle, "📊 Statistics", inline([]chat.KeyButton{
		btn("👤 Personal", "stats:personal"),
		btn("👥 Team", "stats:team"),
	}))
	return nil
}

func showStats(ctx context.Context, r *Router, req *request) error {
	switch req.arg {
	case "personal":
		return personalStats(ctx, r, req)
	case "team":
		return teamStats(ctx, r, req)
	default:
		return invalidf("unknown statistics view %q", req.arg)
	}
}

func personalStats(ctx context.Context, r *Router, req *request) error {
	st, err := r.svc.Activities.Stats(ctx, req.caller)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("👤 Your statistics\n\n")
	fmt.Fprintf(&b, "Activities logged: %d\n", st.Total)
	fmt.Fprintf(&b, "Last 7 days: %d\n", st.LastWeek)
	fmt.Fprintf(&b, "Time this month: %s", formatMinutes(st.MonthMinutes))
	if len(st.TopCategories) > 0 {
		b.WriteString("\n\nMost logged:")
		for _, c := range st.TopCategories {
			fmt.Fprintf(&b, "\n• %s: %d", display(c.Category), c.Count)
		}
	}
	r.reply(ctx, req.handle, b.String(), nil)
	return nil
}

func teamStats(ctx context.Context, r *Router, req *request) error {
	sum, err := r.svc.WorkItems.Summarize(ctx, req.caller)
	if err != nil {
		return err
	}
	active, err := r.svc.Accounts.CountActive(ctx)
	if err != nil {
		return err
	}
	files, err := r.svc.Attachments.Count(ctx, req.caller)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("👥 Team statistics\n\n")
	fmt.Fprintf(&b, "Tasks: %d\n", sum.Total)
	for _, s := range workitem.Statuses() {
		fmt.Fprintf(&b, "%s %s: %d\n", statusIcon(s), display(s), sum.ByStatus[s])
	}
	fmt.Fprintf(&b, "\nActive members: %d\nFiles: %d", active, files)
	r.reply(ctx, req.handle, b.String(), nil)
	return nil
}

func schedule(ctx context.Context, r *Router, req *request) error {
	var open []workitem.WorkItem
	for _, s := range []workitem.Status{workitem.StatusInProgress, workitem.StatusToDo} {
		p, err := r.svc.WorkItems.List(ctx, req.caller, workitem.ListOptions{Status: &s, Limit: scheduleLimit})
		if err != nil {
			return err
		}
		open = append(open, p.Items...)
	}
	slices.SortStableFunc(open, func(a, b workitem.WorkItem) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	open = open[:min(len(open), scheduleLimit)]

	recent, err := r.svc.Activities.List(ctx, req.caller, activity.ListOptions{Limit: scheduleLimit})
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("🗓 Schedule\n\nOpen tasks:")
	if len(open) == 0 {
		b.WriteString("\nnone")
	}
	for _, item := range open {
		fmt.Fprintf(&b, "\n%s %s · %s", statusIcon(item.Status), item.Code, truncate(item.Description, 40))
	}
	b.WriteString("\n\nYour recent activities:")
	if len(recent) == 0 {
		b.WriteString("\nnone")
	}
	for _, rec := range recent {
		b.WriteString("\n" + formatRecord(r, rec))
	}
	r.reply(ctx, req.handle, b.String(), nil)
	return nil
}

func profile(ctx context.Context, r *Router, req *request) error {
	acc := req.caller
	var b strings.Builder
	b.WriteString("⚙️ Profile\n\n")
	fmt.Fprintf(&b, "Name: %s\n", acc.DisplayName)
	if acc.Username != "" {
		fmt.Fprintf(&b, "Username: @%s\n", acc.Username)
	}
	fmt.Fprintf(&b, "Role: %s\n", display(acc.Role))
	fmt.Fprintf(&b, "Status: %s\n", display(acc.Status))
	fmt.Fprintf(&b, "Member since: %s", acc.CreatedAt.In(r.loc).Format("2006-01-02"))
	r.reply(ctx, req.handle, b.String(), nil)
	return nil
}

func cancel(ctx context.Context, r *Router, req *request) error {
	if _, err := r.sessions.Get(req.handle); err != nil {
		r.reply(ctx, req.handle, msgNothingPending, mainMenu())
		return nil
	}
	r.sessions.End(req.handle)
	r.reply(ctx, req.handle, msgCancelled, mainMenu())
	return nil
}
