package router

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/session"
	"github.com/rpggio/actionplan/internal/policy"
)

// suggestThreshold is the largest edit distance offered as a suggestion.
const suggestThreshold = 3

type action func(ctx context.Context, r *Router, req *request) error

// entry is one statically declared command or button. Matching tokens
// are exact: commands by name, menu labels case-insensitively, buttons
// by full token or by a prefix ending in a colon.
type entry struct {
	name     string
	commands []string
	labels   []string
	buttons  []string
	prefixes []string

	// public entries run before authorization.
	public bool
	// roles required of the caller; empty means any active account.
	roles account.RoleSet
	// partition lists the entity kinds the action reads or writes.
	partition []policy.EntityKind
	// flow is set on entries that start a flow.
	flow session.Flow
	// cancels is set on the entry that ends a flow.
	cancels bool

	run action
}

type prefixed struct {
	prefix string
	entry  *entry
}

type catalog struct {
	entries    []*entry
	commands   map[string]*entry
	labels     map[string]*entry
	buttons    map[string]*entry
	prefixes   []prefixed
	vocabulary []string
}

// newCatalog indexes entries. It panics on a token claimed twice or a
// partition kind without a declared mode, both programming errors.
func newCatalog(entries []*entry) *catalog {
	c := &catalog{
		entries:  entries,
		commands: make(map[string]*entry),
		labels:   make(map[string]*entry),
		buttons:  make(map[string]*entry),
	}
	claim := func(m map[string]*entry, token string, e *entry) {
		if prev, ok := m[token]; ok {
			panic(fmt.Sprintf("router: token %q claimed by %s and %s", token, prev.name, e.name))
		}
		m[token] = e
	}

	for _, e := range entries {
		if e.run == nil {
			panic("router: entry " + e.name + " has no action")
		}
		for _, kind := range e.partition {
			if _, err := policy.ModeOf(kind); err != nil {
				panic("router: entry " + e.name + ": " + err.Error())
			}
		}
		for _, cmd := range e.commands {
			claim(c.commands, cmd, e)
			c.vocabulary = append(c.vocabulary, cmd)
		}
		for _, label := range e.labels {
			claim(c.labels, normalizeLabel(label), e)
			c.vocabulary = append(c.vocabulary, label)
		}
		for _, b := range e.buttons {
			claim(c.buttons, b, e)
		}
		for _, p := range e.prefixes {
			if !strings.HasSuffix(p, ":") {
				panic("router: prefix " + p + " must end with a colon")
			}
			c.prefixes = append(c.prefixes, prefixed{prefix: p, entry: e})
		}
	}
	slices.Sort(c.vocabulary)
	return c
}

// matchers resolves a payload to a catalog entry, one per event kind.
var matchers = map[chat.Kind]func(c *catalog, p chat.Payload) (*entry, string){
	chat.KindCommand: func(c *catalog, p chat.Payload) (*entry, string) {
		cmd := p.(chat.Command)
		return c.commands["/"+cmd.Name], strings.Join(cmd.Args, " ")
	},
	chat.KindButton: func(c *catalog, p chat.Payload) (*entry, string) {
		data := p.(chat.Button).Data
		if e, ok := c.buttons[data]; ok {
			return e, ""
		}
		for _, pe := range c.prefixes {
			if arg, ok := strings.CutPrefix(data, pe.prefix); ok {
				return pe.entry, arg
			}
		}
		return nil, ""
	},
	chat.KindText: func(c *catalog, p chat.Payload) (*entry, string) {
		return c.labels[normalizeLabel(p.(chat.Text).Body)], ""
	},
	chat.KindMedia: func(*catalog, chat.Payload) (*entry, string) {
		return nil, ""
	},
}

// match returns the entry for ev and the argument left after its token.
func (c *catalog) match(ev chat.Event) (*entry, string) {
	m, ok := matchers[ev.Kind()]
	if !ok {
		return nil, ""
	}
	e, arg := m(c, ev.Payload)
	if e == nil {
		return nil, ""
	}
	return e, arg
}

// suggest returns the closest command or menu label to input, or "" when
// nothing is within suggestThreshold edits.
func (c *catalog) suggest(input string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" || len(in) > 32 {
		return ""
	}
	best, bestDist := "", suggestThreshold+1
	for _, cand := range c.vocabulary {
		d := levenshtein.ComputeDistance(in, strings.ToLower(cand))
		if d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}

// tokenOf returns the text of an event as the user typed or pressed it.
func tokenOf(ev chat.Event) string {
	switch p := ev.Payload.(type) {
	case chat.Command:
		return "/" + p.Name
	case chat.Button:
		return p.Data
	case chat.Text:
		return p.Body
	default:
		return ""
	}
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// stepTokens are buttons only meaningful inside a flow.
var stepTokens = []string{"cat:", "act:", "prio:", "when:", "link:", tokenConfirm, tokenSkip}

func isStepToken(data string) bool {
	for _, t := range stepTokens {
		if data == t || (strings.HasSuffix(t, ":") && strings.HasPrefix(data, t)) {
			return true
		}
	}
	return false
}
