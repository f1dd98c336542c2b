// Package actions routes parsed action phrases to typed handlers that drive
// the agent through the host world.
package actions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"voxelagent.ai/internal/phrase"
)

// Call is one routed action: the raw phrase and its lexed tokens. Args holds
// the token texts; Args[0] is the verb as written.
type Call struct {
	Raw    string
	Tokens []phrase.Token
	Args   []string
}

func newCall(raw string, toks []phrase.Token) Call {
	return Call{Raw: raw, Tokens: toks, Args: phrase.Texts(toks)}
}

// Quoted reports whether argument i was written in quotes.
func (c Call) Quoted(i int) bool { return i >= 0 && i < len(c.Tokens) && c.Tokens[i].Quoted }

// Arg returns argument i lowercased, or "" when absent.
func (c Call) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return strings.ToLower(c.Args[i])
}

// Handler executes one family of verbs. Handle validates the call before
// touching any state and reports success.
type Handler interface {
	Name() string
	Verbs() []string
	Syntax() []string
	Handle(ctx context.Context, c Call) bool
}

// Router is a fixed verb table built once at construction.
type Router struct {
	log      *zap.Logger
	handlers []Handler
	byVerb   map[string]Handler
}

func NewRouter(log *zap.Logger, handlers ...Handler) (*Router, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{log: log.Named("router"), byVerb: map[string]Handler{}}
	for _, h := range handlers {
		for _, v := range h.Verbs() {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				return nil, fmt.Errorf("actions: handler %s registers an empty verb", h.Name())
			}
			if prev, ok := r.byVerb[v]; ok {
				return nil, fmt.Errorf("actions: verb %q claimed by both %s and %s", v, prev.Name(), h.Name())
			}
			r.byVerb[v] = h
		}
		r.handlers = append(r.handlers, h)
	}
	return r, nil
}

// Route lexes phrase and dispatches it on its first token.
func (r *Router) Route(ctx context.Context, raw string) bool {
	return r.RouteTokens(ctx, raw, phrase.Lex(raw))
}

// RouteTokens dispatches already lexed tokens. Unknown verbs fail without
// side effects.
func (r *Router) RouteTokens(ctx context.Context, raw string, toks []phrase.Token) bool {
	if len(toks) == 0 {
		return false
	}
	verb := strings.ToLower(toks[0].Text)
	h, ok := r.byVerb[verb]
	if !ok {
		r.log.Debug("unknown verb", zap.String("verb", verb))
		return false
	}
	ok = h.Handle(ctx, newCall(raw, toks))
	r.log.Debug("routed", zap.String("handler", h.Name()), zap.String("phrase", raw), zap.Bool("ok", ok))
	return ok
}

// Handles reports whether verb selects a handler.
func (r *Router) Handles(verb string) bool {
	_, ok := r.byVerb[strings.ToLower(strings.TrimSpace(verb))]
	return ok
}

// Verbs lists the registered verbs in sorted order.
func (r *Router) Verbs() []string {
	out := make([]string, 0, len(r.byVerb))
	for v := range r.byVerb {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Syntax lists every handler's syntax lines in registration order.
func (r *Router) Syntax() []string {
	var out []string
	for _, h := range r.handlers {
		out = append(out, h.Syntax()...)
	}
	return out
}
