// Package agent runs the perceive, decide, act cycle for one agent: it owns
// the block cache, the snapshot builder, the action router and the command
// mapper, and records every performed phrase to the audit sinks.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"voxelagent.ai/internal/actions"
	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/commandmap"
	"voxelagent.ai/internal/decision"
	"voxelagent.ai/internal/memory"
	"voxelagent.ai/internal/perception"
	"voxelagent.ai/internal/persistence/audit"
	"voxelagent.ai/internal/persistence/indexdb"
	"voxelagent.ai/internal/phrase"
	"voxelagent.ai/internal/resources"
	"voxelagent.ai/internal/snapshot"
	"voxelagent.ai/internal/world"
)

// Decider turns a formatted prompt into a reply. It is the external
// decision-maker.
type Decider interface {
	Decide(ctx context.Context, prompt string) (string, error)
}

// Host is everything the agent needs from the world it lives in.
type Host interface {
	world.World
	world.Agent
	world.Commander
}

// Settings is the hot-reloadable part of the agent's configuration.
type Settings struct {
	Cache            perception.CacheConfig
	Limits           snapshot.Limits
	ArrivalThreshold float64
}

func DefaultSettings() Settings {
	return Settings{
		Cache:            perception.DefaultCacheConfig(),
		Limits:           snapshot.DefaultLimits(),
		ArrivalThreshold: agentstate.DefaultArrivalThreshold,
	}
}

type Options struct {
	Settings

	Memory memory.Limits
	// Commons is nil by default, giving the agent its own mailbox and shared
	// book. Passing one Commons to several agents of a process opts them into
	// mailing each other; it is the only state agents can share.
	Commons   *memory.Commons
	Resources *resources.Resolver

	Instruction string
	MinInterval time.Duration
	// MaxCycles stops Run after that many decisions; zero runs until the
	// context ends.
	MaxCycles int

	Journal *audit.Journal
	Indexes []indexdb.Index
	Logger  *zap.Logger
}

type Agent struct {
	host    Host
	decider Decider
	opts    Options
	log     *zap.Logger

	cache   *perception.Cache
	builder *snapshot.Builder
	router  *actions.Router
	env     *actions.Env
	mapper  *commandmap.Mapper
	store   *memory.Store
	actions *agentstate.Actions
	nav     *agentstate.Navigation

	instruction string
	cycle       atomic.Uint64

	mu sync.Mutex // guards opts.Settings
}

// New wires the pipeline. An invalid cache configuration is a hard error.
func New(host Host, decider Decider, opts Options) (*Agent, error) {
	if host == nil || decider == nil {
		return nil, errors.New("agent: host and decider are required")
	}
	if err := opts.Cache.Validate(); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Resources == nil {
		opts.Resources = resources.Default()
	}
	if opts.Commons == nil {
		opts.Commons = memory.NewCommons(opts.Memory)
	}
	if opts.Instruction == "" {
		opts.Instruction = "Reply with the next actions for the agent."
	}
	log := opts.Logger.With(zap.String("agent", host.Name()))

	a := &Agent{
		host:    host,
		decider: decider,
		opts:    opts,
		log:     log,
		actions: agentstate.NewActions(),
		nav:     agentstate.NewNavigation(opts.ArrivalThreshold),
		mapper:  commandmap.New(opts.Resources, log),
	}
	a.store = memory.NewStore(host.Name(), opts.Commons, opts.Memory)
	a.cache = perception.NewCache(host, host, opts.Cache, log)
	a.builder = snapshot.NewBuilder(host, a.cache, opts.Limits,
		snapshot.WithMemory(a.store),
		snapshot.WithNavigation(a.nav),
		snapshot.WithActions(a.actions),
	)

	a.env = &actions.Env{
		Agent:        host,
		World:        host,
		Cmd:          host,
		Blocks:       a.cache,
		Actions:      a.actions,
		Nav:          a.nav,
		Books:        a.store,
		Mail:         a.store,
		Resources:    opts.Resources,
		EntityRadius: opts.Limits.EntityRadius,
		Log:          log.Named("actions"),
	}
	router, err := actions.NewDefaultRouter(a.env)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	a.router = router
	a.instruction = instruction(opts.Instruction, router.Syntax(), commandmap.Vocabulary())
	return a, nil
}

func instruction(base string, syntax, vocab []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	b.WriteString("\n\nActions:\n")
	for _, s := range syntax {
		b.WriteString("- " + s + "\n")
	}
	b.WriteString("\nShort commands:\n")
	for _, s := range vocab {
		b.WriteString("- " + s + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Start begins the cache refresh. A failure here means the agent cannot run.
func (a *Agent) Start() error {
	if err := a.cache.Start(); err != nil {
		return fmt.Errorf("agent: start cache: %w", err)
	}
	s := a.Settings()
	a.log.Info("agent started", zap.Int("tile_radius", s.Cache.TileRadius),
		zap.Duration("refresh", s.Cache.RefreshInterval))
	return nil
}

// Settings returns the settings currently in effect.
func (a *Agent) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opts.Settings
}

// Close stops the cache. Audit sinks belong to the caller.
func (a *Agent) Close() error {
	return a.cache.Close()
}

// Reconfigure applies new settings without restarting the agent.
func (a *Agent) Reconfigure(s Settings) error {
	if err := a.cache.Reconfigure(s.Cache); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	a.builder.SetLimits(s.Limits)
	a.nav.SetThreshold(s.ArrivalThreshold)
	a.env.SetEntityRadius(s.Limits.EntityRadius)

	a.mu.Lock()
	a.opts.Settings = s
	a.mu.Unlock()
	a.log.Info("agent reconfigured",
		zap.Int("tile_radius", s.Cache.TileRadius),
		zap.Int("max_blocks", s.Cache.MaxBlocks),
		zap.Duration("refresh", s.Cache.RefreshInterval),
		zap.Int("max_entities", s.Limits.MaxEntities),
		zap.Float64("entity_radius", s.Limits.EntityRadius),
		zap.Float64("arrival_threshold", s.ArrivalThreshold))
	return nil
}

func (a *Agent) Name() string                 { return a.host.Name() }
func (a *Agent) Snapshot() snapshot.Snapshot  { return a.builder.Build() }
func (a *Agent) Memory() *memory.Store        { return a.store }
func (a *Agent) CacheStats() perception.Stats { return a.cache.Stats() }
func (a *Agent) Cycles() uint64               { return a.cycle.Load() }
func (a *Agent) Instruction() string          { return a.instruction }

// Action and Navigation expose the two state machines read-only.
func (a *Agent) Action() agentstate.ActionState         { return a.actions.Current() }
func (a *Agent) Navigation() agentstate.NavigationState { return a.nav.Current() }

// Prompt formats the current snapshot for the decider.
func (a *Agent) Prompt() (string, snapshot.Snapshot, error) {
	snap := a.builder.Build()
	p, err := snapshot.FormatPrompt(a.instruction, snap)
	if err != nil {
		return "", snap, fmt.Errorf("agent: format prompt: %w", err)
	}
	return p, snap, nil
}

// Run decides and acts until ctx ends, the decider runs out of input or
// MaxCycles is reached. Cycles are at least MinInterval apart.
func (a *Agent) Run(ctx context.Context) error {
	limit := rate.Inf
	if a.opts.MinInterval > 0 {
		limit = rate.Every(a.opts.MinInterval)
	}
	lim := rate.NewLimiter(limit, 1)

	for n := 0; a.opts.MaxCycles == 0 || n < a.opts.MaxCycles; n++ {
		if err := lim.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("agent: pace: %w", err)
		}
		if _, err := a.Step(ctx); err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, decision.ErrNoInput):
				a.log.Info("decider input closed")
				return nil
			}
			a.log.Warn("cycle failed", zap.Error(err))
		}
	}
	return nil
}

// Cycle is the result of one Step.
type Cycle struct {
	N        uint64
	Digest   string
	Reply    decision.Reply
	Outcomes []Outcome
}

// Step runs one cycle: snapshot, prompt, decide, then perform every phrase
// of the reply in order.
func (a *Agent) Step(ctx context.Context) (Cycle, error) {
	c := Cycle{N: a.cycle.Add(1)}
	prompt, snap, err := a.Prompt()
	if err != nil {
		return c, err
	}
	c.Digest = snap.Digest()

	text, err := a.decider.Decide(ctx, prompt)
	if err != nil {
		return c, fmt.Errorf("agent: decide: %w", err)
	}
	reply, err := decision.ParseReply(text)
	if err != nil {
		return c, fmt.Errorf("agent: %w", err)
	}
	c.Reply = reply
	if reply.Thought != "" {
		a.log.Debug("thought", zap.Uint64("cycle", c.N), zap.String("text", reply.Thought))
	}
	for _, p := range reply.Phrases() {
		if ctx.Err() != nil {
			break
		}
		out := a.perform(ctx, p)
		a.record(c.N, c.Digest, out)
		c.Outcomes = append(c.Outcomes, out)
	}
	return c, nil
}

// Outcome describes how one phrase was handled.
type Outcome struct {
	Phrase  string
	Route   audit.Route
	Command string
	OK      bool
	Err     string
}

// Perform executes a single phrase outside the decision loop. It is recorded
// with cycle zero.
func (a *Agent) Perform(ctx context.Context, raw string) Outcome {
	out := a.perform(ctx, raw)
	a.record(0, a.builder.Build().Digest(), out)
	return out
}

// perform routes verbs the handlers own to the router and everything else
// through the command mapper.
func (a *Agent) perform(ctx context.Context, raw string) Outcome {
	out := Outcome{Phrase: strings.TrimSpace(raw), Route: audit.RouteNone}
	defer func() {
		if a.nav.Update(a.host.Position()) && a.actions.Current().Kind == agentstate.Traveling {
			a.actions.SetIdle()
		}
	}()

	toks := phrase.Lex(out.Phrase)
	if len(toks) == 0 {
		out.Err = "empty phrase"
		return out
	}
	if a.router.Handles(toks[0].Text) {
		out.Route = audit.RouteHandler
		out.OK = a.router.RouteTokens(ctx, out.Phrase, toks)
		return out
	}

	cmd, ok := a.mapper.Map(out.Phrase)
	if !ok {
		out.Err = "phrase not understood"
		a.log.Info("phrase not mapped", zap.String("phrase", out.Phrase))
		return out
	}
	out.Command = cmd
	if commandmap.IsToolAction(cmd) {
		out.Route = audit.RouteTool
		if err := a.runTool(ctx, cmd); err != nil {
			out.Err = err.Error()
			a.log.Info("tool action failed", zap.String("action", cmd), zap.Error(err))
			return out
		}
		out.OK = true
		return out
	}
	out.Route = audit.RouteCommand
	out.OK = a.host.Execute(ctx, cmd)
	if !out.OK {
		out.Err = "command refused"
	}
	return out
}

func (a *Agent) record(cycle uint64, digest string, out Outcome) {
	r := audit.Record{
		ID:       uuid.NewString(),
		Time:     time.Now().UTC(),
		Agent:    a.host.Name(),
		Cycle:    cycle,
		Phrase:   out.Phrase,
		Route:    out.Route,
		Command:  out.Command,
		OK:       out.OK,
		Action:   a.actions.Describe(),
		Snapshot: digest,
		Error:    out.Err,
	}
	if j := a.opts.Journal; j != nil {
		if err := j.Write(&r); err != nil {
			a.log.Warn("audit write failed", zap.Error(err))
		}
	}
	for _, idx := range a.opts.Indexes {
		idx.Record(r)
	}
}
