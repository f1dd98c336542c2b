package actions

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/perception"
	"voxelagent.ai/internal/phrase"
	"voxelagent.ai/internal/resources"
	"voxelagent.ai/internal/world"
)

// BlockFinder is the read side of the block cache.
type BlockFinder interface {
	NearbyBlocks() []perception.BlockSample
	BlocksOfType(blockType string, n int) []perception.BlockSample
}

type Book int

const (
	SharedBook Book = iota
	PrivateBook
)

func (b Book) String() string {
	if b == SharedBook {
		return "sharedbook"
	}
	return "privatebook"
}

// Bookshelf stores titled pages in the shared or the private book.
type Bookshelf interface {
	PutPage(ctx context.Context, book Book, title, content string) error
	RemovePage(ctx context.Context, book Book, title string) error
}

// Mailer delivers a message to another agent by name.
type Mailer interface {
	Send(ctx context.Context, recipient, content string) error
}

// Env is what handlers act through. Books and Mail may be nil, in which case
// the memory and communication handlers fail every call. EntityRadius is the
// initial search radius; SetEntityRadius changes it while the router runs.
type Env struct {
	Agent        world.Agent
	World        world.World
	Cmd          world.Commander
	Blocks       BlockFinder
	Actions      *agentstate.Actions
	Nav          *agentstate.Navigation
	Books        Bookshelf
	Mail         Mailer
	Resources    *resources.Resolver
	EntityRadius float64
	Log          *zap.Logger

	radius atomic.Uint64
}

// NewDefaultRouter registers the ten standard handlers over env.
func NewDefaultRouter(env *Env) (*Router, error) {
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	if env.Resources == nil {
		env.Resources = resources.Default()
	}
	if env.EntityRadius <= 0 {
		env.EntityRadius = 64
	}
	env.SetEntityRadius(env.EntityRadius)
	return NewRouter(env.Log,
		&memoryHandler{env},
		&communicationHandler{env},
		&navigationHandler{env},
		&miningHandler{env},
		&buildingHandler{env},
		&craftingHandler{env},
		&huntingHandler{env},
		&farmingHandler{env},
		&fishingHandler{env},
		&combatHandler{env},
	)
}

// reject logs a validation or targeting failure and returns false.
func (e *Env) reject(handler string, c Call, reason string) bool {
	e.Log.Info("action rejected",
		zap.String("handler", handler),
		zap.String("phrase", c.Raw),
		zap.String("reason", reason))
	return false
}

func (e *Env) exec(ctx context.Context, cmd string) bool {
	ok := e.Cmd.Execute(ctx, cmd)
	if !ok {
		e.Log.Warn("command failed", zap.String("command", cmd))
	}
	return ok
}

func (e *Env) setblock(ctx context.Context, p world.BlockPos, id string) bool {
	return e.exec(ctx, fmt.Sprintf("setblock %d %d %d %s", p.X, p.Y, p.Z, id))
}

func (e *Env) give(ctx context.Context, id string, n int) bool {
	return e.exec(ctx, fmt.Sprintf("give %s %s %d", e.Agent.Name(), id, n))
}

func (e *Env) clear(ctx context.Context, id string, n int) bool {
	return e.exec(ctx, fmt.Sprintf("clear %s %s %d", e.Agent.Name(), id, n))
}

// blockPosAt parses three integer coordinates starting at args[i].
func blockPosAt(args []string, i int) (world.BlockPos, bool) {
	if i < 0 || i+2 >= len(args) {
		return world.BlockPos{}, false
	}
	x, okx := phrase.ParseInt(args[i])
	y, oky := phrase.ParseInt(args[i+1])
	z, okz := phrase.ParseInt(args[i+2])
	if !okx || !oky || !okz {
		return world.BlockPos{}, false
	}
	return world.BlockPos{X: x, Y: y, Z: z}, true
}

// vecAt parses three float coordinates starting at args[i] and floors them.
func vecAt(args []string, i int) (world.Vec3, bool) {
	if i < 0 || i+2 >= len(args) {
		return world.Vec3{}, false
	}
	var v [3]float64
	for k := 0; k < 3; k++ {
		f, ok := phrase.ParseFloat(args[i+k])
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return world.Vec3{}, false
		}
		v[k] = math.Floor(f)
	}
	return world.Vec3{X: v[0], Y: v[1], Z: v[2]}, true
}

// matchName reports whether candidate equals or contains want, ignoring case
// and treating spaces and underscores alike.
func matchName(candidate, want string) bool {
	c := strings.ReplaceAll(strings.ToLower(world.ItemPath(candidate)), " ", "_")
	w := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(want)), " ", "_")
	if c == "" || w == "" {
		return false
	}
	return c == w || strings.Contains(c, w)
}

// SetEntityRadius changes how far handlers look for entities. Non-positive
// values are ignored.
func (e *Env) SetEntityRadius(r float64) {
	if r > 0 {
		e.radius.Store(math.Float64bits(r))
	}
}

func (e *Env) entityRadius() float64 {
	if bits := e.radius.Load(); bits != 0 {
		return math.Float64frombits(bits)
	}
	return e.EntityRadius
}

// nearestEntity returns the closest entity accepted by keep.
func (e *Env) nearestEntity(keep func(world.Entity) bool) (world.Entity, bool) {
	pos := e.Agent.Position()
	var (
		best  world.Entity
		bestD = math.Inf(1)
		found bool
	)
	for _, ent := range e.Agent.EntitiesWithin(e.entityRadius()) {
		if !keep(ent) {
			continue
		}
		if d := ent.Pos.DistSq(pos); d < bestD {
			best, bestD, found = ent, d, true
		}
	}
	return best, found
}

func slug(args []string) string {
	return strings.ToLower(strings.Join(args, "_"))
}
