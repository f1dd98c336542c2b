package commandmap

import (
	"fmt"
	"strconv"
	"strings"

	"voxelagent.ai/internal/phrase"
	"voxelagent.ai/internal/resources"
)

// offsets are relative positions for a one-block step in a direction.
var offsets = map[string]string{
	"front":    "~1 ~ ~",
	"forward":  "~1 ~ ~",
	"back":     "~-1 ~ ~",
	"backward": "~-1 ~ ~",
	"left":     "~ ~ ~-1",
	"right":    "~ ~ ~1",
	"above":    "~ ~1 ~",
	"up":       "~ ~1 ~",
	"below":    "~ ~-1 ~",
	"down":     "~ ~-1 ~",
	"block":    "~ ~-1 ~",
}

const below = "~ ~-1 ~"

// movementParser: walk|move <dir> [n] -> tp @s <relative>.
type movementParser struct{}

var moves = map[string][3]int{
	"forward":  {1, 0, 0},
	"backward": {-1, 0, 0},
	"back":     {-1, 0, 0},
	"left":     {0, 0, -1},
	"right":    {0, 0, 1},
	"up":       {0, 1, 0},
	"down":     {0, -1, 0},
}

func (movementParser) name() string { return "movement" }

func (movementParser) claims(parts []string) bool {
	v := first(parts)
	return v == "walk" || v == "move"
}

func (movementParser) parse(_ string, parts []string) (string, bool) {
	if len(parts) < 2 {
		return "", false
	}
	dir, ok := phrase.FirstNonNumber(parts, 1)
	if !ok {
		return "", false
	}
	unit, ok := moves[dir]
	if !ok {
		return "", false
	}
	steps := 1
	if n, ok := phrase.FirstNumber(parts, 1); ok {
		steps = n
	}
	if steps <= 0 {
		return "", false
	}
	return "tp @s " + relative(unit, steps), true
}

func relative(unit [3]int, n int) string {
	var out [3]string
	for i, u := range unit {
		out[i] = "~"
		if u != 0 {
			out[i] += strconv.Itoa(u * n)
		}
	}
	return strings.Join(out[:], " ")
}

// itemParser: get <name> [n] or get [n] <name> -> give @s <item> n.
type itemParser struct{ res *resources.Resolver }

const defaultGetAmount = 32

func (itemParser) name() string               { return "item" }
func (itemParser) claims(parts []string) bool { return first(parts) == "get" }

func (p itemParser) parse(_ string, parts []string) (string, bool) {
	if len(parts) < 2 {
		return "", false
	}
	from := 1
	if _, ok := phrase.ParseInt(parts[1]); ok {
		from = 2
	}
	name, ok := phrase.ReconstructName(parts, from)
	if !ok {
		return "", false
	}
	amount, ok := phrase.FirstNumber(parts, 1)
	if !ok || amount <= 0 {
		amount = defaultGetAmount
	}
	return fmt.Sprintf("give @s %s %d", p.res.Item(name), amount), true
}

// miningParser: mine [dir|block]. A direction clears that neighbour; a block
// name places that block below the agent.
type miningParser struct{ res *resources.Resolver }

func (miningParser) name() string               { return "mining" }
func (miningParser) claims(parts []string) bool { return first(parts) == "mine" }

func (p miningParser) parse(_ string, parts []string) (string, bool) {
	if len(parts) < 2 {
		return "setblock " + below + " minecraft:air", true
	}
	if off, ok := offsets[parts[1]]; ok {
		return "setblock " + off + " minecraft:air", true
	}
	return "setblock " + below + " " + p.res.Block(phrase.JoinFrom(parts, 1, -1, " ")), true
}

// craftingParser: craft <item> [n] -> give @s <craft item> n. Unknown craft
// items fail.
type craftingParser struct{ res *resources.Resolver }

func (craftingParser) name() string               { return "crafting" }
func (craftingParser) claims(parts []string) bool { return first(parts) == "craft" }

func (p craftingParser) parse(_ string, parts []string) (string, bool) {
	if len(parts) < 2 {
		return "", false
	}
	name, ok := phrase.ReconstructName(parts, 1)
	if !ok {
		return "", false
	}
	amount := 1
	if n, ok := phrase.ParseInt(parts[len(parts)-1]); ok && n > 0 {
		amount = n
	}
	id, ok := p.res.CraftItem(name)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("give @s %s %d", id, amount), true
}

// combatParser: kill [mob|nearest], spawn <mob>, clear mobs.
type combatParser struct{ res *resources.Resolver }

const (
	killNearest = "kill @e[type=!player,limit=1,sort=nearest]"
	clearMobs   = "kill @e[type=#minecraft:hostile_entities,distance=..20]"
)

func (combatParser) name() string { return "combat" }

func (combatParser) claims(parts []string) bool {
	switch first(parts) {
	case "kill", "spawn":
		return true
	case "clear":
		return arg(parts, 1) == "mobs"
	}
	return false
}

func (p combatParser) parse(_ string, parts []string) (string, bool) {
	switch parts[0] {
	case "kill":
		mob := arg(parts, 1)
		if mob == "" || mob == "nearest" || mob == "mob" {
			return killNearest, true
		}
		return fmt.Sprintf("kill @e[type=%s,limit=1,sort=nearest]", p.res.Mob(mob)), true
	case "spawn":
		if len(parts) < 2 {
			return "", false
		}
		return fmt.Sprintf("summon %s ~ ~ ~", p.res.Mob(parts[1])), true
	}
	return clearMobs, true
}

// buildingParser: place <block> [dir] -> setblock <relative> <block>, below
// by default.
type buildingParser struct{ res *resources.Resolver }

func (buildingParser) name() string               { return "building" }
func (buildingParser) claims(parts []string) bool { return first(parts) == "place" }

func (p buildingParser) parse(_ string, parts []string) (string, bool) {
	if len(parts) < 2 {
		return "", false
	}
	end, pos := len(parts), below
	if len(parts) > 2 {
		if off, ok := offsets[parts[len(parts)-1]]; ok && parts[len(parts)-1] != "block" {
			end, pos = len(parts)-1, off
		}
	}
	block := phrase.JoinFrom(parts, 1, end, " ")
	if block == "" {
		return "", false
	}
	return fmt.Sprintf("setblock %s %s", pos, p.res.Block(block)), true
}

// survivalParser: heal, regenerate, feed, set <time>, clear weather.
type survivalParser struct{}

var (
	effects = map[string]string{
		"heal":       exact["heal"],
		"regenerate": exact["regenerate"],
		"feed":       exact["feed"],
	}
	times = map[string]string{
		"day":      "time set day",
		"night":    "time set night",
		"noon":     "time set noon",
		"midnight": "time set midnight",
	}
)

func (survivalParser) name() string { return "survival" }

func (survivalParser) claims(parts []string) bool {
	v := first(parts)
	if _, ok := effects[v]; ok {
		return true
	}
	return v == "set" || (v == "clear" && arg(parts, 1) == "weather")
}

func (survivalParser) parse(_ string, parts []string) (string, bool) {
	if out, ok := effects[parts[0]]; ok {
		return out, true
	}
	if parts[0] == "clear" {
		return "weather clear", true
	}
	out, ok := times[arg(parts, 1)]
	return out, ok
}
