// Package commandmap translates the simplified verb vocabulary into engine
// commands or structured tool actions.
package commandmap

import (
	"strings"

	"go.uber.org/zap"

	"voxelagent.ai/internal/phrase"
	"voxelagent.ai/internal/resources"
)

// exact holds phrases that map without parameters. Bare tool phrases map to a
// tool action with no parameters.
var exact = map[string]string{
	"heal":              "effect give @s minecraft:instant_health 1 1",
	"regenerate":        "effect give @s minecraft:regeneration 30 1",
	"feed":              "effect give @s minecraft:saturation 1 10",
	"get food":          "give @s minecraft:cooked_beef 16",
	"set day":           "time set day",
	"set night":         "time set night",
	"clear weather":     "weather clear",
	"save location":     "manageMemory:add:location",
	"remember location": "manageMemory:add:location",
	"forget location":   "manageMemory:remove:location",
	"add contact":       "manageMemory:add:contact",
	"update contact":    "manageMemory:update:contact",
	"remove contact":    "manageMemory:remove:contact",
	"send mail":         "sendMessage",
	"send message":      "sendMessage",
	"add book page":     "manageBook:add",
	"update book page":  "manageBook:update",
	"remove book page":  "manageBook:remove",
}

// parser handles one family of phrases. claims and parse see the split,
// lowercased phrase; parse also gets the trimmed phrase in its original case
// for free text. parse returns false when the phrase is claimed but malformed.
type parser interface {
	name() string
	claims(parts []string) bool
	parse(text string, parts []string) (string, bool)
}

// Mapper is stateless apart from its resolver and safe for concurrent use.
type Mapper struct {
	log     *zap.Logger
	parsers []parser
}

func New(res *resources.Resolver, log *zap.Logger) *Mapper {
	if res == nil {
		res = resources.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{
		log: log.Named("commandmap"),
		parsers: []parser{
			toolParser{},
			movementParser{},
			itemParser{res},
			miningParser{res},
			craftingParser{res},
			combatParser{res},
			buildingParser{res},
			survivalParser{},
			utilityParser{},
		},
	}
}

// Map resolves a phrase. Exact matches win, then the first parser that claims
// the phrase decides; a claimed phrase that fails to parse yields ("", false)
// without trying later parsers. Anything unclaimed passes through unchanged.
func (m *Mapper) Map(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	norm := strings.ToLower(text)
	if norm == "" {
		return "", false
	}
	if out, ok := exact[norm]; ok {
		return out, true
	}
	parts := phrase.SplitCommand(norm)
	for _, p := range m.parsers {
		if !p.claims(parts) {
			continue
		}
		out, ok := p.parse(text, parts)
		if !ok {
			m.log.Debug("phrase claimed but not parsed", zap.String("parser", p.name()), zap.String("phrase", norm))
			return "", false
		}
		return out, true
	}
	return text, true
}

// Vocabulary lists the phrase forms the mapper understands, for prompts.
func Vocabulary() []string {
	return []string{
		"walk|move <forward|back|left|right|up|down> [steps]",
		"get <item> [amount]",
		"mine [front|above|below|left|right|back|<block>]",
		"craft <item> [amount]",
		"kill [mob|nearest]",
		"spawn <mob>",
		"clear mobs",
		"place <block> [direction]",
		"heal", "regenerate", "feed", "get food",
		"set day|night|noon|midnight",
		"clear weather",
		"save location <name> [description:...]",
		"forget location <name>",
		"add|update contact <name> [relationship:...] [notes:...]",
		"remove contact <name>",
		"send mail <recipient> <subject> [content:...]",
		"add|update book page <title> [content:...]",
		"remove book page <title>",
		"tp <x> <y> <z> | tp <target>",
		"gamemode <mode>",
		"xp [add|set] <amount> [levels]",
		"say <message>",
	}
}

func first(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func arg(parts []string, i int) string {
	if i < 0 || i >= len(parts) {
		return ""
	}
	return parts[i]
}

// tail returns text after its first n space-separated fields, verbatim.
func tail(text string, n int) string {
	rest := strings.TrimLeft(text, " ")
	for ; n > 0 && rest != ""; n-- {
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			return ""
		}
		rest = strings.TrimLeft(rest[i:], " ")
	}
	return rest
}

// field returns field i of text in its original case.
func field(text string, i int) string {
	return arg(strings.Fields(text), i)
}
