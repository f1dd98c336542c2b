package commandmap

import (
	"fmt"
	"strings"
)

// utilityParser normalises general engine commands so the agent is always the
// implicit target.
type utilityParser struct{}

var utilityVerbs = map[string]bool{
	"teleport": true, "tp": true,
	"gamemode": true, "gm": true,
	"experience": true, "xp": true,
	"give": true, "effect": true, "enchant": true, "clear": true,
	"fill": true, "clone": true,
	"say": true, "tell": true, "msg": true, "w": true, "title": true,
	"playsound": true, "time": true, "weather": true, "difficulty": true,
	"list": true, "locate": true,
}

var gamemodes = map[string]string{
	"survival": "survival", "0": "survival", "s": "survival",
	"creative": "creative", "1": "creative", "c": "creative",
	"adventure": "adventure", "2": "adventure", "a": "adventure",
	"spectator": "spectator", "3": "spectator", "sp": "spectator",
}

func (utilityParser) name() string               { return "utility" }
func (utilityParser) claims(parts []string) bool { return utilityVerbs[first(parts)] }

func (utilityParser) parse(text string, parts []string) (string, bool) {
	n := len(parts)
	rest := func(from int) string { return strings.Join(parts[from:], " ") }

	switch parts[0] {
	case "teleport", "tp":
		switch {
		case n >= 4:
			return fmt.Sprintf("tp @s %s %s %s", parts[1], parts[2], parts[3]), true
		case n >= 2:
			return "tp @s " + parts[1], true
		}
	case "gamemode", "gm":
		if n >= 2 {
			mode, ok := gamemodes[parts[1]]
			if !ok {
				mode = parts[1]
			}
			return fmt.Sprintf("gamemode %s @s", mode), true
		}
	case "experience", "xp":
		switch {
		case n >= 3:
			amount := parts[2]
			if n >= 4 && parts[3] == "levels" {
				amount += "L"
			}
			return fmt.Sprintf("xp %s %s @s", parts[1], amount), true
		case n == 2:
			return fmt.Sprintf("xp add %s @s", parts[1]), true
		}
	case "give":
		switch {
		case n >= 3:
			return fmt.Sprintf("give @s %s %s", parts[1], parts[2]), true
		case n == 2:
			return fmt.Sprintf("give @s %s 1", parts[1]), true
		}
	case "effect":
		if n >= 2 {
			secs, amp := "30", "0"
			if n >= 3 {
				secs = parts[2]
			}
			if n >= 4 {
				amp = parts[3]
			}
			return fmt.Sprintf("effect give @s %s %s %s", parts[1], secs, amp), true
		}
	case "enchant":
		if n >= 2 {
			level := "1"
			if n >= 3 {
				level = parts[2]
			}
			return fmt.Sprintf("enchant @s %s %s", parts[1], level), true
		}
	case "clear":
		switch {
		case n >= 3:
			return fmt.Sprintf("clear @s %s %s", parts[1], parts[2]), true
		case n == 2:
			return "clear @s " + parts[1], true
		}
		return "clear @s", true
	case "fill":
		if n >= 8 {
			mode := "replace"
			if n >= 9 {
				mode = parts[8]
			}
			return "fill " + strings.Join(parts[1:8], " ") + " " + mode, true
		}
	case "clone":
		if n >= 10 {
			mode := "replace"
			if n >= 11 {
				mode = parts[10]
			}
			return "clone " + strings.Join(parts[1:10], " ") + " " + mode, true
		}
	case "say":
		if msg := tail(text, 1); msg != "" {
			return "say " + msg, true
		}
	case "tell", "msg", "w":
		if msg := tail(text, 2); n >= 3 && msg != "" {
			return fmt.Sprintf("msg %s %s", field(text, 1), msg), true
		}
	case "title":
		if n >= 3 {
			switch parts[2] {
			case "clear", "reset":
				return fmt.Sprintf("title %s %s", parts[1], parts[2]), true
			}
			if n >= 4 {
				return fmt.Sprintf(`title %s %s {"text":%q}`, parts[1], parts[2], tail(text, 3)), true
			}
		}
	case "playsound":
		switch {
		case n >= 7:
			return fmt.Sprintf("playsound %s %s %s %s %s %s", parts[1], parts[2], parts[3], parts[4], parts[5], parts[6]), true
		case n >= 3:
			target := "@s"
			if n >= 4 {
				target = parts[3]
			}
			return fmt.Sprintf("playsound %s %s %s", parts[1], parts[2], target), true
		}
	case "time":
		if n >= 3 && (parts[1] == "set" || parts[1] == "add") {
			return fmt.Sprintf("time %s %s", parts[1], parts[2]), true
		}
		if n == 2 {
			return "time set " + parts[1], true
		}
	case "weather":
		if n >= 2 {
			return "weather " + rest(1), true
		}
	case "difficulty":
		if n >= 2 {
			return "difficulty " + parts[1], true
		}
	case "list":
		return "list", true
	case "locate":
		if n >= 2 {
			return "locate " + rest(1), true
		}
	}
	return "", false
}
