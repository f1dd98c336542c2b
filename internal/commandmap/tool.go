package commandmap

import (
	"fmt"
	"strings"

	"voxelagent.ai/internal/phrase"
)

// Tool names of structured actions.
const (
	ToolMemory  = "manageMemory"
	ToolBook    = "manageBook"
	ToolMessage = "sendMessage"
)

// ToolAction is a decoded "tool:op:sub|key:value|..." string.
type ToolAction struct {
	Tool   string
	Op     []string
	Params map[string]string
}

// Param returns the named parameter or "".
func (t ToolAction) Param(key string) string { return t.Params[key] }

// IsToolAction reports whether a mapper output is a structured tool action
// rather than an engine command.
func IsToolAction(out string) bool {
	for _, t := range []string{ToolMemory, ToolBook, ToolMessage} {
		if out == t || strings.HasPrefix(out, t+":") || strings.HasPrefix(out, t+"|") {
			return true
		}
	}
	return false
}

// ParseToolAction decodes a tool action. Values may contain \| and \: as
// written by EscapeParam.
func ParseToolAction(out string) (ToolAction, error) {
	if !IsToolAction(out) {
		return ToolAction{}, fmt.Errorf("commandmap: %q is not a tool action", out)
	}
	fields := splitUnescaped(out, '|')
	head := strings.Split(fields[0], ":")
	ta := ToolAction{Tool: head[0], Op: head[1:], Params: map[string]string{}}
	for _, f := range fields[1:] {
		kv := splitUnescaped(f, ':')
		if len(kv) < 2 || kv[0] == "" {
			continue
		}
		ta.Params[kv[0]] = UnescapeParam(strings.Join(kv[1:], ":"))
	}
	return ta, nil
}

// EscapeParam protects the field and key separators inside a value.
func EscapeParam(v string) string {
	return strings.NewReplacer("|", `\|`, ":", `\:`).Replace(v)
}

func UnescapeParam(v string) string {
	return strings.NewReplacer(`\|`, "|", `\:`, ":").Replace(v)
}

// splitUnescaped splits s on sep, leaving backslash-escaped separators (and
// their backslash) in place.
func splitUnescaped(s string, sep byte) []string {
	var (
		out   []string
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

// toolParser turns memory, contact, mail and book phrases into tool actions.
type toolParser struct{}

func (toolParser) name() string { return "tool" }

func (toolParser) claims(parts []string) bool {
	switch first(parts) {
	case "save", "remember", "forget", "add", "update", "remove", "send":
		return true
	}
	return false
}

// named reads a key:value parameter; the key matches in any case and the
// value keeps its case.
func named(text, key string) string {
	v, _ := namedParameter(text, key)
	return EscapeParam(v)
}

func namedParameter(text, key string) (string, bool) {
	if lower := strings.ToLower(text); len(lower) == len(text) {
		if i := strings.Index(lower, key+":"); i >= 0 {
			return phrase.NamedParameter(text[i:], text[i:i+len(key)])
		}
		return "", false
	}
	return phrase.NamedParameter(text, key)
}

func (toolParser) parse(text string, parts []string) (string, bool) {
	verb, what := parts[0], arg(parts, 1)
	switch {
	case (verb == "save" || verb == "remember") && what == "location":
		name := arg(parts, 2)
		if name == "" {
			name = "location"
		}
		return fmt.Sprintf("%s:add:location|name:%s|description:%s",
			ToolMemory, EscapeParam(name), named(text, "description")), true

	case verb == "forget" && what == "location":
		if arg(parts, 2) == "" {
			return "", false
		}
		return fmt.Sprintf("%s:remove:location|name:%s", ToolMemory, EscapeParam(parts[2])), true

	case (verb == "add" || verb == "update") && what == "contact":
		if arg(parts, 2) == "" {
			return "", false
		}
		rel, _ := namedParameter(text, "relationship")
		if rel == "" {
			rel = "neutral"
		}
		return fmt.Sprintf("%s:%s:contact|name:%s|relationship:%s|notes:%s",
			ToolMemory, verb, EscapeParam(parts[2]), EscapeParam(rel), named(text, "notes")), true

	case verb == "remove" && what == "contact":
		if arg(parts, 2) == "" {
			return "", false
		}
		return fmt.Sprintf("%s:remove:contact|name:%s", ToolMemory, EscapeParam(parts[2])), true

	case verb == "send" && (what == "mail" || what == "message"):
		recipient, subject := arg(parts, 2), arg(parts, 3)
		if recipient == "" || subject == "" {
			return "", false
		}
		return fmt.Sprintf("%s|recipient:%s|subject:%s|content:%s",
			ToolMessage, EscapeParam(recipient), EscapeParam(subject), named(text, "content")), true

	case what == "book" && arg(parts, 2) == "page":
		title := arg(parts, 3)
		if title == "" {
			return "", false
		}
		switch verb {
		case "add", "update":
			return fmt.Sprintf("%s:%s|title:%s|content:%s",
				ToolBook, verb, EscapeParam(title), named(text, "content")), true
		case "remove":
			return fmt.Sprintf("%s:remove|title:%s", ToolBook, EscapeParam(title)), true
		}
	}
	return "", false
}
