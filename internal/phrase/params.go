package phrase

import (
	"regexp"
	"strconv"
	"strings"
)

var namedParamRe = regexp.MustCompile(`(\w+):(\S+)`)

// ParseInt parses a base-10 integer token.
func ParseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseFloat parses a coordinate token.
func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isNamed(tok string) bool { return strings.Contains(tok, ":") }

func FirstNumber(tokens []string, from int) (int, bool) {
	for i := max(from, 0); i < len(tokens); i++ {
		if n, ok := ParseInt(tokens[i]); ok {
			return n, true
		}
	}
	return 0, false
}

// FirstNonNumber skips integers and key:value tokens.
func FirstNonNumber(tokens []string, from int) (string, bool) {
	for i := max(from, 0); i < len(tokens); i++ {
		t := tokens[i]
		if _, ok := ParseInt(t); ok || isNamed(t) {
			continue
		}
		return t, true
	}
	return "", false
}

// ReconstructName joins tokens from index from with single spaces, stopping
// before the first integer or key:value token.
func ReconstructName(tokens []string, from int) (string, bool) {
	var parts []string
	for i := max(from, 0); i < len(tokens); i++ {
		t := tokens[i]
		if _, ok := ParseInt(t); ok || isNamed(t) {
			break
		}
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// NamedParameter finds "key:" in the raw string and returns the value up to
// the next space.
func NamedParameter(raw, key string) (string, bool) {
	prefix := key + ":"
	i := strings.Index(raw, prefix)
	if i < 0 {
		return "", false
	}
	v := raw[i+len(prefix):]
	if j := strings.IndexByte(v, ' '); j >= 0 {
		v = v[:j]
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func AllNamedParameters(raw string) map[string]string {
	out := map[string]string{}
	for _, m := range namedParamRe.FindAllStringSubmatch(raw, -1) {
		out[m[1]] = m[2]
	}
	return out
}

// SplitCommand splits on spaces, treating double-quoted runs as one part.
// Unlike Lex it only knows the double quote and ignores other whitespace.
func SplitCommand(raw string) []string {
	var (
		parts []string
		cur   strings.Builder
		in    bool
	)
	for _, r := range raw {
		switch {
		case r == '"':
			in = !in
		case r == ' ' && !in:
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// JoinFrom joins tokens[from:to] with sep; to < 0 means to the end.
func JoinFrom(tokens []string, from, to int, sep string) string {
	if to < 0 || to > len(tokens) {
		to = len(tokens)
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return ""
	}
	return strings.Join(tokens[from:to], sep)
}

// IndexFold returns the index of the first token at or after from equal to
// word, ignoring case, or -1.
func IndexFold(tokens []string, from int, word string) int {
	for i := max(from, 0); i < len(tokens); i++ {
		if strings.EqualFold(tokens[i], word) {
			return i
		}
	}
	return -1
}
