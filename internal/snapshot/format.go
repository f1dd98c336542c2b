package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	contextBegin = "=== CONTEXT DATA (JSON) ==="
	contextEnd   = "=== END CONTEXT ==="
)

// FormatPrompt renders the instruction followed by the snapshot as indented
// JSON between context markers.
func FormatPrompt(instruction string, s Snapshot) (string, error) {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("snapshot: encode: %w", err)
	}
	var sb strings.Builder
	if ins := strings.TrimSpace(instruction); ins != "" {
		sb.WriteString(ins)
		sb.WriteString("\n\n")
	}
	sb.WriteString(contextBegin)
	sb.WriteByte('\n')
	sb.Write(body)
	sb.WriteByte('\n')
	sb.WriteString(contextEnd)
	return sb.String(), nil
}

// ExtractContext returns the JSON between the context markers of a rendered
// prompt.
func ExtractContext(prompt string) (string, bool) {
	i := strings.Index(prompt, contextBegin)
	if i < 0 {
		return "", false
	}
	rest := prompt[i+len(contextBegin):]
	j := strings.Index(rest, contextEnd)
	if j < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:j]), true
}
