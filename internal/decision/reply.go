// Package decision parses decision-maker replies into action phrases and
// provides the simple deciders used by the CLI.
package decision

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed reply.schema.json
var replySchema string

const replySchemaURL = "reply.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(replySchemaURL, strings.NewReader(replySchema)); err != nil {
			schemaErr = fmt.Errorf("decision: load schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(replySchemaURL)
	})
	return schema, schemaErr
}

// Steps accepts either a single string or a list of strings.
type Steps []string

func (s *Steps) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*s = Steps{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Reply is one decoded decision.
type Reply struct {
	Thought    string `json:"thought,omitempty"`
	Action     Steps  `json:"action,omitempty"`
	Actions    Steps  `json:"actions,omitempty"`
	Message    string `json:"message,omitempty"`
	Structured bool   `json:"-"`
}

// IdleAction is the explicit no-op step.
const IdleAction = "idle"

// lineBreaks flattens a chat message onto one command line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Phrases returns the steps to perform in order: every non-empty action
// except idle, then "say <message>" when a message is present. The message
// keeps its text and case; only line breaks become spaces.
func (r Reply) Phrases() []string {
	var out []string
	for _, a := range append(append(Steps{}, r.Action...), r.Actions...) {
		a = strings.TrimSpace(a)
		if a == "" || strings.EqualFold(a, IdleAction) {
			continue
		}
		out = append(out, a)
	}
	if m := strings.TrimSpace(lineBreaks.Replace(r.Message)); m != "" {
		out = append(out, "say "+m)
	}
	return out
}

// ParseReply decodes a JSON reply, tolerating code fences and surrounding
// prose. Text without a valid JSON object falls back to one action per
// non-empty line. The error is only returned for an unusable schema.
func ParseReply(text string) (Reply, error) {
	s, err := compiled()
	if err != nil {
		return Reply{}, err
	}
	if body, ok := jsonObject(text); ok {
		var doc any
		if json.Unmarshal([]byte(body), &doc) == nil && s.Validate(doc) == nil {
			var r Reply
			if err := json.Unmarshal([]byte(body), &r); err == nil {
				r.Structured = true
				return r, nil
			}
		}
	}
	return Reply{Action: lines(text)}, nil
}

func jsonObject(text string) (string, bool) {
	i := strings.IndexByte(text, '{')
	j := strings.LastIndexByte(text, '}')
	if i < 0 || j <= i {
		return "", false
	}
	return text[i : j+1], true
}

func lines(text string) Steps {
	var out Steps
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "```") {
			continue
		}
		l = strings.TrimSpace(strings.TrimLeft(l, "-*•"))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
