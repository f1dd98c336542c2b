package decision

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply_Structured(t *testing.T) {
	r, err := ParseReply("```json\n" + `{"thought":"need wood","action":["mine oak_log 3","idle"],"message":"on  it"}` + "\n```")
	require.NoError(t, err)
	assert.True(t, r.Structured)
	assert.Equal(t, "need wood", r.Thought)
	assert.Equal(t, []string{"mine oak_log 3", "say on  it"}, r.Phrases())
}

func TestParseReply_SingleActionString(t *testing.T) {
	r, err := ParseReply(`Sure! {"actions": "travel to 1 64 2"}`)
	require.NoError(t, err)
	assert.True(t, r.Structured)
	assert.Equal(t, []string{"travel to 1 64 2"}, r.Phrases())
}

func TestParseReply_FallsBackToLines(t *testing.T) {
	r, err := ParseReply("mine stone 2\n\n- craft pickaxe\n  idle  \n")
	require.NoError(t, err)
	assert.False(t, r.Structured)
	assert.Equal(t, []string{"mine stone 2", "craft pickaxe"}, r.Phrases())

	// Valid JSON that does not match the reply shape is treated as text.
	r, err = ParseReply(`{"action": 5}`)
	require.NoError(t, err)
	assert.False(t, r.Structured)
	assert.Equal(t, []string{`{"action": 5}`}, r.Phrases())
}

func TestScript_RepeatsLast(t *testing.T) {
	s := NewScript("a", "b")
	ctx := context.Background()
	for _, want := range []string{"a", "b", "b"} {
		got, err := s.Decide(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Len(t, s.Prompts(), 3)

	got, err := NewScript().Decide(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, IdleAction, got)
}

func TestLineDecider(t *testing.T) {
	var out bytes.Buffer
	d := NewLineDecider(strings.NewReader("mine stone\n"), &out)
	got, err := d.Decide(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "mine stone", got)
	assert.Equal(t, "PROMPT\n> ", out.String())

	_, err = d.Decide(context.Background(), "again")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestReply_MessageKeepsText(t *testing.T) {
	r, err := ParseReply(`{"thought":"greet","action":[],"message":"Meet me at Base, Bob!\nBring \"Iron\""}`)
	require.NoError(t, err)
	assert.Equal(t, []string{`say Meet me at Base, Bob! Bring "Iron"`}, r.Phrases())
}
