// Package phrase lexes action phrases and extracts parameters from them.
package phrase

import (
	"strings"
	"unicode"
)

// Token is one lexed argument. Quoted is set when the token began with a
// quote character in the source text.
type Token struct {
	Text   string
	Quoted bool
}

// Tokenize splits input on whitespace outside quotes. Both ' and " open a
// quoted run that is closed only by the same character; the quote characters
// are dropped. An unterminated quote swallows the rest of the input. Empty
// quoted runs such as '' produce no token.
func Tokenize(input string) []string { return Texts(Lex(input)) }

func Lex(input string) []Token {
	out := []Token{}
	if strings.TrimSpace(input) == "" {
		return out
	}

	var (
		cur     strings.Builder
		quote   rune
		started bool
		quoted  bool
	)
	flush := func() {
		if started && cur.Len() > 0 {
			out = append(out, Token{Text: cur.String(), Quoted: quoted})
		}
		cur.Reset()
		started, quoted = false, false
	}

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			if !started {
				quoted = true
			}
			started = true
			quote = r
		case unicode.IsSpace(r):
			flush()
		default:
			started = true
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// Texts returns the token texts.
func Texts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

// NormalizeSpace collapses line breaks and whitespace runs to single spaces.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
