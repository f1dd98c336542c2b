package decision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Script replays fixed replies in order and then repeats the last one.
type Script struct {
	mu      sync.Mutex
	replies []string
	next    int
	prompts []string
}

func NewScript(replies ...string) *Script { return &Script{replies: replies} }

func (s *Script) Decide(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return IdleAction, nil
	}
	r := s.replies[min(s.next, len(s.replies)-1)]
	s.next++
	return r, nil
}

// Prompts returns every prompt seen so far.
func (s *Script) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// LineDecider writes each prompt to out and reads one reply line from in.
// It lets an operator (or a pipe) play the decision-maker.
type LineDecider struct {
	mu    sync.Mutex
	out   io.Writer
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

// NewLineDecider starts a reader goroutine that ends when in is exhausted.
func NewLineDecider(in io.Reader, out io.Writer) *LineDecider {
	d := &LineDecider{out: out, lines: make(chan lineResult)}
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), 1<<20)
		for sc.Scan() {
			d.lines <- lineResult{text: sc.Text()}
		}
		if err := sc.Err(); err != nil {
			d.lines <- lineResult{err: err}
		}
		close(d.lines)
	}()
	return d
}

var ErrNoInput = errors.New("decision: input closed")

func (d *LineDecider) Decide(ctx context.Context, prompt string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out != nil {
		if _, err := fmt.Fprintf(d.out, "%s\n> ", prompt); err != nil {
			return "", fmt.Errorf("decision: write prompt: %w", err)
		}
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-d.lines:
		if !ok {
			return "", ErrNoInput
		}
		if l.err != nil {
			return "", fmt.Errorf("decision: read reply: %w", l.err)
		}
		return l.text, nil
	}
}
