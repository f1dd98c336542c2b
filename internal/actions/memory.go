package actions

import (
	"context"

	"go.uber.org/zap"

	"voxelagent.ai/internal/phrase"
)

// memoryHandler edits the shared and private books.
//
//	sharedbook add <title> '<content>'
//	privatebook remove <title>
type memoryHandler struct{ env *Env }

func (h *memoryHandler) Name() string    { return "memory" }
func (h *memoryHandler) Verbs() []string { return []string{"sharedbook", "privatebook"} }
func (h *memoryHandler) Syntax() []string {
	return []string{
		"sharedbook add <title> '<content>'",
		"sharedbook remove <title>",
		"privatebook add <title> '<content>'",
		"privatebook remove <title>",
	}
}

func (h *memoryHandler) Handle(ctx context.Context, c Call) bool {
	if len(c.Args) < 3 {
		return h.env.reject(h.Name(), c, "expected an operation and a title")
	}
	if h.env.Books == nil {
		return h.env.reject(h.Name(), c, "no bookshelf configured")
	}
	book := SharedBook
	if c.Arg(0) == "privatebook" {
		book = PrivateBook
	}
	title := c.Args[2]

	var err error
	switch c.Arg(1) {
	case "add":
		if len(c.Args) < 4 || !c.Quoted(3) {
			return h.env.reject(h.Name(), c, "page content must be quoted")
		}
		content := phrase.NormalizeSpace(c.Args[3])
		if content == "" {
			return h.env.reject(h.Name(), c, "page content is empty")
		}
		err = h.env.Books.PutPage(ctx, book, title, content)
	case "remove":
		err = h.env.Books.RemovePage(ctx, book, title)
	default:
		return h.env.reject(h.Name(), c, "unknown book operation")
	}
	if err != nil {
		h.env.Log.Warn("book update failed", zap.Stringer("book", book), zap.String("title", title), zap.Error(err))
		return false
	}
	return true
}

// communicationHandler sends mail to other agents.
type communicationHandler struct{ env *Env }

func (h *communicationHandler) Name() string     { return "communication" }
func (h *communicationHandler) Verbs() []string  { return []string{"mail"} }
func (h *communicationHandler) Syntax() []string { return []string{"mail send <recipient> '<message>'"} }

func (h *communicationHandler) Handle(ctx context.Context, c Call) bool {
	if len(c.Args) < 4 || c.Arg(1) != "send" {
		return h.env.reject(h.Name(), c, "expected: mail send <recipient> '<message>'")
	}
	if !c.Quoted(3) {
		return h.env.reject(h.Name(), c, "message must be quoted")
	}
	msg := phrase.NormalizeSpace(c.Args[3])
	if msg == "" {
		return h.env.reject(h.Name(), c, "message is empty")
	}
	if h.env.Mail == nil {
		return h.env.reject(h.Name(), c, "no mailer configured")
	}
	if err := h.env.Mail.Send(ctx, c.Args[2], msg); err != nil {
		h.env.Log.Warn("mail failed", zap.String("recipient", c.Args[2]), zap.Error(err))
		return false
	}
	return true
}
