package agent

import (
	"context"
	"fmt"
	"strings"

	"voxelagent.ai/internal/actions"
	"voxelagent.ai/internal/commandmap"
)

// runTool executes a structured mapper output against the memory store.
func (a *Agent) runTool(ctx context.Context, out string) error {
	ta, err := commandmap.ParseToolAction(out)
	if err != nil {
		return err
	}
	op := func(i int) string {
		if i < len(ta.Op) {
			return ta.Op[i]
		}
		return ""
	}

	switch ta.Tool {
	case commandmap.ToolMemory:
		name := ta.Param("name")
		switch op(0) + ":" + op(1) {
		case "add:location":
			return a.store.SaveLocation(name, ta.Param("description"), a.host.Position().Block())
		case "remove:location":
			return a.store.ForgetLocation(name)
		case "add:contact", "update:contact":
			return a.store.PutContact(name, ta.Param("relationship"), ta.Param("notes"))
		case "remove:contact":
			return a.store.RemoveContact(name)
		}

	case commandmap.ToolMessage:
		return a.store.SendMail(ctx, ta.Param("recipient"), ta.Param("subject"), ta.Param("content"))

	case commandmap.ToolBook:
		title := ta.Param("title")
		switch op(0) {
		case "add", "update":
			return a.store.PutPage(ctx, actions.SharedBook, title, ta.Param("content"))
		case "remove":
			return a.store.RemovePage(ctx, actions.SharedBook, title)
		}
	}
	return fmt.Errorf("agent: unsupported tool action %s:%s", ta.Tool, strings.Join(ta.Op, ":"))
}
