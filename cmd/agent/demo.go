package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"voxelagent.ai/internal/agent"
	"voxelagent.ai/internal/decision"
	"voxelagent.ai/internal/world"
	"voxelagent.ai/internal/world/memworld"
)

var demoReplies = []string{
	`{"thought": "Collect some dirt and note where home is.", "action": ["mine dirt 2", "save location home description:spawn"]}`,
	`{"thought": "Find the ore.", "action": ["travel to block iron_ore"], "message": "heading to the ore"}`,
	`{"thought": "Need a tool first.", "action": ["get stone pickaxe 1", "mine iron_ore 1"]}`,
	`{"thought": "Deal with the zombie.", "action": ["attack zombie"]}`,
	`{"action": ["sharedbook add ore 'iron east of spawn'", "idle"]}`,
}

func newDemoCmd(a *app) *cobra.Command {
	var (
		cycles     int
		scriptPath string
		prompts    bool
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the agent against a small in-memory world",
		RunE: func(cmd *cobra.Command, args []string) error {
			replies := demoReplies
			if scriptPath != "" {
				r, err := readScript(scriptPath)
				if err != nil {
					return err
				}
				replies = r
			}
			return a.demo(cmd.Context(), cmd.OutOrStdout(), decision.NewScript(replies...), cycles, prompts)
		},
	}
	cmd.Flags().IntVar(&cycles, "cycles", len(demoReplies), "decision cycles to run")
	cmd.Flags().StringVar(&scriptPath, "script", "", "file with one reply per line")
	cmd.Flags().BoolVar(&prompts, "prompts", false, "print each prompt")
	return cmd
}

// demoWorld is a flat patch of dirt over stone with an ore, a tree, a cow and
// a zombie.
func demoWorld(name string) *memworld.World {
	w := memworld.New(memworld.Config{AgentName: name, Spawn: world.Vec3{X: 0.5, Y: 64, Z: 0.5}})
	w.LoadTiles(world.BlockPos{}, 1)
	w.Fill(world.BlockPos{X: -12, Y: 56, Z: -12}, world.BlockPos{X: 12, Y: 60, Z: 12}, "minecraft:stone")
	w.Fill(world.BlockPos{X: -12, Y: 61, Z: -12}, world.BlockPos{X: 12, Y: 63, Z: 12}, "minecraft:dirt")
	w.SetBlock(world.BlockPos{X: 9, Y: 63, Z: 2}, "minecraft:iron_ore")
	w.Fill(world.BlockPos{X: -6, Y: 64, Z: 5}, world.BlockPos{X: -6, Y: 67, Z: 5}, "minecraft:oak_log")
	w.AddEntity(world.Entity{ID: "e1", Name: "Cow", Type: "minecraft:cow", Pos: world.Vec3{X: 4, Y: 64, Z: -3}, Living: true})
	w.AddEntity(world.Entity{ID: "e2", Name: "Zombie", Type: "minecraft:zombie", Pos: world.Vec3{X: 12, Y: 64, Z: 4}, Living: true})
	return w
}

func (a *app) demo(ctx context.Context, out io.Writer, d agent.Decider, cycles int, prompts bool) error {
	w := demoWorld(a.cfg.Agent.Name)
	s, err := a.openSinks()
	if err != nil {
		return err
	}
	defer s.Close()
	opts, err := a.options(s)
	if err != nil {
		return err
	}

	ag, err := agent.New(w, d, opts)
	if err != nil {
		return err
	}
	if err := ag.Start(); err != nil {
		return err
	}
	defer ag.Close()
	for ag.CacheStats().Refreshes == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}

	for i := 0; i < cycles; i++ {
		if prompts {
			p, _, err := ag.Prompt()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "--- prompt\n%s\n", p)
		}
		c, err := ag.Step(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "cycle %d snapshot=%.12s\n", c.N, c.Digest)
		if c.Reply.Thought != "" {
			fmt.Fprintf(out, "  thought: %s\n", c.Reply.Thought)
		}
		for _, o := range c.Outcomes {
			status := "ok"
			if !o.OK {
				status = "FAILED"
				if o.Err != "" {
					status += " (" + o.Err + ")"
				}
			}
			line := fmt.Sprintf("  %-8s %-40q %s", o.Route, o.Phrase, status)
			if o.Command != "" {
				line += " -> " + o.Command
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintf(out, "  action: %s | navigation: %s | at %s\n",
			ag.Action().Describe(), ag.Navigation().Describe(), w.Position())
	}
	return nil
}
