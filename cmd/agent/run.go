package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voxelagent.ai/internal/agent"
	"voxelagent.ai/internal/config"
	"voxelagent.ai/internal/decision"
	"voxelagent.ai/internal/observability"
	"voxelagent.ai/internal/world/worldlink"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		url        string
		name       string
		scriptPath string
		status     time.Duration
		readyWait  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to a world host and run the decision loop",
		Long: `Connects to the world host, waits for the first observation and then
runs the decision loop. Each prompt is written to stdout and each reply is read
as one line from stdin, unless --script supplies the replies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url != "" {
				a.cfg.World.URL = url
			}
			if name != "" {
				a.cfg.Agent.Name = name
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if a.cfg.World.URL == "" {
				return fmt.Errorf("world.url is required (flag --url or VOXELAGENT_WORLD_URL)")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, cmd, scriptPath, readyWait, status)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "world host websocket url (overrides world.url)")
	cmd.Flags().StringVar(&name, "name", "", "agent name (overrides agent.name)")
	cmd.Flags().StringVar(&scriptPath, "script", "", "file with one reply per line instead of stdin")
	cmd.Flags().DurationVar(&status, "status-every", time.Minute, "interval of status log lines (0 disables)")
	cmd.Flags().DurationVar(&readyWait, "ready-timeout", 30*time.Second, "how long to wait for the first observation")
	return cmd
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, scriptPath string, readyWait, status time.Duration) error {
	sess := worldlink.NewSession(worldlink.Config{
		URL:            a.cfg.World.URL,
		AgentName:      a.cfg.Agent.Name,
		ResumeToken:    a.cfg.World.ResumeToken,
		CommandTimeout: a.cfg.World.CommandTimeout,
	}, a.log)
	sess.Start()
	defer sess.Close()

	waitCtx, cancel := context.WithTimeout(ctx, readyWait)
	err := sess.WaitReady(waitCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("world host not ready: %w", err)
	}

	decider, err := newDecider(cmd, scriptPath)
	if err != nil {
		return err
	}
	s, err := a.openSinks()
	if err != nil {
		return err
	}
	defer s.Close()
	opts, err := a.options(s)
	if err != nil {
		return err
	}
	ag, err := agent.New(sess, decider, opts)
	if err != nil {
		return err
	}
	if err := ag.Start(); err != nil {
		return err
	}
	defer ag.Close()

	if a.v.ConfigFileUsed() != "" {
		config.Watch(a.v, a.log, func(c *config.Config) {
			observability.SetLevel(c.Log.Level)
			if err := ag.Reconfigure(settingsOf(c)); err != nil {
				a.log.Warn("reconfigure rejected", zap.Error(err))
			}
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stopLoop := context.WithCancel(gctx)
	g.Go(func() error {
		defer stopLoop()
		return ag.Run(loopCtx)
	})
	if status > 0 {
		g.Go(func() error {
			t := time.NewTicker(status)
			defer t.Stop()
			for {
				select {
				case <-loopCtx.Done():
					return nil
				case <-t.C:
					logStatus(a.log, sess.Status(), ag)
				}
			}
		})
	}
	err = g.Wait()
	logStatus(a.log, sess.Status(), ag)
	return err
}

func logStatus(log *zap.Logger, st worldlink.Status, ag *agent.Agent) {
	cs := ag.CacheStats()
	log.Info("status",
		zap.Bool("connected", st.Connected),
		zap.String("agent_id", st.AgentID),
		zap.Uint64("last_obs_tick", st.LastObsTick),
		zap.Int("loaded_tiles", st.LoadedTiles),
		zap.Uint64("cycles", ag.Cycles()),
		zap.Uint64("cache_refreshes", cs.Refreshes),
		zap.Duration("last_scan", cs.LastScan),
		zap.String("action", ag.Action().Describe()),
		zap.String("navigation", ag.Navigation().Describe()))
}

// newDecider reads replies from a script file, or interactively from the
// command's stdin with prompts on its stdout.
func newDecider(cmd *cobra.Command, path string) (agent.Decider, error) {
	if path == "" {
		return decision.NewLineDecider(cmd.InOrStdin(), cmd.OutOrStdout()), nil
	}
	replies, err := readScript(path)
	if err != nil {
		return nil, err
	}
	return decision.NewScript(replies...), nil
}

// readScript returns the non-empty, non-comment lines of path.
func readScript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		l := strings.TrimSpace(sc.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		out = append(out, l)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return out, nil
}
