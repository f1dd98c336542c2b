// Command agent runs the voxel agent core: against a world host over
// websocket, against an offline demo world, or as small inspection tools.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"voxelagent.ai/internal/agent"
	"voxelagent.ai/internal/config"
	"voxelagent.ai/internal/observability"
	"voxelagent.ai/internal/persistence/audit"
	"voxelagent.ai/internal/persistence/indexdb"
	"voxelagent.ai/internal/resources"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		observability.Sync()
		os.Exit(1)
	}
	observability.Sync()
}

// app carries what every subcommand shares after PersistentPreRunE.
type app struct {
	cfgFile  string
	logLevel string

	cfg *config.Config
	v   *viper.Viper
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "agent",
		Short:         "Perception and action core for an agent in a voxel world",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newRunCmd(a),
		newDemoCmd(a),
		newMapCmd(a),
		newTokenizeCmd(),
		newAuditCmd(a),
		newInitCmd(),
	)
	return root
}

func (a *app) load() error {
	cfg, v, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg, a.v = cfg, v
	a.log = observability.InitializeStderr(cfg.Log)
	return nil
}

func (a *app) resources() (*resources.Resolver, error) {
	if p := a.cfg.Resources.Overrides; p != "" {
		return resources.LoadOverrides(p)
	}
	return resources.Default(), nil
}

func settingsOf(c *config.Config) agent.Settings {
	return agent.Settings{
		Cache:            c.Perception.Cache(),
		Limits:           c.Perception.Snapshot(),
		ArrivalThreshold: c.Navigation.ArrivalThreshold,
	}
}

func (a *app) options(s *sinks) (agent.Options, error) {
	res, err := a.resources()
	if err != nil {
		return agent.Options{}, err
	}
	return agent.Options{
		Settings:    settingsOf(a.cfg),
		Memory:      a.cfg.Memory.Limits(),
		Resources:   res,
		Instruction: a.cfg.Decision.Instruction,
		MinInterval: a.cfg.Decision.MinInterval,
		MaxCycles:   a.cfg.Decision.MaxCycles,
		Journal:     s.journal,
		Indexes:     s.indexes,
		Logger:      a.log,
	}, nil
}

// sinks are the audit outputs selected by the audit.* keys.
type sinks struct {
	journal *audit.Journal
	indexes []indexdb.Index
}

func (a *app) openSinks() (*sinks, error) {
	s := &sinks{}
	ac := a.cfg.Audit
	if ac.Dir != "" {
		s.journal = audit.NewJournal(ac.Dir)
	}
	if ac.IndexPath != "" {
		idx, err := indexdb.OpenSQLite(ac.IndexPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.indexes = append(s.indexes, idx)
	}
	if ac.RemoteURL != "" {
		idx, err := indexdb.OpenHTTP(indexdb.HTTPConfig{
			Endpoint: ac.RemoteURL,
			Token:    ac.RemoteToken,
			Logger:   a.log,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.indexes = append(s.indexes, idx)
	}
	return s, nil
}

func (s *sinks) Close() error {
	var errs []error
	for _, idx := range s.indexes {
		errs = append(errs, idx.Close())
	}
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	return errors.Join(errs...)
}
