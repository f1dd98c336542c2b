package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"voxelagent.ai/internal/commandmap"
	"voxelagent.ai/internal/config"
	"voxelagent.ai/internal/phrase"
)

func newMapCmd(a *app) *cobra.Command {
	var vocab bool
	cmd := &cobra.Command{
		Use:   "map [phrase...]",
		Short: "Show the engine command a short phrase maps to",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if vocab {
				for _, v := range commandmap.Vocabulary() {
					fmt.Fprintln(out, v)
				}
				return nil
			}
			if len(args) == 0 {
				return errors.New("map: expected a phrase")
			}
			res, err := a.resources()
			if err != nil {
				return err
			}
			m := commandmap.New(res, a.log)
			mapped, ok := m.Map(strings.Join(args, " "))
			if !ok {
				return fmt.Errorf("map: %q is not understood", strings.Join(args, " "))
			}
			if commandmap.IsToolAction(mapped) {
				ta, err := commandmap.ParseToolAction(mapped)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ta)
			}
			fmt.Fprintln(out, mapped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&vocab, "vocabulary", false, "list the understood phrase forms")
	return cmd
}

func newTokenizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize <phrase>",
		Short: "Split an action phrase into tokens, honouring quotes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(phrase.Tokenize(strings.Join(args, " ")))
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with every default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "agent.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("init: %s exists (use --force)", path)
			}
			if err := config.WriteFile(path, config.NewDefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
