package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"voxelagent.ai/internal/persistence/audit"
	"voxelagent.ai/internal/persistence/indexdb"
)

func newAuditCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the action audit index and journal",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "index database (default audit.index_path)")
	open := func() (*indexdb.Reader, error) {
		p := dbPath
		if p == "" {
			p = a.cfg.Audit.IndexPath
		}
		if p == "" {
			return nil, fmt.Errorf("audit: no index (set audit.index_path or --db)")
		}
		return indexdb.OpenReader(p)
	}

	var q indexdb.Query
	recent := &cobra.Command{
		Use:   "recent",
		Short: "List recent actions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := open()
			if err != nil {
				return err
			}
			defer r.Close()
			recs, err := r.Recent(cmd.Context(), q)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tAGENT\tCYCLE\tROUTE\tOK\tPHRASE\tCOMMAND")
			for _, rec := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%t\t%s\t%s\n",
					rec.Time.Format("15:04:05"), rec.Agent, rec.Cycle, rec.Route, rec.OK, rec.Phrase, rec.Command)
			}
			return tw.Flush()
		},
	}
	recent.Flags().StringVar(&q.Agent, "agent", "", "only this agent")
	recent.Flags().StringVar(&q.Verb, "verb", "", "only phrases starting with this verb")
	recent.Flags().BoolVar(&q.FailedOnly, "failed", false, "only failed actions")
	recent.Flags().IntVar(&q.Limit, "limit", 50, "maximum rows")

	var agentName string
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Count attempts and failures per verb",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := open()
			if err != nil {
				return err
			}
			defer r.Close()
			stats, err := r.VerbSummary(cmd.Context(), agentName)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERB\tTOTAL\tFAILURES")
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Verb, s.Total, s.Failures)
			}
			return tw.Flush()
		},
	}
	summary.Flags().StringVar(&agentName, "agent", "", "only this agent")

	var dir string
	dump := &cobra.Command{
		Use:   "dump [file...]",
		Short: "Print journal records as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				d := dir
				if d == "" {
					d = a.cfg.Audit.Dir
				}
				if d == "" {
					return fmt.Errorf("audit: no journal (set audit.dir, --dir or pass files)")
				}
				var err error
				if files, err = audit.Files(d); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, f := range files {
				recs, err := audit.ReadFile(f)
				if err != nil {
					return err
				}
				for _, r := range recs {
					if err := enc.Encode(r); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	dump.Flags().StringVar(&dir, "dir", "", "journal directory (default audit.dir)")

	cmd.AddCommand(recent, summary, dump)
	return cmd
}
