package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/jobyard/internal/match"
	"github.com/zulandar/jobyard/internal/search"
	"go.uber.org/zap"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match maintenance commands",
	}

	cmd.AddCommand(newMatchRecomputeCmd())
	cmd.AddCommand(newMatchListCmd())
	return cmd
}

func newMatchRecomputeCmd() *cobra.Command {
	var (
		configPath  string
		candidateID uint
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild a candidate's matches, or everyone's with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (candidateID != 0) {
				return fmt.Errorf("exactly one of --candidate or --all is required")
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			notifier, cleanup, err := buildNotifier(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer cleanup()

			engine := &match.Engine{DB: gormDB, Notifier: notifier}
			out := cmd.OutOrStdout()
			ctx := context.Background()
			if all {
				n, err := engine.RecomputeAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Recomputed matches for %d candidates\n", n)
				return nil
			}
			res, err := engine.RecomputeForCandidate(ctx, candidateID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Candidate %d: %d matches (%d new, %d removed)\n",
				candidateID, len(res.Matched), len(res.New), res.Removed)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&candidateID, "candidate", 0, "candidate user ID")
	cmd.Flags().BoolVar(&all, "all", false, "recompute every candidate")
	return cmd
}

func newMatchListCmd() *cobra.Command {
	var (
		configPath  string
		recruiterID uint
		searchID    uint
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the candidates matched by a saved search",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if _, err := search.GetOwned(gormDB, recruiterID, searchID); err != nil {
				return err
			}
			engine := &match.Engine{DB: gormDB}
			matches, err := engine.ListForSearch(context.Background(), searchID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No matches.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CANDIDATE\tSEEN\tMATCHED AT")
			for _, m := range matches {
				fmt.Fprintf(w, "%d\t%t\t%s\n", m.CandidateID, m.Seen, m.CreatedAt.Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&recruiterID, "recruiter", 0, "owning recruiter user ID (required)")
	cmd.Flags().UintVar(&searchID, "search", 0, "search ID (required)")
	cmd.MarkFlagRequired("recruiter")
	cmd.MarkFlagRequired("search")
	return cmd
}
