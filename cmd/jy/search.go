package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/jobyard/internal/match"
	"github.com/zulandar/jobyard/internal/notify"
	"github.com/zulandar/jobyard/internal/search"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Recruiter saved search commands",
	}

	cmd.AddCommand(newSearchCreateCmd())
	cmd.AddCommand(newSearchListCmd())
	cmd.AddCommand(newSearchDeleteCmd())
	cmd.AddCommand(newSearchRunCmd())
	return cmd
}

func addCriteriaFlags(cmd *cobra.Command, c *search.Criteria) {
	cmd.Flags().StringVar(&c.Skill, "skill", "", "skill substring")
	cmd.Flags().StringVar(&c.City, "city", "", "exact city")
	cmd.Flags().StringVar(&c.Project, "project", "", "project substring")
}

func newSearchCreateCmd() *cobra.Command {
	var (
		configPath  string
		recruiterID uint
		criteria    search.Criteria
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save a candidate search",
		Long: `Saves a search. Empty criteria match anything. The new search is matched
against candidates the next time each candidate's profile changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			s, err := search.Create(gormDB, recruiterID, criteria)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created search %d: %s\n", s.ID, notify.Describe(s.Skill, s.City, s.Project))
			if search.Of(*s).IsEmpty() {
				fmt.Fprintln(out, "Note: no criteria given; this search matches every public candidate.")
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&recruiterID, "recruiter", 0, "recruiter user ID (required)")
	addCriteriaFlags(cmd, &criteria)
	cmd.MarkFlagRequired("recruiter")
	return cmd
}

func newSearchListCmd() *cobra.Command {
	var (
		configPath  string
		recruiterID uint
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved searches with unseen match counts",
		Long:  "Lists a recruiter's saved searches, newest first, then marks all of their matches as seen.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			searches, err := search.List(gormDB, recruiterID)
			if err != nil {
				return err
			}
			engine := &match.Engine{DB: gormDB}
			unseen, err := engine.MarkSeenForRecruiter(ctx, recruiterID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(searches) == 0 {
				fmt.Fprintln(out, "No saved searches.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSKILL\tCITY\tPROJECT\tNEW")
			for _, s := range searches {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", s.ID, dash(s.Skill), dash(s.City), dash(s.Project), unseen[s.ID])
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&recruiterID, "recruiter", 0, "recruiter user ID (required)")
	cmd.MarkFlagRequired("recruiter")
	return cmd
}

func newSearchDeleteCmd() *cobra.Command {
	var (
		configPath  string
		recruiterID uint
		searchID    uint
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a saved search and its matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := search.Delete(gormDB, recruiterID, searchID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted search %d\n", searchID)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&recruiterID, "recruiter", 0, "recruiter user ID (required)")
	cmd.Flags().UintVar(&searchID, "search", 0, "search ID (required)")
	cmd.MarkFlagRequired("recruiter")
	cmd.MarkFlagRequired("search")
	return cmd
}

func newSearchRunCmd() *cobra.Command {
	var (
		configPath  string
		recruiterID uint
		criteria    search.Criteria
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Find public candidates matching criteria now",
		Long:  "Lists matching candidates and marks matches of identical saved searches as seen.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			engine := &match.Engine{DB: gormDB}
			found, err := engine.FindCandidates(ctx, recruiterID, criteria)
			if err != nil {
				return err
			}
			if _, err := engine.MarkSeenForExactSearch(ctx, recruiterID, criteria); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No matching candidates.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tCITY\tSKILLS\tPROJECTS")
			for _, p := range found {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.UserID, dash(p.City),
					dash(strings.Join(p.Skills, ", ")), dash(strings.Join(p.Projects, ", ")))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&recruiterID, "recruiter", 0, "recruiter user ID (required)")
	addCriteriaFlags(cmd, &criteria)
	cmd.MarkFlagRequired("recruiter")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
