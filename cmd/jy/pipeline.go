package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/jobyard/internal/models"
	"github.com/zulandar/jobyard/internal/pipeline"
	"github.com/zulandar/jobyard/internal/stage"
	"gorm.io/gorm"
)

func newPipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Application pipeline commands",
	}

	cmd.AddCommand(newPipelineShowCmd())
	cmd.AddCommand(newPipelineMoveCmd())
	cmd.AddCommand(newPipelineHistoryCmd())
	cmd.AddCommand(newPipelineBackfillCmd())
	return cmd
}

func newPipelineShowCmd() *cobra.Command {
	var (
		configPath string
		appID      uint
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an application's current and visited stages",
		Long:  "Shows where an application sits in its job's pipeline, creating the entry at the first stage if it has none.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			entry, err := pipeline.EnsureEntry(gormDB, appID)
			if err != nil {
				return err
			}
			return printEntry(cmd, gormDB, entry)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&appID, "application", 0, "application ID (required)")
	cmd.MarkFlagRequired("application")
	return cmd
}

func printEntry(cmd *cobra.Command, gormDB *gorm.DB, entry *models.PipelineEntry) error {
	visited, err := pipeline.Visited(gormDB, entry.ID)
	if err != nil {
		return err
	}
	stages, err := stage.List(gormDB, entry.JobID)
	if err != nil {
		return err
	}
	seen := make(map[uint]bool, len(visited))
	for _, s := range visited {
		seen[s.ID] = true
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Application %d (job %d)\n", entry.ApplicationID, entry.JobID)
	fmt.Fprintf(out, "Current: %s\n\n", entry.CurrentStage.Name)
	var names []string
	for _, s := range stages {
		switch {
		case s.ID == entry.CurrentStageID:
			names = append(names, "["+s.Name+"]")
		case seen[s.ID]:
			names = append(names, s.Name+"*")
		default:
			names = append(names, s.Name)
		}
	}
	fmt.Fprintln(out, strings.Join(names, " → "))
	return nil
}

func newPipelineMoveCmd() *cobra.Command {
	var (
		configPath string
		appID      uint
		opts       pipeline.MoveOpts
	)

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move an application to another stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			entry, err := pipeline.EnsureEntry(gormDB, appID)
			if err != nil {
				return err
			}
			opts.EntryID = entry.ID
			tr, err := pipeline.MoveTo(gormDB, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if tr == nil {
				fmt.Fprintf(out, "Application %d is already at %s\n", appID, entry.CurrentStage.Name)
				return nil
			}
			moved, err := pipeline.Get(gormDB, appID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Moved application %d: %s → %s\n", appID, entry.CurrentStage.Name, moved.CurrentStage.Name)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&appID, "application", 0, "application ID (required)")
	cmd.Flags().UintVar(&opts.StageID, "stage", 0, "target stage ID (required)")
	cmd.Flags().StringVar(&opts.MovedBy, "by", "", "who made the move")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes for the transition")
	cmd.MarkFlagRequired("application")
	cmd.MarkFlagRequired("stage")
	return cmd
}

func newPipelineHistoryCmd() *cobra.Command {
	var (
		configPath string
		appID      uint
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List an application's stage transitions, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			entry, err := pipeline.Get(gormDB, appID)
			if err != nil {
				return err
			}
			stages, err := stage.List(gormDB, entry.JobID)
			if err != nil {
				return err
			}
			names := make(map[uint]string, len(stages))
			for _, s := range stages {
				names[s.ID] = s.Name
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MOVED AT\tFROM\tTO\tBY\tNOTES")
			n := 0
			for tr, err := range pipeline.History(gormDB, entry.ID) {
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					tr.MovedAt.Format(time.DateTime), names[tr.FromStageID], names[tr.ToStageID], tr.MovedBy, tr.Notes)
				n++
			}
			if n == 0 {
				fmt.Fprintln(out, "No transitions.")
				return nil
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&appID, "application", 0, "application ID (required)")
	cmd.MarkFlagRequired("application")
	return cmd
}

func newPipelineBackfillCmd() *cobra.Command {
	var (
		configPath string
		seed       bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Create missing pipeline entries",
		Long:  "Places every application that has no pipeline entry at its job's first stage. With --seed-defaults, jobs without stages get the default stages first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			res, err := pipeline.Backfill(gormDB, pipeline.BackfillOpts{SeedDefaultStages: seed})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d jobs, created %d entries, skipped %d\n",
				res.JobsSeeded, res.EntriesCreated, res.Skipped)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&seed, "seed-defaults", false, "create default stages for jobs that have none")
	return cmd
}
