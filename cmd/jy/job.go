package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/jobyard/internal/jobboard"
)

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Job posting commands",
	}

	cmd.AddCommand(newJobCreateCmd())
	cmd.AddCommand(newJobBoardCmd())
	cmd.AddCommand(newJobCloseCmd())
	return cmd
}

func newJobCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       jobboard.JobOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new job",
		Long:  "Posts a job and seeds its pipeline with the default stages.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobCreate(cmd, configPath, opts)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Title, "title", "", "job title (required)")
	cmd.Flags().StringVar(&opts.Company, "company", "", "company name (required)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "job location")
	cmd.Flags().StringVar(&opts.Description, "description", "", "job description")
	cmd.Flags().StringVar(&opts.Requirements, "requirements", "", "job requirements")
	cmd.Flags().StringVar(&opts.SalaryRange, "salary", "", "salary range")
	cmd.Flags().StringVar(&opts.JobType, "type", "", "job type (full_time, part_time, contract, internship)")
	cmd.Flags().StringVar(&opts.ExperienceLevel, "level", "", "experience level (entry, mid, senior, lead)")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("company")
	return cmd
}

func runJobCreate(cmd *cobra.Command, configPath string, opts jobboard.JobOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	board := &jobboard.Board{DB: gormDB}
	job, stages, err := board.CreateJob(opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created job %d: %s at %s\n", job.ID, job.Title, job.Company)
	fmt.Fprintf(out, "Stages:")
	for _, s := range stages {
		fmt.Fprintf(out, " %s", s.Name)
	}
	fmt.Fprintln(out)
	return nil
}

func newJobBoardCmd() *cobra.Command {
	var (
		configPath string
		jobID      uint
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show a job's applications grouped by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobBoard(cmd, configPath, jobID)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&jobID, "job", 0, "job ID (required)")
	cmd.MarkFlagRequired("job")
	return cmd
}

func runJobBoard(cmd *cobra.Command, configPath string, jobID uint) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	board := &jobboard.Board{DB: gormDB}
	view, err := board.ListApplications(jobID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s at %s\n\n", view.Job.Title, view.Job.Company)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tAPPLICATION\tAPPLICANT\tAPPLIED")
	for _, col := range view.Columns {
		if len(col.Applications) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\t-\n", col.Stage.Name)
			continue
		}
		for _, a := range col.Applications {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", col.Stage.Name, a.ID, a.ApplicantID, a.AppliedAt.Format("2006-01-02"))
		}
	}
	for _, a := range view.Unstaged {
		fmt.Fprintf(w, "(unstaged)\t%d\t%d\t%s\n", a.ID, a.ApplicantID, a.AppliedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func newJobCloseCmd() *cobra.Command {
	var (
		configPath string
		jobID      uint
	)

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Stop a job from accepting applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			board := &jobboard.Board{DB: gormDB}
			if err := board.CloseJob(jobID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed job %d\n", jobID)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&jobID, "job", 0, "job ID (required)")
	cmd.MarkFlagRequired("job")
	return cmd
}

func newApplyCmd() *cobra.Command {
	var (
		configPath string
		opts       jobboard.ApplyOpts
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Record an application to a job",
		Long:  "Records an application and places it at the first stage of the job's pipeline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, configPath, opts)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&opts.JobID, "job", 0, "job ID (required)")
	cmd.Flags().UintVar(&opts.ApplicantID, "applicant", 0, "applicant user ID (required)")
	cmd.Flags().StringVar(&opts.Note, "note", "", "cover note")
	cmd.Flags().StringVar(&opts.ResumePath, "resume", "", "path to the uploaded resume")
	cmd.MarkFlagRequired("job")
	cmd.MarkFlagRequired("applicant")
	return cmd
}

func runApply(cmd *cobra.Command, configPath string, opts jobboard.ApplyOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	board := &jobboard.Board{DB: gormDB}
	app, entry, err := board.Apply(opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created application %d\n", app.ID)
	if entry == nil {
		fmt.Fprintln(out, "Job has no stages yet; the application will be placed by the next backfill.")
		return nil
	}
	fmt.Fprintf(out, "Stage: %s\n", entry.CurrentStage.Name)
	return nil
}
