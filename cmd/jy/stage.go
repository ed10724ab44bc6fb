package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/jobyard/internal/stage"
)

func newStageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Pipeline stage commands",
	}

	cmd.AddCommand(newStageListCmd())
	cmd.AddCommand(newStageAddCmd())
	cmd.AddCommand(newStageDefaultsCmd())
	return cmd
}

func newStageListCmd() *cobra.Command {
	var (
		configPath string
		jobID      uint
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a job's stages in pipeline order",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			stages, err := stage.List(gormDB, jobID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(stages) == 0 {
				fmt.Fprintln(out, "No stages configured.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tORDER\tNAME\tCOLOR")
			for _, s := range stages {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", s.ID, s.Order, s.Name, s.Color)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&jobID, "job", 0, "job ID (required)")
	cmd.MarkFlagRequired("job")
	return cmd
}

func newStageAddCmd() *cobra.Command {
	var (
		configPath string
		opts       stage.CreateOpts
		order      int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a stage to a job",
		Long:  "Adds a stage. Without --order the stage is appended after the last one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("order") {
				opts.Order = &order
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			s, err := stage.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created stage %d: %s (order %d)\n", s.ID, s.Name, s.Order)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&opts.JobID, "job", 0, "job ID (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "stage name (required)")
	cmd.Flags().IntVar(&order, "order", 0, "position in the pipeline")
	cmd.Flags().StringVar(&opts.Color, "color", "", "display color, e.g. #3b82f6")
	cmd.MarkFlagRequired("job")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newStageDefaultsCmd() *cobra.Command {
	var (
		configPath string
		jobID      uint
	)

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Create the default stages a job is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			created, err := stage.CreateDefaults(gormDB, jobID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d default stages\n", len(created))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&jobID, "job", 0, "job ID (required)")
	cmd.MarkFlagRequired("job")
	return cmd
}
