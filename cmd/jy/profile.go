package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/jobyard/internal/match"
	"github.com/zulandar/jobyard/internal/profile"
	"go.uber.org/zap"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Candidate profile commands",
	}

	cmd.AddCommand(newProfileSetCmd())
	return cmd
}

func newProfileSetCmd() *cobra.Command {
	var (
		configPath string
		userID     uint
		values     struct {
			userType, email, bio, skills, projects, city, privacy string
		}
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update a candidate profile",
		Long: `Creates or updates a profile and recomputes the candidate's matches
against every saved search. Only the flags given are changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u profile.Update
			flags := cmd.Flags()
			set := func(name string, v *string) *string {
				if flags.Changed(name) {
					return v
				}
				return nil
			}
			u.UserType = set("type", &values.userType)
			u.Email = set("email", &values.email)
			u.Bio = set("bio", &values.bio)
			u.Skills = set("skills", &values.skills)
			u.Projects = set("projects", &values.projects)
			u.City = set("city", &values.city)
			u.Privacy = set("privacy", &values.privacy)
			return runProfileSet(cmd, configPath, userID, u)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().UintVar(&userID, "user", 0, "user ID (required)")
	cmd.Flags().StringVar(&values.userType, "type", "", "user type on creation (user, recruiter)")
	cmd.Flags().StringVar(&values.email, "email", "", "contact email")
	cmd.Flags().StringVar(&values.bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&values.skills, "skills", "", "comma-separated skills")
	cmd.Flags().StringVar(&values.projects, "projects", "", "comma-separated projects")
	cmd.Flags().StringVar(&values.city, "city", "", "city; empty clears it")
	cmd.Flags().StringVar(&values.privacy, "privacy", "", "public or private")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runProfileSet(cmd *cobra.Command, configPath string, userID uint, u profile.Update) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	notifier, cleanup, err := buildNotifier(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	res, err := profile.Save(ctx, gormDB, userID, u, buildGeocoder(cfg))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verb := "Updated"
	if res.Created {
		verb = "Created"
	}
	fmt.Fprintf(out, "%s profile for user %d (%s)\n", verb, userID, res.Profile.Privacy)
	if res.GeocodeErr != nil {
		fmt.Fprintf(out, "Warning: could not geocode city: %v\n", res.GeocodeErr)
	}

	engine := &match.Engine{DB: gormDB, Notifier: notifier}
	result, err := engine.RecomputeForCandidate(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Matches: %d searches (%d new)\n", len(result.Matched), len(result.New))
	return nil
}
