package cmd

import (
	"fmt"
	"os"

	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/pkg/models"
	"github.com/spf13/cobra"
)

var applicationCmd = &cobra.Command{
	Use:     "application",
	Aliases: []string{"app"},
	Short:   "Track job applications",
	Long:    "Create applications, move them through stages and review their stage history",
}

var addApplicationCmd = &cobra.Command{
	Use:   "add",
	Short: "Track a new application",
	Example: `  prospector application add --company "Acme Inc" --role "Backend Engineer"
  prospector application add --company Globex --role SRE --stage applied --job-ad-file ad.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		company, _ := cmd.Flags().GetString("company")
		role, _ := cmd.Flags().GetString("role")
		stageFlag, _ := cmd.Flags().GetString("stage")
		notes, _ := cmd.Flags().GetString("notes")
		adFile, _ := cmd.Flags().GetString("job-ad-file")

		stage, err := models.ParseStage(stageFlag)
		if err != nil {
			return err
		}
		application := &models.JobApplication{
			CompanyName: company,
			RoleName:    role,
			Stage:       stage,
			Notes:       models.StringPtr(notes),
		}
		if adFile != "" {
			b, err := os.ReadFile(adFile)
			if err != nil {
				return fmt.Errorf("read job ad: %w", err)
			}
			application.JobAd = models.StringPtr(string(b))
		}

		if err := newServices(a).Tracker.Create(cmd.Context(), application); err != nil {
			return fmt.Errorf("save application: %w", err)
		}
		cmd.Printf("✓ Application added: %s at %s (ID: %d)\n", application.RoleName, application.CompanyName, application.ID)
		cmd.Printf("  Stage: %s\n", stageBadge(application.Stage))
		return nil
	},
}

var listApplicationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		stageFlag, _ := cmd.Flags().GetString("stage")
		limit, _ := cmd.Flags().GetInt("limit")

		opts := database.ApplicationListOptions{Limit: limit}
		if stageFlag != "" {
			st, err := models.ParseStage(stageFlag)
			if err != nil {
				return err
			}
			opts.Stage = &st
		}

		apps, err := newServices(a).Tracker.List(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("fetch applications: %w", err)
		}
		if len(apps) == 0 {
			cmd.Println("No applications found. Promote a lead with 'prospector lead promote <id>'")
			return nil
		}

		cmd.Println(titleStyle.Render("Applications"))
		for _, app := range apps {
			cmd.Printf("\n%s %s at %s\n", labelStyle.Render(fmt.Sprintf("#%d", app.ID)), app.RoleName, app.CompanyName)
			cmd.Printf("   %s %s %s\n", labelStyle.Render("Stage:"), stageBadge(app.Stage),
				mutedStyle.Render("since "+app.StageDate.Format("Jan 2, 2006")))
			if app.MatchPercentage != nil {
				cmd.Printf("   %s %s\n", labelStyle.Render("Match:"), matchBadge(app.MatchPercentage))
			}
		}
		return nil
	},
}

var showApplicationCmd = &cobra.Command{
	Use:   "show <application-id>",
	Short: "Show an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "application")
		if err != nil {
			return err
		}
		app, err := newServices(a).Tracker.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("fetch application: %w", err)
		}

		cmd.Println(titleStyle.Render(app.RoleName + " at " + app.CompanyName))
		printField(cmd, "ID:", fmt.Sprintf("%d", app.ID))
		cmd.Printf("%s %s\n", labelStyle.Render("Stage:"), stageBadge(app.Stage))
		printField(cmd, "Stage Date:", app.StageDate.Format("Jan 2, 2006 15:04"))
		if app.MatchPercentage != nil {
			cmd.Printf("%s %s\n", labelStyle.Render("Match:"), matchBadge(app.MatchPercentage))
		}
		printField(cmd, "Notes:", models.Deref(app.Notes))
		for k, v := range app.AdditionalInfo {
			if k == "extracted_content" {
				continue
			}
			printField(cmd, k+":", fmt.Sprint(v))
		}
		if app.MatchReasoning != nil {
			cmd.Printf("\n%s\n%s\n", labelStyle.Render("Match Reasoning"), *app.MatchReasoning)
		}
		if app.CoverLetter != nil {
			cmd.Printf("\n%s\n%s\n", labelStyle.Render("Cover Letter"), *app.CoverLetter)
		}
		if app.JobAd != nil {
			cmd.Printf("\n%s\n%s\n", labelStyle.Render("Job Ad"), *app.JobAd)
		}
		return nil
	},
}

var updateApplicationCmd = &cobra.Command{
	Use:   "update <application-id>",
	Short: "Change an application's stage or details",
	Args:  cobra.ExactArgs(1),
	Example: `  prospector application update 3 --stage in_progress
  prospector application update 3 --notes "Onsite on Friday" --cover-letter-file letter.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "application")
		if err != nil {
			return err
		}

		var upd models.ApplicationUpdate
		flags := cmd.Flags()
		if flags.Changed("stage") {
			v, _ := flags.GetString("stage")
			st, err := models.ParseStage(v)
			if err != nil {
				return err
			}
			upd.Stage = &st
		}
		if flags.Changed("company") {
			v, _ := flags.GetString("company")
			upd.CompanyName = &v
		}
		if flags.Changed("role") {
			v, _ := flags.GetString("role")
			upd.RoleName = &v
		}
		if flags.Changed("notes") {
			v, _ := flags.GetString("notes")
			upd.Notes = &v
		}
		if flags.Changed("cover-letter-file") {
			path, _ := flags.GetString("cover-letter-file")
			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read cover letter: %w", err)
			}
			letter := string(b)
			upd.CoverLetter = &letter
		}

		app, err := newServices(a).Tracker.Update(cmd.Context(), id, upd)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		cmd.Printf("✓ Application %d updated\n", app.ID)
		cmd.Printf("  Stage: %s\n", stageBadge(app.Stage))
		return nil
	},
}

var historyApplicationCmd = &cobra.Command{
	Use:   "history <application-id>",
	Short: "Show the stage history of an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "application")
		if err != nil {
			return err
		}
		entries, err := newServices(a).Tracker.History(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}

		cmd.Println(titleStyle.Render(fmt.Sprintf("Stage History: Application %d", id)))
		for _, e := range entries {
			from := mutedStyle.Render("created")
			if e.PreviousStage != nil {
				from = stageBadge(*e.PreviousStage)
			}
			cmd.Printf("  %s  %s → %s\n", e.ChangedAt.Local().Format("Jan 2, 2006 15:04"), from, stageBadge(e.NewStage))
		}
		return nil
	},
}

var removeApplicationCmd = &cobra.Command{
	Use:   "remove <application-id>",
	Short: "Delete an application and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "application")
		if err != nil {
			return err
		}
		if err := newServices(a).Tracker.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("remove application: %w", err)
		}
		cmd.Printf("✓ Application %d removed\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applicationCmd)
	applicationCmd.AddCommand(addApplicationCmd)
	applicationCmd.AddCommand(listApplicationsCmd)
	applicationCmd.AddCommand(showApplicationCmd)
	applicationCmd.AddCommand(updateApplicationCmd)
	applicationCmd.AddCommand(historyApplicationCmd)
	applicationCmd.AddCommand(removeApplicationCmd)

	addApplicationCmd.Flags().String("company", "", "Company name (required)")
	addApplicationCmd.Flags().String("role", "", "Role name (required)")
	addApplicationCmd.Flags().String("stage", models.StageNotStarted.String(), "Initial stage")
	addApplicationCmd.Flags().String("notes", "", "Notes")
	addApplicationCmd.Flags().String("job-ad-file", "", "Read the job ad from a file")
	_ = addApplicationCmd.MarkFlagRequired("company")
	_ = addApplicationCmd.MarkFlagRequired("role")

	listApplicationsCmd.Flags().String("stage", "", "Only applications in this stage")
	listApplicationsCmd.Flags().Int("limit", 100, "Maximum number of applications")

	updateApplicationCmd.Flags().String("stage", "", "New stage")
	updateApplicationCmd.Flags().String("company", "", "Company name")
	updateApplicationCmd.Flags().String("role", "", "Role name")
	updateApplicationCmd.Flags().String("notes", "", "Notes")
	updateApplicationCmd.Flags().String("cover-letter-file", "", "Read the cover letter from a file")
}
