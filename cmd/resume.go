package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/khrees2412/prospector/pkg/models"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Manage resumes",
	Long:  "Add, list and activate resumes. The active resume is used to score job leads.",
}

var addResumeCmd = &cobra.Command{
	Use:   "add <file-path>",
	Short: "Add a plain-text or Markdown resume",
	Args:  cobra.ExactArgs(1),
	Example: `  prospector resume add ~/Documents/resume.md
  prospector resume add ./platform-resume.txt --inactive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		inactive, _ := cmd.Flags().GetBool("inactive")

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read resume: %w", err)
		}

		resume := &models.Resume{
			Content:  string(content),
			Filename: models.StringPtr(filepath.Base(args[0])),
		}
		registry := newServices(a).Resumes
		if inactive {
			err = registry.Create(cmd.Context(), resume)
		} else {
			err = registry.CreateAsActive(cmd.Context(), resume)
		}
		if err != nil {
			return fmt.Errorf("save resume: %w", err)
		}

		cmd.Printf("✓ Resume added: %s (ID: %d)\n", models.Deref(resume.Filename), resume.ID)
		if resume.IsActive {
			cmd.Println("  Set as active resume")
		}
		return nil
	},
}

var listResumesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all resumes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		resumes, err := newServices(a).Resumes.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch resumes: %w", err)
		}

		if len(resumes) == 0 {
			cmd.Println("No resumes found. Add a resume with 'prospector resume add <file>'")
			return nil
		}

		cmd.Println(titleStyle.Render("Your Resumes"))
		for i, r := range resumes {
			marker := ""
			if r.IsActive {
				marker = " [ACTIVE]"
			}
			name := models.Deref(r.Filename)
			if name == "" {
				name = "(unnamed)"
			}
			cmd.Printf("\n%d. %s%s\n", i+1, name, marker)
			cmd.Printf("   %s %d\n", labelStyle.Render("ID:"), r.ID)
			cmd.Printf("   %s %d characters\n", labelStyle.Render("Size:"), len([]rune(r.Content)))
			cmd.Printf("   %s %s\n", labelStyle.Render("Added:"), r.CreatedAt.Format("Jan 2, 2006"))
		}
		return nil
	},
}

var activateResumeCmd = &cobra.Command{
	Use:   "activate <resume-id>",
	Short: "Make a resume the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "resume")
		if err != nil {
			return err
		}
		if _, err := newServices(a).Resumes.SetActive(cmd.Context(), id); err != nil {
			return fmt.Errorf("activate resume: %w", err)
		}
		cmd.Printf("✓ Resume %d is now active\n", id)
		return nil
	},
}

var activeResumeCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the active resume",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		r, err := newServices(a).Resumes.GetActive(cmd.Context())
		if err != nil {
			return fmt.Errorf("%w. Add one with 'prospector resume add <file>'", err)
		}

		cmd.Println(titleStyle.Render("Active Resume"))
		printField(cmd, "ID:", fmt.Sprintf("%d", r.ID))
		printField(cmd, "File:", models.Deref(r.Filename))
		printField(cmd, "Added:", r.CreatedAt.Format("Jan 2, 2006"))
		cmd.Printf("\n%s\n", r.Content)
		return nil
	},
}

var updateResumeCmd = &cobra.Command{
	Use:   "update <resume-id>",
	Short: "Replace a resume's content or change whether it is active",
	Args:  cobra.ExactArgs(1),
	Example: `  prospector resume update 2 --file ~/Documents/resume-v2.md
  prospector resume update 2 --active`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "resume")
		if err != nil {
			return err
		}

		var upd models.ResumeUpdate
		flags := cmd.Flags()
		if flags.Changed("file") {
			path, _ := flags.GetString("file")
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read resume: %w", err)
			}
			text, name := string(content), filepath.Base(path)
			upd.Content, upd.Filename = &text, &name
		}
		if flags.Changed("active") {
			v, _ := flags.GetBool("active")
			upd.IsActive = &v
		}

		r, err := newServices(a).Resumes.Update(cmd.Context(), id, upd)
		if err != nil {
			return fmt.Errorf("update resume: %w", err)
		}
		cmd.Printf("✓ Resume %d updated\n", r.ID)
		if r.IsActive {
			cmd.Println("  Active resume")
		}
		return nil
	},
}

var removeResumeCmd = &cobra.Command{
	Use:   "remove <resume-id>",
	Short: "Delete a resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "resume")
		if err != nil {
			return err
		}
		if err := newServices(a).Resumes.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("remove resume: %w", err)
		}
		cmd.Printf("✓ Resume %d removed\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.AddCommand(addResumeCmd)
	resumeCmd.AddCommand(listResumesCmd)
	resumeCmd.AddCommand(activateResumeCmd)
	resumeCmd.AddCommand(activeResumeCmd)
	resumeCmd.AddCommand(updateResumeCmd)
	resumeCmd.AddCommand(removeResumeCmd)

	addResumeCmd.Flags().Bool("inactive", false, "Store the resume without making it active")

	updateResumeCmd.Flags().String("file", "", "Replace the content with this file")
	updateResumeCmd.Flags().Bool("active", false, "Make this the active resume (--active=false deactivates it)")
}
