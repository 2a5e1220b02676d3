package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/internal/ranking"
	"github.com/khrees2412/prospector/pkg/models"
	"github.com/spf13/cobra"
)

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Manage job leads",
	Long:  "Capture job postings as leads, score them against your active resume and promote them to applications",
}

var addLeadCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a job lead",
	Example: `  prospector lead add --url https://boards.greenhouse.io/acme/jobs/123
  prospector lead add --file posting.txt --company "Acme Inc" --role "Backend Engineer"
  prospector lead add --posting "We are hiring..." --no-rank`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		svc := newServices(a)

		url, _ := cmd.Flags().GetString("url")
		file, _ := cmd.Flags().GetString("file")
		posting, _ := cmd.Flags().GetString("posting")
		company, _ := cmd.Flags().GetString("company")
		role, _ := cmd.Flags().GetString("role")
		noRank, _ := cmd.Flags().GetBool("no-rank")

		if file != "" {
			b, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read posting: %w", err)
			}
			posting = string(b)
		}

		if strings.TrimSpace(posting) == "" && url != "" {
			cmd.Printf("Fetching job posting from %s...\n", url)
			p, err := svc.Fetcher.Fetch(ctx, url)
			if err != nil {
				return fmt.Errorf("fetch posting: %w", err)
			}
			posting = p.Content
			if company == "" {
				company = p.CompanyName
			}
			if role == "" {
				role = p.RoleName
			}
		}
		if strings.TrimSpace(posting) == "" {
			return fmt.Errorf("one of --posting, --file or --url is required")
		}

		lead := &models.JobLead{
			JobPosting:  posting,
			CompanyName: models.StringPtr(company),
			RoleName:    models.StringPtr(role),
			URL:         models.StringPtr(url),
		}
		out, err := svc.Ranker.CreateLead(ctx, lead, svc.RankOnCreate && !noRank)
		if err != nil {
			return fmt.Errorf("save lead: %w", err)
		}

		cmd.Printf("✓ Lead added: %s (ID: %d)\n", leadTitle(out.Lead), out.Lead.ID)
		switch out.RankStatus {
		case ranking.RankCreated:
			cmd.Printf("  Match: %s\n", matchBadge(out.Lead.MatchPercentage))
		case ranking.RankFailed:
			cmd.Printf("  Ranking failed: %v\n", out.RankErr)
			cmd.Printf("  Retry with 'prospector lead analyze %d'\n", out.Lead.ID)
		}
		return nil
	},
}

var listLeadsCmd = &cobra.Command{
	Use:   "list",
	Short: "List job leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		sortBy, _ := cmd.Flags().GetString("sort")
		promoted, _ := cmd.Flags().GetBool("promoted")
		open, _ := cmd.Flags().GetBool("open")
		limit, _ := cmd.Flags().GetInt("limit")

		if sortBy != "match" && sortBy != "newest" {
			return fmt.Errorf("invalid --sort %q (valid: match, newest)", sortBy)
		}
		opts := database.LeadListOptions{SortByMatch: sortBy == "match", Limit: limit}
		switch {
		case promoted && open:
			return fmt.Errorf("--promoted and --open are mutually exclusive")
		case promoted:
			opts.Promoted = &promoted
		case open:
			f := false
			opts.Promoted = &f
		}

		leads, err := newServices(a).Ranker.Leads(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("fetch leads: %w", err)
		}
		if len(leads) == 0 {
			cmd.Println("No leads found. Add one with 'prospector lead add --url URL'")
			return nil
		}

		cmd.Println(titleStyle.Render("Job Leads"))
		for _, l := range leads {
			marker := ""
			if l.IsPromoted {
				marker = mutedStyle.Render(fmt.Sprintf(" [promoted → application %d]", derefID(l.PromotedToApplicationID)))
			}
			cmd.Printf("\n%s %s%s\n", labelStyle.Render(fmt.Sprintf("#%d", l.ID)), leadTitle(l), marker)
			cmd.Printf("   %s %s\n", labelStyle.Render("Match:"), matchBadge(l.MatchPercentage))
			if l.URL != nil {
				cmd.Printf("   %s %s\n", labelStyle.Render("URL:"), *l.URL)
			}
			cmd.Printf("   %s %s\n", labelStyle.Render("Added:"), l.CreatedAt.Format("Jan 2, 2006"))
		}
		return nil
	},
}

var showLeadCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show a job lead with its match analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "lead")
		if err != nil {
			return err
		}
		l, err := newServices(a).Ranker.Lead(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("fetch lead: %w", err)
		}

		cmd.Println(titleStyle.Render(leadTitle(l)))
		printField(cmd, "ID:", fmt.Sprintf("%d", l.ID))
		printField(cmd, "Company:", models.Deref(l.CompanyName))
		printField(cmd, "Role:", models.Deref(l.RoleName))
		printField(cmd, "URL:", models.Deref(l.URL))
		cmd.Printf("%s %s\n", labelStyle.Render("Match:"), matchBadge(l.MatchPercentage))
		if l.IsPromoted {
			printField(cmd, "Promoted to application:", fmt.Sprintf("%d", derefID(l.PromotedToApplicationID)))
		}
		if l.MatchReasoning != nil {
			cmd.Printf("\n%s\n%s\n", labelStyle.Render("Reasoning"), *l.MatchReasoning)
		}
		cmd.Printf("\n%s\n%s\n", labelStyle.Render("Posting"), l.JobPosting)
		return nil
	},
}

var updateLeadCmd = &cobra.Command{
	Use:   "update <lead-id>",
	Short: "Edit a lead's company, role, URL or posting",
	Args:  cobra.ExactArgs(1),
	Example: `  prospector lead update 4 --company "Acme Inc" --role "Staff Engineer"
  prospector lead update 4 --file posting.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "lead")
		if err != nil {
			return err
		}

		var upd models.LeadUpdate
		flags := cmd.Flags()
		if flags.Changed("company") {
			v, _ := flags.GetString("company")
			upd.CompanyName = &v
		}
		if flags.Changed("role") {
			v, _ := flags.GetString("role")
			upd.RoleName = &v
		}
		if flags.Changed("url") {
			v, _ := flags.GetString("url")
			upd.URL = &v
		}
		if flags.Changed("file") {
			path, _ := flags.GetString("file")
			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read posting: %w", err)
			}
			posting := string(b)
			upd.JobPosting = &posting
		}

		l, err := newServices(a).Ranker.UpdateLead(cmd.Context(), id, upd)
		if err != nil {
			return fmt.Errorf("update lead: %w", err)
		}
		cmd.Printf("✓ Lead %d updated: %s\n", l.ID, leadTitle(l))
		if upd.JobPosting != nil && l.MatchPercentage == nil {
			cmd.Printf("  Posting changed, re-score with 'prospector lead analyze %d'\n", l.ID)
		}
		return nil
	},
}

var analyzeLeadCmd = &cobra.Command{
	Use:   "analyze <lead-id>",
	Short: "Score a lead against the active resume (or --resume)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		if err := requireAPIKey(a); err != nil {
			return err
		}
		id, err := parseID(args[0], "lead")
		if err != nil {
			return err
		}
		var resumeID *int64
		if v, _ := cmd.Flags().GetInt64("resume"); v > 0 {
			resumeID = &v
		}

		cmd.Println("Analyzing match...")
		l, err := newServices(a).Ranker.Rank(cmd.Context(), id, resumeID)
		if err != nil {
			return fmt.Errorf("analyze lead: %w", err)
		}

		cmd.Printf("✓ %s: %s\n", leadTitle(l), matchBadge(l.MatchPercentage))
		cmd.Printf("\n%s\n", models.Deref(l.MatchReasoning))
		return nil
	},
}

var promoteLeadCmd = &cobra.Command{
	Use:   "promote <lead-id>",
	Short: "Turn a lead into a tracked application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "lead")
		if err != nil {
			return err
		}

		res, err := newServices(a).Promotion.Promote(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("promote lead: %w", err)
		}

		app := res.Application
		cmd.Printf("✓ Lead %d promoted to application %d: %s at %s\n", id, app.ID, app.RoleName, app.CompanyName)
		if res.ExtractionFailed {
			cmd.Println("  Field extraction failed; the application uses the lead's own details")
		}
		return nil
	},
}

var rankBatchCmd = &cobra.Command{
	Use:   "rank-batch [lead-id...]",
	Short: "Score several leads at once (all open leads when no IDs are given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		if err := requireAPIKey(a); err != nil {
			return err
		}
		svc := newServices(a)

		var ids []int64
		for _, arg := range args {
			id, err := parseID(arg, "lead")
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			open := false
			leads, err := svc.Ranker.Leads(cmd.Context(), database.LeadListOptions{Promoted: &open, Limit: 500})
			if err != nil {
				return fmt.Errorf("fetch leads: %w", err)
			}
			for _, l := range leads {
				ids = append(ids, l.ID)
			}
		}
		if len(ids) == 0 {
			cmd.Println("No open leads to rank")
			return nil
		}

		cmd.Printf("Ranking %d leads...\n", len(ids))
		results, err := svc.Ranker.RankBatch(cmd.Context(), ids)
		if err != nil {
			return fmt.Errorf("rank leads: %w", err)
		}

		cmd.Println(titleStyle.Render("Ranking Results"))
		for _, r := range results {
			switch r.Status {
			case ranking.BatchSuccess:
				cmd.Printf("  ✓ #%d %s\n", r.LeadID, matchBadge(r.MatchPercentage))
			case ranking.BatchNotFound:
				cmd.Printf("  ✗ #%d not found\n", r.LeadID)
			default:
				cmd.Printf("  ✗ #%d %s\n", r.LeadID, r.Error)
			}
		}
		return nil
	},
}

var removeLeadCmd = &cobra.Command{
	Use:   "remove <lead-id>",
	Short: "Delete a job lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "lead")
		if err != nil {
			return err
		}
		if err := newServices(a).Ranker.DeleteLead(cmd.Context(), id); err != nil {
			return fmt.Errorf("remove lead: %w", err)
		}
		cmd.Printf("✓ Lead %d removed\n", id)
		return nil
	},
}

func leadTitle(l *models.JobLead) string {
	role, company := models.Deref(l.RoleName), models.Deref(l.CompanyName)
	switch {
	case role != "" && company != "":
		return role + " at " + company
	case role != "":
		return role
	case company != "":
		return company
	}
	return fmt.Sprintf("Lead %d", l.ID)
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func init() {
	rootCmd.AddCommand(leadCmd)
	leadCmd.AddCommand(addLeadCmd)
	leadCmd.AddCommand(listLeadsCmd)
	leadCmd.AddCommand(showLeadCmd)
	leadCmd.AddCommand(updateLeadCmd)
	leadCmd.AddCommand(analyzeLeadCmd)
	leadCmd.AddCommand(promoteLeadCmd)
	leadCmd.AddCommand(rankBatchCmd)
	leadCmd.AddCommand(removeLeadCmd)

	addLeadCmd.Flags().String("url", "", "Job posting URL (fetched when no text is given)")
	addLeadCmd.Flags().String("file", "", "Read the posting text from a file")
	addLeadCmd.Flags().String("posting", "", "Posting text")
	addLeadCmd.Flags().String("company", "", "Company name")
	addLeadCmd.Flags().String("role", "", "Role name")
	addLeadCmd.Flags().Bool("no-rank", false, "Do not score the lead against the active resume")

	listLeadsCmd.Flags().String("sort", "newest", "Sort order: match or newest")
	listLeadsCmd.Flags().Bool("promoted", false, "Only promoted leads")
	listLeadsCmd.Flags().Bool("open", false, "Only leads that have not been promoted")
	listLeadsCmd.Flags().Int("limit", 50, "Maximum number of leads")

	updateLeadCmd.Flags().String("company", "", "Company name")
	updateLeadCmd.Flags().String("role", "", "Role name")
	updateLeadCmd.Flags().String("url", "", "Job posting URL")
	updateLeadCmd.Flags().String("file", "", "Replace the posting text with the contents of a file")

	analyzeLeadCmd.Flags().Int64("resume", 0, "Resume ID to score against (default: active resume)")
}
