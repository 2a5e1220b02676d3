package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/khrees2412/prospector/internal/api"
	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/pkg/models"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Review open leads interactively",
	Long:  "Browse open job leads best match first, analyze them and promote the ones worth applying to",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		b := &leadBrowser{
			svc:      newServices(a),
			hasModel: a.Config.LLM.APIKey != "",
			in:       bufio.NewReader(cmd.InOrStdin()),
			cmd:      cmd,
		}
		return b.run(cmd.Context())
	},
}

type leadBrowser struct {
	svc      api.Services
	hasModel bool
	in       *bufio.Reader
	cmd      *cobra.Command
}

func (b *leadBrowser) prompt() (string, bool) {
	b.cmd.Print("\n> ")
	line, err := b.in.ReadString('\n')
	if err == io.EOF && line == "" {
		return "", false
	}
	return strings.TrimSpace(strings.ToLower(line)), true
}

func (b *leadBrowser) run(ctx context.Context) error {
	open := false
	for {
		leads, err := b.svc.Ranker.Leads(ctx, database.LeadListOptions{SortByMatch: true, Promoted: &open})
		if err != nil {
			return fmt.Errorf("fetch leads: %w", err)
		}
		if len(leads) == 0 {
			b.cmd.Println("No open leads. Add one with 'prospector lead add --url URL'")
			return nil
		}

		b.cmd.Println(titleStyle.Render("Lead Browser"))
		b.cmd.Println("Press 'q' to quit, or enter a lead number to view details")
		b.cmd.Println()
		for i, l := range leads {
			b.cmd.Printf("%d. %s  %s\n", i+1, leadTitle(l), matchBadge(l.MatchPercentage))
		}

		input, ok := b.prompt()
		if !ok || input == "q" {
			return nil
		}
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(leads) {
			b.cmd.Println("Invalid selection")
			continue
		}
		if err := b.details(ctx, leads[n-1]); err != nil {
			return err
		}
	}
}

func (b *leadBrowser) details(ctx context.Context, lead *models.JobLead) error {
	for {
		b.cmd.Println("\n" + strings.Repeat("=", 60))
		b.cmd.Println(titleStyle.Render(leadTitle(lead)))
		printField(b.cmd, "URL:", models.Deref(lead.URL))
		b.cmd.Printf("%s %s\n", labelStyle.Render("Match:"), matchBadge(lead.MatchPercentage))
		if lead.MatchReasoning != nil {
			b.cmd.Printf("\n%s\n", *lead.MatchReasoning)
		}

		b.cmd.Println("\nOptions:")
		if b.hasModel {
			b.cmd.Println("  [a] Analyze against the active resume")
		}
		b.cmd.Println("  [p] Promote to application")
		b.cmd.Println("  [s] Show the full posting")
		b.cmd.Println("  [b] Back to list")

		choice, ok := b.prompt()
		if !ok {
			return nil
		}
		switch choice {
		case "a":
			if !b.hasModel {
				b.cmd.Println("Invalid choice")
				continue
			}
			b.cmd.Println("Analyzing match...")
			ranked, err := b.svc.Ranker.Rank(ctx, lead.ID, nil)
			if err != nil {
				b.cmd.Printf("Error: %v\n", err)
				continue
			}
			lead = ranked
		case "p":
			res, err := b.svc.Promotion.Promote(ctx, lead.ID)
			if err != nil {
				b.cmd.Printf("Error: %v\n", err)
				continue
			}
			b.cmd.Printf("✓ Application %d created\n", res.Application.ID)
			return nil
		case "s":
			b.cmd.Printf("\n%s\n", lead.JobPosting)
		case "b":
			return nil
		default:
			b.cmd.Println("Invalid choice")
		}
	}
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
