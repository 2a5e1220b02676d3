package cmd

import (
	"fmt"

	"github.com/khrees2412/prospector/pkg/models"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View lead and application statistics",
	Long:  "Display how many leads were captured and ranked, and how your applications are spread across stages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		svc := newServices(a)
		ctx := cmd.Context()

		leads, err := svc.Ranker.LeadStats(ctx)
		if err != nil {
			return fmt.Errorf("fetch lead stats: %w", err)
		}
		counts, err := svc.Tracker.StageCounts(ctx)
		if err != nil {
			return fmt.Errorf("fetch stage counts: %w", err)
		}

		cmd.Println(titleStyle.Render("Job Search Statistics"))

		cmd.Printf("%s\n", labelStyle.Render("Leads"))
		cmd.Printf("  Total: %d\n", leads.Total)
		cmd.Printf("  Ranked: %d\n", leads.Ranked)
		cmd.Printf("  Promoted: %d\n", leads.Promoted)
		if leads.AverageMatch != nil {
			cmd.Printf("  Average Match: %s\n", matchBadge(leads.AverageMatch))
		}

		total := 0
		for _, n := range counts {
			total += n
		}
		cmd.Printf("\n%s\n", labelStyle.Render("Applications"))
		cmd.Printf("  Total: %d\n", total)
		if total == 0 {
			return nil
		}
		for _, st := range models.Stages {
			n := counts[st]
			cmd.Printf("  %s: %d (%.1f%%)\n", stageBadge(st), n, float64(n)/float64(total)*100)
		}

		// Anything past not_started counts as sent.
		sent := total - counts[models.StageNotStarted]
		if sent > 0 {
			responded := counts[models.StageInProgress] + counts[models.StageOffer] + counts[models.StageRejected]
			cmd.Printf("\n%s\n", labelStyle.Render("Response Rate"))
			cmd.Printf("  Response Rate: %.1f%%\n", float64(responded)/float64(sent)*100)
			if counts[models.StageOffer] > 0 {
				cmd.Printf("  Offer Rate: %.1f%%\n", float64(counts[models.StageOffer])/float64(sent)*100)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
