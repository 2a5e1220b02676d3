package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/khrees2412/prospector/pkg/models"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginTop(1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

var stageColors = map[models.Stage]lipgloss.Color{
	models.StageNotStarted: "8",
	models.StageApplied:    "12",
	models.StageInProgress: "11",
	models.StageOffer:      "10",
	models.StageRejected:   "9",
	models.StageNoAnswer:   "8",
}

func stageBadge(s models.Stage) string {
	return lipgloss.NewStyle().Bold(true).Foreground(stageColors[s]).Render(s.Label())
}

// matchBadge colors a match percentage: green from 75, yellow from 50, red below
func matchBadge(pct *float64) string {
	if pct == nil {
		return mutedStyle.Render("not ranked")
	}
	color := lipgloss.Color("9")
	switch {
	case *pct >= 75:
		color = "10"
	case *pct >= 50:
		color = "11"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("%.0f%%", *pct))
}

func printField(cmd *cobra.Command, label, value string) {
	if value == "" {
		return
	}
	cmd.Printf("%s %s\n", labelStyle.Render(label), valueStyle.Render(value))
}
