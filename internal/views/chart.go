package views

import (
	"fmt"
	"strings"
)

const EmptyChartText = "No energy data yet. Complete and audit tasks!"

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// RenderSparkline plots levels in 0..100, oldest left. Only the last width
// points are shown.
func RenderSparkline(levels []int, width int) string {
	if len(levels) == 0 {
		return ""
	}
	if width > 0 && len(levels) > width {
		levels = levels[len(levels)-width:]
	}
	var b strings.Builder
	for _, level := range levels {
		if level < 0 {
			level = 0
		}
		if level > 100 {
			level = 100
		}
		b.WriteRune(sparkBlocks[level*(len(sparkBlocks)-1)/100])
	}
	return b.String()
}

type DashboardPanelData struct {
	Email         string
	SessionStreak int
	DailyStreak   int
	Levels        []int
	Average       int
	Width         int
}

func RenderDashboardPanel(data DashboardPanelData) string {
	var b strings.Builder
	b.WriteString("dashboard:\n")
	if data.Email != "" {
		b.WriteString(fmt.Sprintf("signed in as %s\n", data.Email))
	}
	b.WriteString(fmt.Sprintf("\nstreak: %d audit(s) this session\n", data.SessionStreak))
	b.WriteString(fmt.Sprintf("daily streak: %s\n", pluralDays(data.DailyStreak)))
	b.WriteString("\nenergy trend:\n")
	if len(data.Levels) == 0 {
		b.WriteString(mutedStyle.Render(EmptyChartText))
		return b.String()
	}
	b.WriteString(RenderSparkline(data.Levels, data.Width) + "\n")
	b.WriteString(fmt.Sprintf("%d log(s), average %d", len(data.Levels), data.Average))
	return b.String()
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
