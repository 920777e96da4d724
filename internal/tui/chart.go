package tui

import (
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/litera/internal/library"
)

// renderHistogram draws the read-days histogram as a bar chart, one bar per
// date. When there are more dates than fit, the most recent ones are kept.
func renderHistogram(hist []library.DayCount, width, height int) string {
	if len(hist) == 0 {
		return mutedStyle.Render("  No reading days recorded yet")
	}

	chartWidth := max(20, width-4)
	chartHeight := max(6, height)

	// Each bar needs its label width plus a gap.
	const barWidth = 6
	fit := max(1, chartWidth/barWidth)
	if len(hist) > fit {
		hist = hist[len(hist)-fit:]
	}

	chart := barchart.New(chartWidth, chartHeight)
	style := lipgloss.NewStyle().Foreground(colorPrimary)

	bars := make([]barchart.BarData, 0, len(hist))
	for _, d := range hist {
		bars = append(bars, barchart.BarData{
			Label: dayLabel(d.Day),
			Values: []barchart.BarValue{{
				Name:  d.Day,
				Value: float64(d.Count),
				Style: style,
			}},
		})
	}

	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

func dayLabel(day string) string {
	t, err := time.Parse(library.DayLayout, day)
	if err != nil {
		return truncate(day, 5)
	}
	return t.Format("01/02")
}

// histogramPeak describes the busiest reading day.
func histogramPeak(hist []library.DayCount) string {
	var best library.DayCount
	for _, d := range hist {
		if d.Count > best.Count {
			best = d
		}
	}
	if best.Count == 0 {
		return ""
	}
	return fmt.Sprintf("busiest day %s (%d books)", best.Day, best.Count)
}
