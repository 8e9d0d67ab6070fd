package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fairrent/internal/model"
	"fairrent/internal/utils"
)

var (
	accent      = lipgloss.Color("#8BC34A")
	subtle      = lipgloss.Color("#6B7280")
	destructive = lipgloss.Color("#E53935")
	warning     = lipgloss.Color("#FFC107")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	mutedStyle   = lipgloss.NewStyle().Foreground(subtle)
	headingStyle = lipgloss.NewStyle().Bold(true)
	severedStyle = lipgloss.NewStyle().Bold(true).Foreground(destructive)
	promptStyle  = lipgloss.NewStyle().Foreground(accent)
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(warning)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 2).
			Width(32)
	winnerCardStyle = cardStyle.BorderForeground(accent)
)

func describe(q model.PropertyQuery) string {
	parts := []string{fmt.Sprintf("%d BHK", q.BedroomCount)}
	if q.Locality != "" {
		parts = append(parts, q.Locality+", "+q.City)
	} else {
		parts = append(parts, q.City)
	}
	parts = append(parts, fmt.Sprintf("%.0f sqft", model.NormalizeArea(q.AreaSqFt)))
	if q.Furnishing != "" {
		parts = append(parts, string(q.Furnishing))
	}
	return strings.Join(parts, " · ")
}

func renderEstimate(q model.PropertyQuery, view model.ValuationView) string {
	lines := []string{
		titleStyle.Render("Fair Rent Estimate"),
		mutedStyle.Render(describe(q)),
		"",
		headingStyle.Render(view.Headline + " / month"),
		view.Range,
	}
	if check := view.Asking; check != nil {
		lines = append(lines, "",
			fmt.Sprintf("Asking %s vs fair %s", utils.FormatINR(check.AskingRent), utils.FormatINR(check.FairRent)),
			bandStyle(check.Band).Render(check.Summary))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func bandStyle(band model.AskingBand) lipgloss.Style {
	switch band {
	case model.AskingFair:
		return titleStyle
	case model.AskingNegotiable:
		return warningStyle
	default:
		return severedStyle
	}
}

func renderCard(card model.ComparisonCard, q model.PropertyQuery) string {
	style := cardStyle
	title := "Property " + string(card.Side)
	if card.Highlighted {
		style = winnerCardStyle
		title += " ★"
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		headingStyle.Render(title),
		mutedStyle.Render(describe(q)),
		"",
		"Est. rent  "+card.EstimatedRent,
		"Rate       "+card.UnitPrice,
	))
}
