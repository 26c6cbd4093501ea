package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

var (
	priorityColors = map[model.Priority]lipgloss.Color{
		model.PriorityHigh:   lipgloss.Color("#EF4444"),
		model.PriorityMedium: lipgloss.Color("#F59E0B"),
		model.PriorityLow:    lipgloss.Color("#10B981"),
	}

	tierStyles = map[model.Tier]lipgloss.Style{
		model.TierCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
		model.TierUrgent:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		model.TierNormal:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}

	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	doneStyle   = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	statsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// renderView печатает список в порядке срочности и строку статистики
func renderView(v model.View) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Tasks (%s)", v.Focus)))
	b.WriteString("\n")

	if len(v.Tasks) == 0 {
		b.WriteString("  nothing to show\n")
	}
	for _, t := range v.Tasks {
		b.WriteString(renderRow(t))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statsStyle.Render(fmt.Sprintf("Completed today: %d | Pending: %d | Overdue: %d",
		v.Stats.CompletedToday, v.Stats.PendingTasks, v.Stats.OverdueCount)))
	b.WriteString("\n")
	return b.String()
}

func renderRow(t model.RankedTask) string {
	check := "[ ]"
	if t.IsCompleted {
		check = "[x]"
	}

	prio := lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render(fmt.Sprintf("%-6s", t.Priority))
	title := t.Title
	label := tierStyles[t.Tier].Render(t.Label)
	if t.IsCompleted {
		title = doneStyle.Render(title)
		label = doneStyle.Render(t.Label)
	}

	return fmt.Sprintf("  %s %s %s  %s", check, prio, title, label)
}
