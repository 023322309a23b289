// Package dashboard renders a node's membership table as a styled
// terminal table, for the CLI's "watch" command.
package dashboard

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"swimcore"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	yellow = lipgloss.Color("214")
	red    = lipgloss.Color("204")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

// Status classifies a peer entry for display purposes; it mirrors the
// Alive/Suspected states a node tracks, plus Self for slot 0.
type Status string

const (
	StatusSelf      Status = "self"
	StatusAlive     Status = "alive"
	StatusSuspected Status = "suspected"
)

func statusOf(self swimcore.Address, e swimcore.MemberListEntry) Status {
	switch {
	case e.Address == self:
		return StatusSelf
	case e.Failed():
		return StatusSuspected
	default:
		return StatusAlive
	}
}

func statusStyle(s Status) lipgloss.Style {
	switch s {
	case StatusAlive:
		return lipgloss.NewStyle().Foreground(green)
	case StatusSuspected:
		return lipgloss.NewStyle().Foreground(yellow)
	case StatusSelf:
		return lipgloss.NewStyle().Foreground(purple).Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}

// Render draws entries (self's own membership table snapshot) as a
// rounded-border table: address, heartbeat, age in ticks, and status.
func Render(self swimcore.Address, now int32, entries []swimcore.MemberListEntry) string {
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, len(entries))
	for i, e := range entries {
		status := statusOf(self, e)
		rows[i] = []string{
			e.Address.String(),
			fmt.Sprintf("%d", e.Heartbeat),
			fmt.Sprintf("%d", e.Age(now)),
			statusStyle(status).Render(string(status)),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ADDRESS", "HEARTBEAT", "AGE", "STATUS").
		Rows(rows...)

	return t.String()
}

// Summary renders a single-line count of alive vs suspected peers,
// excluding self.
func Summary(self swimcore.Address, entries []swimcore.MemberListEntry) string {
	var alive, suspected int
	for _, e := range entries {
		if e.Address == self {
			continue
		}
		if e.Failed() {
			suspected++
		} else {
			alive++
		}
	}
	aliveStyle := lipgloss.NewStyle().Foreground(green)
	suspectedStyle := lipgloss.NewStyle().Foreground(red)
	return fmt.Sprintf("%s alive, %s suspected",
		aliveStyle.Render(fmt.Sprintf("%d", alive)),
		suspectedStyle.Render(fmt.Sprintf("%d", suspected)))
}
