package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/rounds"
)

var columns = []struct {
	title string
	width int
}{
	{"#", 3},
	{"Round", 24},
	{"Players", 8},
	{"Pos", 5},
	{"Result", 10},
	{"Kudos", 6},
	{"Time", 7},
}

func (m Model) render() string {
	sections := []string{
		m.renderHeader(),
		m.renderRounds(),
	}
	if len(m.lastShow) > 0 && !m.inShow {
		sections = append(sections, mutedStyle.Render("Last show"), renderTable(m.lastShow))
	}
	if m.lastError != "" {
		sections = append(sections, errorStyle.Render("! "+m.lastError))
	}
	sections = append(sections, mutedStyle.Render("q quit • c clear error"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	state := "In menus"
	switch {
	case m.inShow:
		state = "In show"
	case m.ended:
		state = "Show complete"
	}

	parts := []string{titleStyle.Render(m.title), state}
	if m.ping > 0 {
		parts = append(parts, fmt.Sprintf("ping %dms", m.ping))
	}
	if !m.sessionDate.IsZero() {
		parts = append(parts, "session "+m.sessionDate.Format("2006-01-02"))
	}
	parts = append(parts, fmt.Sprintf("shows %d", m.showsSeen), crownStyle.Render(fmt.Sprintf("crowns %d", m.crowns)))
	return strings.Join(parts, mutedStyle.Render(" │ "))
}

func (m Model) renderRounds() string {
	if len(m.current) == 0 {
		return boxStyle.Render(mutedStyle.Render("Waiting for a round to load..."))
	}
	return boxStyle.Render(renderTable(m.current))
}

func renderTable(list []rounds.RoundInfo) string {
	lines := make([]string, 0, len(list)+1)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = headerCellStyle.Render(pad(c.title, c.width))
	}
	lines = append(lines, strings.Join(header, " "))

	for _, r := range list {
		lines = append(lines, renderRow(r))
	}
	return strings.Join(lines, "\n")
}

func renderRow(r rounds.RoundInfo) string {
	position := "-"
	if r.Position != nil {
		position = strconv.Itoa(*r.Position)
	}

	cells := []string{
		cellStyle.Render(pad(strconv.Itoa(r.Round), columns[0].width)),
		cellStyle.Render(pad(r.Name, columns[1].width)),
		cellStyle.Render(pad(strconv.Itoa(r.Players), columns[2].width)),
		cellStyle.Render(pad(position, columns[3].width)),
		result(r),
		cellStyle.Render(pad(strconv.Itoa(r.Kudos), columns[5].width)),
		cellStyle.Render(pad(roundTime(r), columns[6].width)),
	}
	return strings.Join(cells, " ")
}

func result(r rounds.RoundInfo) string {
	width := columns[4].width
	switch {
	case r.Crown:
		return crownStyle.Render(pad("CROWN", width))
	case r.Playing:
		return cellStyle.Render(pad("playing", width))
	case r.Qualified:
		return qualifiedStyle.Render(pad("qualified", width))
	case !r.End.IsZero() && !r.ShowEnd.IsZero():
		return eliminatedStyle.Render(pad("out", width))
	default:
		return mutedStyle.Render(pad("-", width))
	}
}

// roundTime is the local player's finish time, or the round length when they did not finish.
func roundTime(r rounds.RoundInfo) string {
	end := r.End
	if r.Finish != nil {
		end = *r.Finish
	}
	if r.Start.IsZero() || end.IsZero() || end.Before(r.Start) {
		return "-"
	}
	d := end.Sub(r.Start).Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		if width <= 1 {
			return string(runes[:width])
		}
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(runes))
}
