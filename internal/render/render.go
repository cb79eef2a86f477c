// Package render draws a calendar month for the terminal.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/engine"
	"github.com/tartampluch/go-miti/internal/holidays"
	"github.com/tartampluch/go-miti/internal/i18n"
)

const cellWidth = 7

var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}
	colorDanger    = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	colorSuccess   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	colorText      = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
)

// Options decorates the grid. Maps are keyed by BS date (YYYY-MM-DD).
type Options struct {
	Translator *i18n.Translator
	NoteCounts map[string]int
	Holidays   map[string]holidays.Holiday
	IsWeekend  func(time.Weekday) bool
	Selected   *bs.Date
	// Legend lists holidays and note counts of the month under the grid.
	Legend bool
}

// Month writes m to w.
func Month(w io.Writer, m engine.CalendarMonth, opts Options) error {
	_, err := io.WriteString(w, MonthString(m, opts))
	return err
}

// MonthString renders m.
func MonthString(m engine.CalendarMonth, opts Options) string {
	tr := opts.Translator
	if tr == nil {
		tr = i18n.New("")
	}
	var b strings.Builder

	first, last := adSpan(m)
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Padding(0, 1).
		Render(fmt.Sprintf("%s %s", tr.MonthName(m.Month), tr.Number(m.Year)))
	sub := lipgloss.NewStyle().
		Foreground(colorMuted).
		Render(fmt.Sprintf("  %s - %s", first.Format("Jan 2"), last.Format("Jan 2, 2006")))
	b.WriteString(header)
	b.WriteString(sub)
	b.WriteString("\n\n")

	headerStyle := lipgloss.NewStyle().Foreground(colorMuted).Width(cellWidth).Align(lipgloss.Center)
	weekendHeader := headerStyle.Foreground(colorDanger)
	for d := time.Sunday; d <= time.Saturday; d++ {
		style := headerStyle
		if opts.IsWeekend != nil && opts.IsWeekend(d) {
			style = weekendHeader
		}
		b.WriteString(style.Render(tr.WeekdayShort(d)))
	}
	b.WriteString("\n")

	for _, week := range m.Weeks() {
		var top, bottom strings.Builder
		for _, c := range week {
			t, btm := renderCell(c, tr, opts)
			top.WriteString(t)
			bottom.WriteString(btm)
		}
		b.WriteString(top.String())
		b.WriteString("\n")
		b.WriteString(bottom.String())
		b.WriteString("\n")
	}

	if opts.Legend {
		b.WriteString(legend(m, tr, opts))
	}
	return b.String()
}

func renderCell(c engine.DateCell, tr *i18n.Translator, opts Options) (string, string) {
	key := c.BS.String()
	dayStyle := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	subStyle := dayStyle.Foreground(colorMuted)

	content := tr.Number(c.BS.Day)
	if opts.NoteCounts[key] > 0 {
		content += lipgloss.NewStyle().Foreground(colorSuccess).Render("•")
	}

	_, holiday := opts.Holidays[key]
	weekend := opts.IsWeekend != nil && opts.IsWeekend(c.BS.Weekday)

	style := dayStyle.Foreground(colorText)
	switch {
	case opts.Selected != nil && opts.Selected.SameDay(c.BS):
		style = dayStyle.Background(colorPrimary).Foreground(colorText)
	case c.IsToday:
		style = dayStyle.Bold(true).Foreground(colorSecondary).Underline(true)
	case !c.IsCurrentMonth:
		style = dayStyle.Foreground(colorMuted)
	case holiday || weekend:
		style = dayStyle.Foreground(colorDanger)
	}
	return style.Render(content), subStyle.Render(strconv.Itoa(c.AD.Day))
}

func legend(m engine.CalendarMonth, tr *i18n.Translator, opts Options) string {
	var lines []string
	for _, c := range m.CurrentMonthCells() {
		key := c.BS.String()
		if h, ok := opts.Holidays[key]; ok {
			lines = append(lines, fmt.Sprintf("%s  %s", tr.Number(c.BS.Day), lipgloss.NewStyle().Foreground(colorDanger).Render(h.Name)))
		}
		if n := opts.NoteCounts[key]; n > 0 {
			lines = append(lines, fmt.Sprintf("%s  %s", tr.Number(c.BS.Day), tr.MsgCount(config.TKeyNoteCount, n)))
		}
	}
	if len(lines) == 0 {
		return ""
	}

	sep := lipgloss.NewStyle().Foreground(colorMuted).Render(strings.Repeat("─", cellWidth*7))
	return "\n" + sep + "\n" + strings.Join(lines, "\n") + "\n"
}

func adSpan(m engine.CalendarMonth) (time.Time, time.Time) {
	cells := m.CurrentMonthCells()
	if len(cells) == 0 {
		return time.Time{}, time.Time{}
	}
	return cells[0].AD.Time(), cells[len(cells)-1].AD.Time()
}
