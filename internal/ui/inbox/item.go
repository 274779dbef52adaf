package inbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/theme"
)

// EmailItem wraps a model.Email and its category labels so it can be used
// in a bubbles/list.
type EmailItem struct {
	Email      model.Email
	Categories []string
	TaskCount  int
	Processed  bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i EmailItem) FilterValue() string {
	return i.Email.Subject + " " + i.Email.Sender
}

// Title returns the subject for the list.
func (i EmailItem) Title() string {
	if i.Email.Subject == "" {
		return "(no subject)"
	}
	return i.Email.Subject
}

// Description returns a short summary line for the list.
func (i EmailItem) Description() string {
	parts := []string{i.Email.Sender, relativeTime(i.Email.Timestamp)}
	if len(i.Categories) > 0 {
		parts = append(parts, strings.Join(i.Categories, ", "))
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering inbox rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single inbox row: a processed marker, the category
// badges, the subject, the sender and the age.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(EmailItem)
	if !ok {
		return
	}

	marker := "○"
	if ei.Processed {
		marker = "●"
	}

	var badges []string
	for _, c := range ei.Categories {
		badges = append(badges, theme.CategoryStyle(c).Render(c))
	}
	badge := strings.Join(badges, "")
	if badge != "" {
		badge += " "
	}

	taskCount := ""
	if ei.TaskCount > 0 {
		taskCount = lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Render(fmt.Sprintf(" [%d todo]", ei.TaskCount))
	}

	sender := theme.DimmedStyle.Render(" " + ei.Email.Sender)
	age := theme.DimmedStyle.Render("  " + relativeTime(ei.Email.Timestamp))

	line := fmt.Sprintf(
		"%s %s%s%s%s%s",
		marker, badge, ei.Title(), taskCount, sender, age,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// timestampLayouts are the timestamp formats seen in stored emails.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
}

// parseTimestamp reads an email timestamp, reporting false for formats it
// does not know.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// relativeTime returns a human-friendly relative time string, or the raw
// timestamp when it cannot be parsed.
func relativeTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		return ts
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 02, 2006")
	}
}
