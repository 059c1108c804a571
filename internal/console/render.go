package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrSnakeDoc/logbook/internal/aggregate"
	"github.com/MrSnakeDoc/logbook/internal/domain"
)

// Styles used by the renderer.
type Styles struct {
	Title   lipgloss.Style
	Day     lipgloss.Style
	Time    lipgloss.Style
	ID      lipgloss.Style
	Text    lipgloss.Style
	JSON    lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
}

// DefaultStyles is a Dracula-like palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color("#bd93f9")).Bold(true),
		Day:     lipgloss.NewStyle().Foreground(lipgloss.Color("#8be9fd")).Bold(true).Underline(true),
		Time:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")),
		ID:      lipgloss.NewStyle().Foreground(lipgloss.Color("#44475a")),
		Text:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f8f8f2")),
		JSON:    lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")).Italic(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#f1fa8c")),
		Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
	}
}

// Renderer turns a merged view into terminal text.
type Renderer struct {
	Styles     Styles
	TimeFormat string
	MaxPerDay  int
	Location   *time.Location
}

// NewRenderer builds a renderer from the settings file.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{
		Styles:     DefaultStyles(),
		TimeFormat: cfg.TimeFormat,
		MaxPerDay:  cfg.MaxPerDay,
		Location:   time.Local,
	}
}

// Screen is everything shown in one frame.
type Screen struct {
	Project string
	Search  string
	Loading bool
	Err     error
	Buckets aggregate.Buckets
}

// Render draws a full frame.
func (r *Renderer) Render(s Screen) string {
	var b strings.Builder

	title := fmt.Sprintf("logbook · %s", s.Project)
	b.WriteString(r.Styles.Title.Render(title))
	if q := strings.TrimSpace(s.Search); q != "" {
		b.WriteString(r.Styles.Muted.Render(fmt.Sprintf("  search: %q", q)))
	}
	b.WriteString("\n")

	if s.Err != nil {
		b.WriteString(r.Styles.Danger.Render("⚠ " + s.Err.Error()))
		b.WriteString("\n")
	}

	switch {
	case s.Loading:
		b.WriteString(r.Styles.Muted.Render("loading…"))
		b.WriteString("\n")
	case len(s.Buckets) == 0:
		b.WriteString(r.Styles.Muted.Render("no entries"))
		b.WriteString("\n")
	}

	for _, bucket := range s.Buckets {
		b.WriteString("\n")
		b.WriteString(r.Styles.Day.Render(bucket.Day))
		b.WriteString(r.Styles.Muted.Render(fmt.Sprintf(" (%d)", len(bucket.Entries))))
		b.WriteString("\n")

		for i, entry := range bucket.Entries {
			if r.MaxPerDay > 0 && i >= r.MaxPerDay {
				hidden := len(bucket.Entries) - r.MaxPerDay
				b.WriteString(r.Styles.Warning.Render(fmt.Sprintf("  … %d more", hidden)))
				b.WriteString("\n")
				break
			}
			b.WriteString(r.RenderEntry(entry))
		}
	}
	return b.String()
}

// RenderEntry draws one entry: a header line, then each content item.
// Structured items are pretty-printed.
func (r *Renderer) RenderEntry(e *domain.Entry) string {
	var b strings.Builder

	ts := e.CreatedAt
	if r.Location != nil {
		ts = ts.In(r.Location)
	}
	layout := r.TimeFormat
	if layout == "" {
		layout = defaultTimeFormat
	}

	b.WriteString("  ")
	b.WriteString(r.Styles.Time.Render(ts.Format(layout)))
	b.WriteString(" ")
	b.WriteString(r.Styles.ID.Render(shortID(e.ID)))
	b.WriteString("\n")

	for _, item := range e.Content {
		if _, ok := item.Structured(); ok {
			b.WriteString(indent(r.Styles.JSON.Render(prettyJSON(item.Content)), "    "))
		} else {
			b.WriteString(indent(r.Styles.Text.Render(item.Content), "    "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func prettyJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
