package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/dona/pkg/controller"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Placeholder is shown in an empty, inactive input.
const Placeholder = "Write a new task"

// StarMarker prefixes starred tasks.
const StarMarker = "★"

// Renderer draws the task screen for one theme.
type Renderer struct {
	theme   domain.Theme
	palette Palette
	profile termenv.Profile
	rich    bool
	md      *glamour.TermRenderer
}

// Option configures the Renderer.
type Option func(*Renderer)

// WithProfile overrides the detected terminal color profile.
func WithProfile(p termenv.Profile) Option {
	return func(r *Renderer) {
		r.profile = p
	}
}

// WithPlain disables styled markdown output (for pipes and tests).
func WithPlain() Option {
	return func(r *Renderer) {
		r.rich = false
	}
}

// NewRenderer creates a renderer. ThemeAuto is resolved against the terminal.
func NewRenderer(theme domain.Theme, opts ...Option) (*Renderer, error) {
	resolved := ResolveTheme(theme)
	r := &Renderer{
		theme:   resolved,
		palette: PaletteFor(resolved),
		profile: termenv.ColorProfile(),
		rich:    true,
	}
	for _, opt := range opts {
		opt(r)
	}

	style := string(resolved)
	if !r.rich {
		style = "notty"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

// Theme returns the resolved theme (never ThemeAuto).
func (r *Renderer) Theme() domain.Theme {
	return r.theme
}

// RenderList renders the numbered task list.
func (r *Renderer) RenderList(tasks []domain.Task) (string, error) {
	return r.md.Render(Markdown(tasks))
}

// Markdown builds the markdown document for a task list, numbered from 1.
func Markdown(tasks []domain.Task) string {
	var b strings.Builder
	b.WriteString("# " + ScreenTitle + "\n\n")
	if len(tasks) == 0 {
		b.WriteString("_Nothing to do yet._\n")
		return b.String()
	}
	for i, task := range tasks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, taskLine(task))
	}
	return b.String()
}

func taskLine(task domain.Task) string {
	check := "[ ]"
	title := escapeMarkdown(task.Title)
	if task.IsCompleted {
		check = "[x]"
		title = "~~" + title + "~~"
	}
	if task.IsStarred {
		title = StarMarker + " " + title
	}
	return check + " " + title
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Prompt renders the input line for the current draft.
func (r *Renderer) Prompt(state controller.DraftState) string {
	var b strings.Builder

	star := "☆"
	if state.DraftIsStarred {
		star = StarMarker
	}
	b.WriteString(r.profile.String(star).Foreground(r.profile.Color(r.palette.Star)).String())
	b.WriteString(" ")

	if state.Editing() {
		b.WriteString(r.profile.String("edit").Foreground(r.profile.Color(r.palette.Accent)).String())
		b.WriteString(" ")
	}

	switch {
	case state.DraftTitle != "":
		b.WriteString(state.DraftTitle)
		b.WriteString(" ")
	case !state.IsInputActive:
		b.WriteString(r.profile.String(Placeholder).Foreground(r.profile.Color(r.palette.Muted)).Faint().String())
		b.WriteString(" ")
	}

	b.WriteString(r.profile.String(">").Foreground(r.profile.Color(r.palette.Accent)).String())
	b.WriteString(" ")
	return b.String()
}

// Error renders an error line in the theme's error color.
func (r *Renderer) Error(msg string) string {
	return r.profile.String(msg).Foreground(r.profile.Color(r.palette.Error)).String()
}
