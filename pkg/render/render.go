// Package render turns conversation state into styled terminal output. It
// is a pure consumer of the session store: no state, no mutation.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/satchelhq/satchel/pkg/chat"
)

// Formatter renders sessions, messages and parts for the terminal.
type Formatter struct {
	width int

	userStyle      lipgloss.Style
	assistantStyle lipgloss.Style
	reasoningStyle lipgloss.Style
	toolStyle      lipgloss.Style
	toolErrStyle   lipgloss.Style
	patchStyle     lipgloss.Style
	dimStyle       lipgloss.Style
	errorStyle     lipgloss.Style
	codeBlockStyle lipgloss.Style

	chromaFormatter chroma.Formatter
}

func NewFormatter(width int) *Formatter {
	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return &Formatter{
		width:           width,
		chromaFormatter: formatter,

		userStyle:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB000")),
		assistantStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF87")),
		reasoningStyle: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#888888")),
		toolStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF80FF")),
		toolErrStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6347")),
		patchStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		dimStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("#A9A9A9")),
		errorStyle:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6347")),

		codeBlockStyle: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1),
	}
}

// FormatSessionLine renders one session list entry.
func (f *Formatter) FormatSessionLine(s chat.Session) string {
	title := s.Title
	if title == "" {
		title = s.ID
	}

	status := ""
	if s.Status != nil {
		switch s.Status.Status {
		case chat.SessionActive:
			status = f.assistantStyle.Render(" [active]")
		case chat.SessionErrored:
			status = f.errorStyle.Render(" [error]")
		default:
			status = f.dimStyle.Render(" [" + s.Status.Status + "]")
		}
	}

	updated := time.UnixMilli(s.UpdatedAt).Format("2006-01-02 15:04")
	return fmt.Sprintf("%s  %s%s  %s", f.dimStyle.Render(s.ID), title, status, f.dimStyle.Render(updated))
}

// FormatMessage renders one conversation turn with all its parts.
func (f *Formatter) FormatMessage(m chat.Message) string {
	var b strings.Builder

	switch {
	case m.IsUser():
		header := "you"
		if m.IsOptimistic() {
			header += " (sending...)"
		}
		b.WriteString(f.userStyle.Render(header))
	case m.IsAssistant():
		header := "assistant"
		if m.Info.ModelID != "" {
			header += " (" + m.Info.ModelID + ")"
		}
		b.WriteString(f.assistantStyle.Render(header))
	default:
		b.WriteString(f.dimStyle.Render(m.Info.Role))
	}
	b.WriteString("\n")

	for _, part := range m.Parts {
		b.WriteString(f.formatPart(part))
	}

	if m.Info.Error != nil {
		b.WriteString(f.errorStyle.Render(fmt.Sprintf("%s: %s", m.Info.Error.Name, m.Info.Error.Message)))
		b.WriteString("\n")
	}

	return b.String()
}

func (f *Formatter) formatPart(part chat.Part) string {
	switch p := part.(type) {
	case *chat.TextPart:
		return f.formatText(p.Text) + "\n"
	case *chat.ReasoningPart:
		return f.reasoningStyle.Render(p.Text) + "\n"
	case *chat.ToolPart:
		return f.formatTool(p)
	case *chat.PatchPart:
		return f.formatPatch(p)
	default:
		return ""
	}
}

func (f *Formatter) formatTool(p *chat.ToolPart) string {
	var b strings.Builder
	switch p.State.Status {
	case chat.ToolPending:
		b.WriteString(f.toolStyle.Render(fmt.Sprintf("⏳ %s (pending)", p.Tool)))
	case chat.ToolRunning:
		b.WriteString(f.toolStyle.Render(fmt.Sprintf("⚙ %s (running)", p.Tool)))
	case chat.ToolCompleted:
		b.WriteString(f.toolStyle.Render(fmt.Sprintf("✓ %s", p.Tool)))
		if p.State.Output != "" {
			b.WriteString("\n")
			b.WriteString(f.dimStyle.Render(truncate(p.State.Output, 500)))
		}
	case chat.ToolError:
		b.WriteString(f.toolErrStyle.Render(fmt.Sprintf("✗ %s: %s", p.Tool, p.State.Error)))
	default:
		b.WriteString(f.toolStyle.Render(p.Tool))
	}
	b.WriteString("\n")
	return b.String()
}

func (f *Formatter) formatPatch(p *chat.PatchPart) string {
	var b strings.Builder
	b.WriteString(f.patchStyle.Render(fmt.Sprintf("patch %s", shortHash(p.Hash))))
	b.WriteString("\n")
	for _, file := range p.Files {
		b.WriteString(f.patchStyle.Render("  • " + file))
		b.WriteString("\n")
	}
	return b.String()
}

// formatText highlights fenced code blocks and leaves prose untouched.
func (f *Formatter) formatText(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}

	var b strings.Builder
	segments := strings.Split(text, "```")
	for i, segment := range segments {
		if i%2 == 0 {
			b.WriteString(segment)
			continue
		}
		language := ""
		code := segment
		if newline := strings.IndexByte(segment, '\n'); newline >= 0 {
			language = strings.TrimSpace(segment[:newline])
			code = segment[newline+1:]
		}
		b.WriteString("\n")
		b.WriteString(f.FormatCodeBlock(code, language))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCodeBlock applies syntax highlighting and boxing to code content.
func (f *Formatter) FormatCodeBlock(content, language string) string {
	if content == "" {
		return ""
	}

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	highlighted := content
	if iterator, err := lexer.Tokenise(nil, content); err == nil {
		var buf strings.Builder
		if err := f.chromaFormatter.Format(&buf, styles.Get("monokai"), iterator); err == nil {
			highlighted = buf.String()
		}
	}

	boxWidth := f.width - 4
	if boxWidth < 30 {
		boxWidth = 30
	}
	return f.codeBlockStyle.Width(boxWidth).Render(strings.TrimRight(highlighted, "\n"))
}

// FormatTyping renders the activity indicator shown while a turn is
// awaiting its first assistant traffic.
func (f *Formatter) FormatTyping() string {
	return f.dimStyle.Render("assistant is typing...")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
