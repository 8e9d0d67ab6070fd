package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"

	"fairrent/internal/utils"
)

// TerminalRenderer renders markdown with ANSI styling for the CLI
type TerminalRenderer struct {
	tr *glamour.TermRenderer
}

// NewTerminalRenderer creates a glamour renderer. An empty style picks one
// from the terminal background; "notty" produces plain text.
func NewTerminalRenderer(style string, width int) (*TerminalRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	return &TerminalRenderer{tr: tr}, nil
}

// Markdown implements Renderer
func (r *TerminalRenderer) Markdown(text string) (string, error) {
	out, err := r.tr.Render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// Literal implements Renderer. Control characters are dropped so user input
// cannot smuggle escape sequences into the terminal.
func (r *TerminalRenderer) Literal(text string) string {
	return utils.RemoveControlCharacters(text)
}
