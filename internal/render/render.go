// Package render turns conversation text into display markup. Assistant
// text is treated as markdown; user text is always shown literally.
package render

// Renderer produces display markup for one surface (HTML page, terminal)
type Renderer interface {
	// Markdown renders trusted assistant markdown into safe display markup
	Markdown(text string) (string, error)
	// Literal shows user-authored text as-is, never interpreting markup
	Literal(text string) string
}
