package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Affected paths or errors (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning, in yellow when out is a terminal
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	for i, item := range w.Items {
		fmt.Fprintf(&b, "      %d. %s\n", i+1, item)
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion: ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	paint(ColorEnabled(out), color.FgYellow).Fprint(out, b.String())
}

// TraversalWarning lists directories that were skipped because they could not be listed
func TraversalWarning(errs []error) Warning {
	items := make([]string, 0, len(errs))
	for _, err := range errs {
		items = append(items, err.Error())
	}
	return Warning{
		Title:      "Some directories could not be read and were skipped",
		Items:      items,
		Suggestion: "Check the directory permissions or add them to blacklist_dirs",
	}
}
