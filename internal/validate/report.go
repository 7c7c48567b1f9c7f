package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

var rule = strings.Repeat("=", 70)

// WriteText prints the plain banner layout.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s\n", r.Database)
	fmt.Fprintf(&b, "Primary user: %s\n", r.PrimaryUser)
	fmt.Fprintf(&b, "Run: %s\n\n", r.RunID)
	fmt.Fprintf(&b, "%s\nVALIDATION RESULTS\n%s\n", rule, rule)
	for _, res := range r.Results {
		mark, status := "+", "PASS"
		if !res.Passed {
			mark, status = "-", "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s: %s\n", mark, status, res.Name)
		for _, line := range strings.Split(res.Detail, "\n") {
			if line != "" {
				fmt.Fprintf(&b, "       %s\n", line)
			}
		}
	}
	fmt.Fprintf(&b, "%s\n  %d passed, %d failed, %d total\n%s\n",
		rule, r.Passed, r.Failed, len(r.Results), rule)
	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Validation results\n\n")
	fmt.Fprintf(&b, "- **Database:** `%s`\n", r.Database)
	fmt.Fprintf(&b, "- **Primary user:** `%s`\n", r.PrimaryUser)
	fmt.Fprintf(&b, "- **Run:** `%s`\n\n", r.RunID)
	b.WriteString("| | Check | Detail |\n|---|---|---|\n")
	for _, res := range r.Results {
		status := "✅"
		if !res.Passed {
			status = "❌"
		}
		detail := strings.ReplaceAll(res.Detail, "|", "\\|")
		detail = strings.ReplaceAll(detail, "\n", "<br>")
		fmt.Fprintf(&b, "| %s | %s | %s |\n", status, res.Name, detail)
	}
	fmt.Fprintf(&b, "\n**%d passed, %d failed, %d total**\n", r.Passed, r.Failed, len(r.Results))
	return b.String()
}

// WritePretty renders Markdown for the terminal. An empty style uses
// glamour's auto-detected style.
func (r *Report) WritePretty(w io.Writer, style string) error {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(80)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(r.Markdown())
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
