package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/henrybloomingdale/get-papers-list/internal/affiliation"
	"github.com/henrybloomingdale/get-papers-list/internal/record"
)

// --- Styles ---

var (
	cyan       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bold       = lipgloss.NewStyle().Bold(true)
	dim        = lipgloss.NewStyle().Faint(true)
	green      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellow     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	magenta    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
)

// truncate cuts a string to maxLen runes, appending "…" if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Headers(headers...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return labelStyle
			}
			return lipgloss.NewStyle()
		})
}

// --- Papers ---

func formatPapersHuman(w io.Writer, papers []record.PaperResult) error {
	if len(papers) == 0 {
		fmt.Fprintln(w, "🔬 No papers with non-academic authors.")
		return nil
	}

	fmt.Fprintln(w, bold.Render(fmt.Sprintf("🔬 %d papers with non-academic authors", len(papers))))
	fmt.Fprintln(w)

	var rows [][]string
	for _, p := range papers {
		rows = append(rows, []string{
			cyan.Render(p.PMID),
			bold.Render(truncate(p.Title, 50)),
			p.PublicationDate,
			truncate(strings.Join(p.AuthorNames(), record.ListSeparator), 30),
			yellow.Render(truncate(strings.Join(p.DistinctCompanies(), record.ListSeparator), 30)),
			p.CorrespondingEmail,
		})
	}

	t := newTable("PMID", "Title", "Date", "Authors", "Companies", "Email").Rows(rows...)
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
	fmt.Fprintln(w, dim.Render("💾 Use -f results.csv to export"))
	return nil
}

// --- Single verdict ---

// FormatVerdict writes the classification of one affiliation string.
func FormatVerdict(w io.Writer, affiliationText string, v affiliation.Verdict, human bool) error {
	if !human {
		fmt.Fprintf(w, "Affiliation: %s\n", affiliationText)
		fmt.Fprintf(w, "Verdict: %s\n", v.Kind)
		fmt.Fprintf(w, "Signal: %s\n", v.Signal)
		if v.Keyword != "" {
			fmt.Fprintf(w, "Keyword: %s\n", v.Keyword)
		}
		if v.Domain != "" {
			fmt.Fprintf(w, "Domain: %s\n", v.Domain)
		}
		if v.Label != "" {
			fmt.Fprintf(w, "Company: %s\n", v.Label)
		}
		if v.Ambiguous {
			fmt.Fprintln(w, "Ambiguous: yes")
		}
		return nil
	}

	kind := v.Kind.String()
	switch v.Kind {
	case affiliation.NonAcademic:
		kind = magenta.Render(kind)
	case affiliation.Academic:
		kind = green.Render(kind)
	default:
		kind = dim.Render(kind)
	}

	fmt.Fprintf(w, "🏷️  %s\n\n", bold.Render(affiliationText))
	fmt.Fprintf(w, "  %s %s %s\n", labelStyle.Render("Verdict:"), kind, dim.Render("("+v.Signal.String()+")"))
	if v.Keyword != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Keyword:"), v.Keyword)
	}
	if v.Domain != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Domain:"), cyan.Render(v.Domain))
	}
	if v.Label != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Company:"), yellow.Render(v.Label))
	}
	if v.Ambiguous {
		fmt.Fprintf(w, "  %s\n", dim.Render("academic and commercial signals both present"))
	}
	return nil
}
