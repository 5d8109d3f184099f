// Package output renders filtered paper results as CSV, JSON, a terminal
// table, or RIS.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/henrybloomingdale/get-papers-list/internal/record"
)

// Config controls which output mode(s) are active.
type Config struct {
	JSON    bool   // Structured JSON on stdout
	Human   bool   // Rich terminal table
	CSVFile string // Write CSV to this path instead of stdout
	RISFile string // Export results to this RIS path (works alongside any mode)
}

// WritePapers writes papers to w, or to the configured files.
// CSV goes to stdout unless CSVFile is set; JSON and Human replace the
// stdout rendering.
func WritePapers(w io.Writer, papers []record.PaperResult, cfg Config) error {
	if cfg.RISFile != "" {
		if err := WriteRISFile(cfg.RISFile, papers); err != nil {
			return fmt.Errorf("RIS export failed: %w", err)
		}
	}
	if cfg.CSVFile != "" {
		if err := AppendCSVFile(cfg.CSVFile, papers); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}

	switch {
	case cfg.JSON:
		return writeJSON(w, papers)
	case cfg.Human:
		return formatPapersHuman(w, papers)
	case cfg.CSVFile == "":
		return WriteCSV(w, papers, true)
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	return writeJSON(w, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
