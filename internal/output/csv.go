package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/henrybloomingdale/get-papers-list/internal/record"
)

// WriteCSV writes papers as CSV rows in record.Columns order.
func WriteCSV(w io.Writer, papers []record.PaperResult, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(record.Columns); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
	}
	for _, p := range papers {
		if err := cw.Write(p.Row()); err != nil {
			return fmt.Errorf("writing CSV row for PMID %s: %w", p.PMID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendCSVFile appends papers to the CSV file at path. The header row is
// written only when the file is new or empty.
func AppendCSVFile(path string, papers []record.PaperResult) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening CSV file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat CSV file: %w", err)
	}

	if err := WriteCSV(f, papers, info.Size() == 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
