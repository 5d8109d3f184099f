package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/henrybloomingdale/get-papers-list/internal/record"
)

// WriteRISFile exports papers to RIS format for citation managers.
func WriteRISFile(path string, papers []record.PaperResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating RIS file: %w", err)
	}
	if err := WriteRIS(f, papers); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteRIS writes one RIS record per paper. Only the non-academic authors
// are listed; their distinct company labels go into AD tags.
func WriteRIS(out io.Writer, papers []record.PaperResult) error {
	w := bufio.NewWriter(out)
	for i, p := range papers {
		writeRISTag(w, "TY", "JOUR")
		writeRISTag(w, "TI", p.Title)

		for _, a := range p.Authors {
			writeRISTag(w, "AU", a.Name)
		}
		for _, c := range p.DistinctCompanies() {
			writeRISTag(w, "AD", c)
		}

		writeRISTag(w, "DA", p.PublicationDate)
		writeRISTag(w, "PY", risYear(p.PublicationDate))
		writeRISTag(w, "JO", p.Journal)
		writeRISTag(w, "DO", p.DOI)
		if p.PMID != "" {
			writeRISTag(w, "ID", "PMID:"+p.PMID)
			writeRISTag(w, "UR", "https://pubmed.ncbi.nlm.nih.gov/"+p.PMID+"/")
		}
		if p.CorrespondingEmail != "" {
			writeRISTag(w, "N1", "Corresponding email: "+p.CorrespondingEmail)
		}
		writeRISTag(w, "ER", "")

		if i < len(papers)-1 {
			if _, err := w.WriteString("\n"); err != nil {
				return fmt.Errorf("writing RIS separator: %w", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing RIS output: %w", err)
	}
	return nil
}

func writeRISTag(w *bufio.Writer, tag, value string) {
	if tag == "" {
		return
	}
	if tag == "ER" {
		_, _ = w.WriteString("ER  -\n")
		return
	}
	if strings.TrimSpace(value) == "" {
		return
	}
	_, _ = w.WriteString(tag + "  - " + sanitizeRISValue(value) + "\n")
}

func sanitizeRISValue(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.TrimSpace(v)
}

// risYear returns the leading four-digit year of a PubMed date.
func risYear(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return date[:4]
}
