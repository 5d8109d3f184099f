package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/henrybloomingdale/get-papers-list/internal/affiliation"
	"github.com/henrybloomingdale/get-papers-list/internal/record"
)

func samplePapers() []record.PaperResult {
	return []record.PaperResult{
		{
			PMID:            "38000001",
			Title:           "Engineering IgG antibodies, and their targets",
			PublicationDate: "2024 Mar 5",
			Journal:         "J Antibody Res",
			DOI:             "10.1000/antibody.2024.1",
			Authors: []record.Author{
				{Name: "Robin Lee", NonAcademic: true, CompanyLabel: "Regeneron Pharmaceuticals"},
				{Name: "Sam Park", NonAcademic: true, CompanyLabel: "Regeneron Pharmaceuticals"},
			},
			CorrespondingEmail: "r.lee@regeneron.com",
		},
		{
			PMID:  "38000002",
			Title: "No email",
			Authors: []record.Author{
				{Name: "Jo Kim", NonAcademic: true, CompanyLabel: "Pfizer Inc."},
			},
		},
	}
}

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, samplePapers(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(record.Columns, ",") {
		t.Errorf("unexpected header %v", rows[0])
	}

	first := rows[1]
	if first[1] != "Engineering IgG antibodies, and their targets" {
		t.Errorf("title with comma not preserved: %q", first[1])
	}
	if first[3] != "Robin Lee; Sam Park" {
		t.Errorf("unexpected authors column %q", first[3])
	}
	if first[4] != "Regeneron Pharmaceuticals; Regeneron Pharmaceuticals" {
		t.Errorf("expected one company per author, got %q", first[4])
	}
	if rows[2][5] != "" {
		t.Errorf("absent email should be an empty field, got %q", rows[2][5])
	}
}

func TestAppendCSVFile_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	papers := samplePapers()

	if err := AppendCSVFile(path, papers[:1]); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := AppendCSVFile(path, papers[1:]); err != nil {
		t.Fatalf("second append: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected one header and two rows, got %d rows", len(rows))
	}
	if rows[0][0] != "PubMedID" || rows[1][0] != "38000001" || rows[2][0] != "38000002" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestAppendCSVFile_EmptyExistingFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AppendCSVFile(path, samplePapers()[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(body), "PubMedID,Title,") {
		t.Errorf("expected header row, got %q", string(body))
	}
}

func TestWritePapers_DefaultIsCSVOnStdout(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePapers(&buf, samplePapers(), Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "PubMedID,Title,PublicationDate,") {
		t.Errorf("expected CSV header on stdout, got %q", buf.String())
	}
}

func TestWritePapers_FileLeavesStdoutEmpty(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WritePapers(&buf, samplePapers(), Config{CSVFile: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing on stdout, got %q", buf.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected CSV file: %v", err)
	}
}

func TestWritePapers_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePapers(&buf, samplePapers(), Config{JSON: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\nOutput: %s", err, buf.String())
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(parsed))
	}
	if parsed[0]["pmid"] != "38000001" {
		t.Errorf("unexpected pmid %v", parsed[0]["pmid"])
	}
	if parsed[1]["corresponding_email"] != "" {
		t.Errorf("expected empty corresponding_email, got %v", parsed[1]["corresponding_email"])
	}
	authors, ok := parsed[0]["non_academic_authors"].([]any)
	if !ok || len(authors) != 2 {
		t.Errorf("expected 2 authors, got %v", parsed[0]["non_academic_authors"])
	}
}

func TestWritePapers_Human(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePapers(&buf, samplePapers(), Config{Human: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"38000001", "38000002", "Pfizer Inc."} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestWritePapers_HumanEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePapers(&buf, nil, Config{Human: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No papers") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFormatVerdict(t *testing.T) {
	v := affiliation.Verdict{
		Kind:    affiliation.NonAcademic,
		Signal:  affiliation.SignalCompanyKeyword,
		Keyword: "inc.",
		Label:   "Pfizer Inc.",
	}

	var plain bytes.Buffer
	if err := FormatVerdict(&plain, "Pfizer Inc., New York", v, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Verdict: non-academic", "Signal: company-keyword", "Company: Pfizer Inc."} {
		if !strings.Contains(plain.String(), want) {
			t.Errorf("expected %q in %q", want, plain.String())
		}
	}

	var human bytes.Buffer
	if err := FormatVerdict(&human, "Pfizer Inc., New York", v, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(human.String(), "Pfizer Inc.") {
		t.Errorf("expected company in human output, got %q", human.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("Universität Zürich", 6); got != "Unive…" {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
}
