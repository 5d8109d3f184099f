// Package record turns raw paper metadata into the filtered output records.
package record

import (
	"strings"

	"github.com/henrybloomingdale/get-papers-list/internal/affiliation"
)

// ListSeparator joins multi-valued output columns.
const ListSeparator = "; "

// Columns is the output column order. Downstream CSV consumers depend on it.
var Columns = []string{
	"PubMedID",
	"Title",
	"PublicationDate",
	"NonAcademicAuthor(s)",
	"CompanyAffiliation(s)",
	"CorrespondingAuthorEmail",
}

// RawAuthor is one author as delivered by the fetch layer.
type RawAuthor struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	Email       string `json:"email,omitempty"`
}

// RawPaper is one paper as delivered by the fetch layer.
// A nil Authors slice means the record had no author list.
type RawPaper struct {
	PMID            string      `json:"pmid"`
	Title           string      `json:"title"`
	PublicationDate string      `json:"publication_date"`
	Journal         string      `json:"journal,omitempty"`
	DOI             string      `json:"doi,omitempty"`
	Authors         []RawAuthor `json:"authors"`
}

// Author is a classified author.
type Author struct {
	Name         string              `json:"name"`
	Affiliation  string              `json:"affiliation,omitempty"`
	NonAcademic  bool                `json:"non_academic"`
	CompanyLabel string              `json:"company,omitempty"`
	Email        string              `json:"email,omitempty"`
	Verdict      affiliation.Verdict `json:"verdict"`
}

// PaperResult is a paper with at least one non-academic author.
type PaperResult struct {
	PMID               string   `json:"pmid"`
	Title              string   `json:"title"`
	PublicationDate    string   `json:"publication_date"`
	Journal            string   `json:"journal,omitempty"`
	DOI                string   `json:"doi,omitempty"`
	Authors            []Author `json:"non_academic_authors"`
	CorrespondingEmail string   `json:"corresponding_email"`
}

// AuthorNames returns the qualifying author names in order.
func (p PaperResult) AuthorNames() []string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		names[i] = a.Name
	}
	return names
}

// Companies returns one company label per qualifying author, in author
// order, so that it lines up with AuthorNames.
func (p PaperResult) Companies() []string {
	out := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		out[i] = a.CompanyLabel
	}
	return out
}

// DistinctCompanies returns the non-empty company labels with duplicates
// removed, in order of first appearance.
func (p PaperResult) DistinctCompanies() []string {
	seen := make(map[string]bool, len(p.Authors))
	var out []string
	for _, a := range p.Authors {
		if a.CompanyLabel == "" || seen[a.CompanyLabel] {
			continue
		}
		seen[a.CompanyLabel] = true
		out = append(out, a.CompanyLabel)
	}
	return out
}

// Row returns the paper's fields in Columns order.
func (p PaperResult) Row() []string {
	return []string{
		p.PMID,
		p.Title,
		p.PublicationDate,
		strings.Join(p.AuthorNames(), ListSeparator),
		strings.Join(p.Companies(), ListSeparator),
		p.CorrespondingEmail,
	}
}
