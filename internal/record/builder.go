package record

import (
	"strings"

	"github.com/henrybloomingdale/get-papers-list/internal/affiliation"
)

// Builder classifies authors and assembles paper results.
// It is stateless apart from its classifier and safe for concurrent use.
type Builder struct {
	classifier *affiliation.Classifier
}

// NewBuilder creates a Builder around c.
func NewBuilder(c *affiliation.Classifier) *Builder {
	return &Builder{classifier: c}
}

// BuildAuthor classifies one author. The structured email is used when it is
// a well-formed address; otherwise the affiliation text is scanned for one.
func (b *Builder) BuildAuthor(raw RawAuthor) Author {
	emails := b.classifier.Emails()

	email := strings.TrimSpace(raw.Email)
	if !emails.Valid(email) {
		email = emails.Extract(raw.Affiliation)
	}

	v := b.classifier.ClassifyWithEmail(raw.Affiliation, email)
	a := Author{
		Name:        raw.Name,
		Affiliation: raw.Affiliation,
		NonAcademic: v.NonAcademic(),
		Email:       email,
		Verdict:     v,
	}
	if a.NonAcademic {
		a.CompanyLabel = v.Label
	}
	return a
}

// BuildPaper classifies every author of raw and returns the paper result.
// The second return value is false when no author is non-academic, in which
// case the paper is dropped.
func (b *Builder) BuildPaper(raw RawPaper) (PaperResult, bool) {
	if len(raw.Authors) == 0 {
		return PaperResult{}, false
	}

	var qualifying, others []Author
	for _, ra := range raw.Authors {
		a := b.BuildAuthor(ra)
		if a.NonAcademic {
			qualifying = append(qualifying, a)
		} else {
			others = append(others, a)
		}
	}
	if len(qualifying) == 0 {
		return PaperResult{}, false
	}

	return PaperResult{
		PMID:               raw.PMID,
		Title:              raw.Title,
		PublicationDate:    raw.PublicationDate,
		Journal:            raw.Journal,
		DOI:                raw.DOI,
		Authors:            qualifying,
		CorrespondingEmail: firstEmail(qualifying, others),
	}, true
}

// BuildPapers runs BuildPaper over raws and keeps the results in input order.
func (b *Builder) BuildPapers(raws []RawPaper) []PaperResult {
	var out []PaperResult
	for _, raw := range raws {
		if p, ok := b.BuildPaper(raw); ok {
			out = append(out, p)
		}
	}
	return out
}

func firstEmail(groups ...[]Author) string {
	for _, g := range groups {
		for _, a := range g {
			if a.Email != "" {
				return a.Email
			}
		}
	}
	return ""
}
