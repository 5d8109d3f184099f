package affiliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClassifier() *Classifier {
	return NewClassifier(DefaultLexicon())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		kind      Kind
		signal    Signal
		label     string
		ambiguous bool
	}{
		{
			name:   "university department is academic",
			text:   "Department of Chemistry, Harvard University, Cambridge, MA, USA.",
			kind:   Academic,
			signal: SignalAcademicKeyword,
		},
		{
			name:   "company suffix",
			text:   "Research Division, Pfizer Inc., New York",
			kind:   NonAcademic,
			signal: SignalCompanyKeyword,
			label:  "Pfizer Inc.",
		},
		{
			name:      "company keyword beats department",
			text:      "Dept. of Oncology, Novartis Pharma AG, Basel",
			kind:      NonAcademic,
			signal:    SignalCompanyKeyword,
			label:     "Novartis Pharma AG",
			ambiguous: true,
		},
		{
			name:   "pharma prefix matches longer word",
			text:   "Regeneron Pharmaceuticals, Tarrytown",
			kind:   NonAcademic,
			signal: SignalCompanyKeyword,
			label:  "Regeneron Pharmaceuticals",
		},
		{
			name:   "bare suffix fragment joins previous fragment",
			text:   "Merck & Co., Inc., Kenilworth, NJ, USA",
			kind:   NonAcademic,
			signal: SignalCompanyKeyword,
			label:  "Merck & Co., Inc.",
		},
		{
			name:   "leading bare suffix uses the whole text",
			text:   "Inc., Boston, MA",
			kind:   NonAcademic,
			signal: SignalCompanyKeyword,
			label:  "Inc., Boston, MA",
		},
		{
			name:   "email only with commercial domain",
			text:   "j.doe@biotechco.com",
			kind:   NonAcademic,
			signal: SignalEmailDomain,
			label:  "biotechco",
		},
		{
			name:      "academic keyword beats commercial domain",
			text:      "Department of Biology, Stanford University. a.b@genentech.com",
			kind:      Academic,
			signal:    SignalAcademicKeyword,
			ambiguous: true,
		},
		{
			name:      "country domain does not overrule university",
			text:      "Department of Medicine, University of Oslo, Norway. x@uio.no",
			kind:      Academic,
			signal:    SignalAcademicKeyword,
			ambiguous: true,
		},
		{
			name:   "edu label inside a country domain is academic",
			text:   "School of Medicine, University of Melbourne, Parkville. a.b@unimelb.edu.au",
			kind:   Academic,
			signal: SignalAcademicKeyword,
		},
		{
			name:   "email only with edu label inside a country domain",
			text:   "a.b@unimelb.edu.au",
			kind:   Unclassified,
			signal: SignalNone,
		},
		{
			name:   "email only with gov label inside a country domain",
			text:   "c.d@health.gov.au",
			kind:   Unclassified,
			signal: SignalNone,
		},
		{
			name:   "academic email domain adds nothing",
			text:   "School of Medicine, Example University. x@med.example.edu",
			kind:   Academic,
			signal: SignalAcademicKeyword,
		},
		{
			name:   "personal email domain is neutral",
			text:   "Kyoto, Japan. someone@gmail.com",
			kind:   Unclassified,
			signal: SignalNone,
		},
		{
			name:   "no keywords falls back to unclassified",
			text:   "MIT, Cambridge",
			kind:   Unclassified,
			signal: SignalNone,
		},
		{
			name:   "inc inside a word does not match",
			text:   "Princeton Neuroscience Institute, Princeton, NJ",
			kind:   Unclassified,
			signal: SignalNone,
		},
		{
			name:   "co. inside a word does not match",
			text:   "Rabat, Morocco.",
			kind:   Unclassified,
			signal: SignalNone,
		},
		{
			name:   "keywords inside the email are ignored",
			text:   "Hospital Universitario, Madrid. lab@pharmaco.es.edu",
			kind:   Academic,
			signal: SignalAcademicKeyword,
		},
		{
			name:   "empty",
			text:   "   ",
			kind:   Unclassified,
			signal: SignalNone,
		},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := c.Classify(tt.text)
			assert.Equal(t, tt.kind, v.Kind, "kind")
			assert.Equal(t, tt.signal, v.Signal, "signal")
			assert.Equal(t, tt.label, v.Label, "label")
			assert.Equal(t, tt.ambiguous, v.Ambiguous, "ambiguous")
			assert.Equal(t, tt.kind == NonAcademic, v.NonAcademic())
		})
	}
}

func TestClassifyWithEmail(t *testing.T) {
	c := newTestClassifier()

	v := c.ClassifyWithEmail("Tarrytown, NY", "r.lee@regeneron.com")
	assert.True(t, v.NonAcademic())
	assert.Equal(t, SignalEmailDomain, v.Signal)
	assert.Equal(t, "regeneron", v.Label)
	assert.Equal(t, "regeneron.com", v.Domain)

	// An address inside the text takes precedence over the structured one.
	v = c.ClassifyWithEmail("Boston, MA. a@bu.edu", "a@startup.io")
	assert.False(t, v.NonAcademic())
	assert.Equal(t, "bu.edu", v.Domain)

	// No affiliation text means nothing to classify.
	v = c.ClassifyWithEmail("", "r.lee@regeneron.com")
	assert.Equal(t, Verdict{}, v)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newTestClassifier()
	text := "Dept. of Oncology, Novartis Pharma AG, Basel"
	assert.Equal(t, c.Classify(text), c.Classify(text))
}

func TestClassifyCustomLexicon(t *testing.T) {
	c := NewClassifier(Lexicon{
		Academic: []string{"campus"},
		Company:  []string{"widgets"},
	})

	assert.True(t, c.Classify("Acme Widgets, Springfield").NonAcademic())
	assert.Equal(t, Academic, c.Classify("North Campus, Springfield").Kind)
	// Default terms are gone with a replacing lexicon.
	assert.Equal(t, Unclassified, c.Classify("Pfizer Inc.").Kind)
}

func TestVerdictStrings(t *testing.T) {
	assert.Equal(t, "non-academic", NonAcademic.String())
	assert.Equal(t, "academic", Academic.String())
	assert.Equal(t, "unclassified", Unclassified.String())
	assert.Equal(t, "email-domain", SignalEmailDomain.String())

	b, err := SignalCompanyKeyword.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "company-keyword", string(b))
}
