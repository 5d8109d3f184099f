// Package affiliation decides whether an author's affiliation text points to a
// commercial organisation or an academic one.
//
// Classification is keyword based and deterministic. A company keyword wins
// over everything, then academic keywords, then the email domain; an
// affiliation with no signal at all is left unclassified and treated as
// academic.
package affiliation

import (
	"strings"
)

// Kind is the outcome of classifying one affiliation.
type Kind int

const (
	// Unclassified means no signal matched, or the text was empty.
	Unclassified Kind = iota
	Academic
	NonAcademic
)

func (k Kind) String() string {
	switch k {
	case Academic:
		return "academic"
	case NonAcademic:
		return "non-academic"
	default:
		return "unclassified"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Signal names the evidence that decided a Verdict.
type Signal int

const (
	SignalNone Signal = iota
	SignalCompanyKeyword
	SignalEmailDomain
	SignalAcademicKeyword
)

func (s Signal) String() string {
	switch s {
	case SignalCompanyKeyword:
		return "company-keyword"
	case SignalEmailDomain:
		return "email-domain"
	case SignalAcademicKeyword:
		return "academic-keyword"
	default:
		return "none"
	}
}

func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Verdict is the tagged result of Classify.
type Verdict struct {
	Kind   Kind   `json:"kind"`
	Signal Signal `json:"signal"`
	// Keyword is the lexicon term behind a keyword decision.
	Keyword string `json:"keyword,omitempty"`
	// Domain is the email domain considered, if any.
	Domain string `json:"domain,omitempty"`
	// Label is the inferred organisation name. Set only for NonAcademic.
	Label string `json:"label,omitempty"`
	// Ambiguous is set when company and academic evidence disagree.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// NonAcademic reports whether the verdict marks a commercial affiliation.
func (v Verdict) NonAcademic() bool {
	return v.Kind == NonAcademic
}

// Classifier classifies affiliation strings against a Lexicon.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	academic []term
	company  []term
	emails   *EmailExtractor
}

// NewClassifier compiles lex into a Classifier.
func NewClassifier(lex Lexicon) *Classifier {
	return &Classifier{
		academic: compileTerms(lex.Academic),
		company:  compileTerms(lex.Company),
		emails:   NewEmailExtractor(lex.AcademicDomains, lex.PersonalDomains),
	}
}

// Emails returns the extractor configured from the same lexicon.
func (c *Classifier) Emails() *EmailExtractor {
	return c.emails
}

// Classify classifies one affiliation string.
func (c *Classifier) Classify(text string) Verdict {
	return c.ClassifyWithEmail(text, "")
}

// ClassifyWithEmail classifies text, using email for the domain heuristic
// when the text itself carries no address. Empty text is always Unclassified.
func (c *Classifier) ClassifyWithEmail(text, email string) Verdict {
	text = strings.TrimSpace(text)
	if text == "" {
		return Verdict{}
	}

	if found := c.emails.Extract(text); found != "" {
		email = found
	}
	body := strings.ToLower(c.emails.Strip(text))
	academic, academicHit := firstMatch(c.academic, body)

	if kw, ok := firstMatch(c.company, body); ok {
		return Verdict{
			Kind:      NonAcademic,
			Signal:    SignalCompanyKeyword,
			Keyword:   kw.raw,
			Domain:    c.emails.DomainOf(email),
			Label:     c.companyLabel(text),
			Ambiguous: academicHit,
		}
	}

	domain := c.emails.DomainOf(email)
	commercial := c.emails.IsCommercialDomain(domain)
	if academicHit {
		// A domain alone never overrules an academic keyword; it only marks
		// the verdict as contested.
		return Verdict{
			Kind:      Academic,
			Signal:    SignalAcademicKeyword,
			Keyword:   academic.raw,
			Domain:    domain,
			Ambiguous: commercial,
		}
	}
	if commercial {
		return Verdict{
			Kind:   NonAcademic,
			Signal: SignalEmailDomain,
			Domain: domain,
			Label:  RegistrableName(domain),
		}
	}
	return Verdict{Domain: domain}
}

// companyLabel picks the shortest fragment of text that carries a company
// keyword. A fragment holding nothing but a legal suffix ("Inc.") is joined
// to the fragment before it, or, when it leads the text, the whole text is
// used.
func (c *Classifier) companyLabel(text string) string {
	frags := splitFragments(c.emails.Strip(text))
	best := -1
	for i, f := range frags {
		if _, ok := firstMatch(c.company, strings.ToLower(f)); !ok {
			continue
		}
		if best < 0 || len(f) < len(frags[best]) {
			best = i
		}
	}
	if best < 0 {
		return strings.TrimSpace(text)
	}

	label := frags[best]
	if c.suffixOnly(label) {
		if best == 0 {
			return strings.Join(frags, ", ")
		}
		label = frags[best-1] + ", " + label
	}
	return label
}

func (c *Classifier) suffixOnly(frag string) bool {
	bare := strings.Trim(strings.ToLower(frag), " .")
	for _, t := range c.company {
		if strings.Trim(t.text, ".") == bare {
			return true
		}
	}
	return false
}

func splitFragments(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';'
	})
	frags := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			frags = append(frags, p)
		}
	}
	return frags
}
