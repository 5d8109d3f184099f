package affiliation

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the keyword lists and domain patterns that drive classification.
//
// Keyword terms are matched case-insensitively and must start at a word
// boundary. A term ending in "*" also matches longer words ("pharma*" matches
// "Pharmaceuticals"); any other term must end at a word boundary as well, so
// "inc" matches "Pfizer Inc." but not "Princeton".
type Lexicon struct {
	Academic        []string `yaml:"academic"`
	Company         []string `yaml:"company"`
	AcademicDomains []string `yaml:"academic_domains"`
	PersonalDomains []string `yaml:"personal_domains"`
}

// lexiconFile is the on-disk form of a lexicon override.
// Lists extend the defaults unless Replace is set.
type lexiconFile struct {
	Replace bool `yaml:"replace"`
	Lexicon `yaml:",inline"`
}

// DefaultLexicon returns the built-in keyword lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Academic: []string{
			"universit*",
			"universidad*",
			"college",
			"institute of technology",
			"school of medicine",
			"medical school",
			"medical center",
			"medical centre",
			"hospital*",
			"national institutes",
			"national institute",
			"department of",
			"dept.",
			"faculty",
			"academy",
			"research council",
		},
		Company: []string{
			"inc",
			"inc.",
			"ltd",
			"llc",
			"corp",
			"corporation",
			"pharma*",
			"biopharma*",
			"biotech",
			"therapeutics",
			"biosciences",
			"biologics",
			"diagnostics",
			"laboratories",
			"gmbh",
			"co.",
		},
		AcademicDomains: []string{
			".gov",
			".gov.",
			".edu.",
			".mil",
			".int",
			".nhs.uk",
			".nhs.net",
			"nih.gov",
			"inserm.fr",
			"cnrs.fr",
			"mpg.de",
			"embl.de",
			"embl.org",
			"who.int",
		},
		PersonalDomains: []string{
			"gmail.com",
			"googlemail.com",
			"yahoo.com",
			"hotmail.com",
			"outlook.com",
			"live.com",
			"icloud.com",
			"aol.com",
			"protonmail.com",
			"qq.com",
			"163.com",
			"126.com",
			"foxmail.com",
		},
	}
}

// LoadLexicon reads a YAML lexicon file and merges it over the defaults.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("reading lexicon %s: %w", path, err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodes YAML lexicon data and merges it over the defaults.
func ParseLexicon(data []byte) (Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Lexicon{}, fmt.Errorf("parsing lexicon: %w", err)
	}

	lex := DefaultLexicon()
	if f.Replace {
		lex = f.Lexicon
	} else {
		lex.Academic = append(lex.Academic, f.Academic...)
		lex.Company = append(lex.Company, f.Company...)
		lex.AcademicDomains = append(lex.AcademicDomains, f.AcademicDomains...)
		lex.PersonalDomains = append(lex.PersonalDomains, f.PersonalDomains...)
	}

	if err := lex.Validate(); err != nil {
		return Lexicon{}, err
	}
	return lex, nil
}

// Validate checks that both keyword lists are present and contain no blank terms.
func (l Lexicon) Validate() error {
	lists := []struct {
		name     string
		terms    []string
		required bool
	}{
		{"academic", l.Academic, true},
		{"company", l.Company, true},
		{"academic_domains", l.AcademicDomains, false},
		{"personal_domains", l.PersonalDomains, false},
	}
	for _, list := range lists {
		if list.required && len(list.terms) == 0 {
			return fmt.Errorf("lexicon: %s list is empty", list.name)
		}
		for i, t := range list.terms {
			if strings.TrimSpace(strings.TrimSuffix(t, "*")) == "" {
				return fmt.Errorf("lexicon: %s[%d] is blank", list.name, i)
			}
		}
	}
	return nil
}

// term is a compiled lexicon keyword.
type term struct {
	raw    string
	text   string
	prefix bool
}

func compileTerms(list []string) []term {
	terms := make([]term, 0, len(list))
	for _, raw := range list {
		text := strings.ToLower(strings.TrimSpace(raw))
		prefix := strings.HasSuffix(text, "*")
		text = strings.TrimSuffix(text, "*")
		if text == "" {
			continue
		}
		terms = append(terms, term{raw: strings.TrimSpace(raw), text: text, prefix: prefix})
	}
	return terms
}

// in reports whether t occurs in s, which must already be lower-cased.
func (t term) in(s string) bool {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], t.text)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(t.text)
		if t.startsWord(s, i) && (t.prefix || t.endsWord(s, end)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		from = i + size
	}
	return false
}

func (t term) startsWord(s string, i int) bool {
	first, _ := utf8.DecodeRuneInString(t.text)
	if !isWordRune(first) || i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(prev)
}

func (t term) endsWord(s string, end int) bool {
	last, _ := utf8.DecodeLastRuneInString(t.text)
	if !isWordRune(last) || end >= len(s) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(s[end:])
	return !isWordRune(next)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// firstMatch returns the first term in order that occurs in s.
func firstMatch(terms []term, s string) (term, bool) {
	for _, t := range terms {
		if t.in(s) {
			return t, true
		}
	}
	return term{}, false
}
