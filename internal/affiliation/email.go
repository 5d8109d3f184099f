package affiliation

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const emailExpr = `[A-Za-z0-9._%+\-]+@(?:[A-Za-z0-9\-]+\.)+[A-Za-z]{2,}`

var (
	emailPattern     = regexp.MustCompile(emailExpr)
	fullEmailPattern = regexp.MustCompile(`^` + emailExpr + `$`)
)

// EmailExtractor finds email addresses in free text and judges their domains.
type EmailExtractor struct {
	academic []string
	personal []string
}

// NewEmailExtractor creates an extractor with the given domain patterns.
// A pattern starting with "." matches as a suffix or an inner label sequence
// (".gov" matches "cdc.gov", ".edu." matches "unimelb.edu.au"), or as the
// domain itself without the dot. Any other pattern matches that domain and
// its subdomains.
func NewEmailExtractor(academicDomains, personalDomains []string) *EmailExtractor {
	return &EmailExtractor{
		academic: normalizePatterns(academicDomains),
		personal: normalizePatterns(personalDomains),
	}
}

func normalizePatterns(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Extract returns the leftmost email address in text, or "" if there is none.
func (e *EmailExtractor) Extract(text string) string {
	return strings.TrimLeft(emailPattern.FindString(text), ".")
}

// Valid reports whether s, ignoring surrounding space, is a single email address.
func (e *EmailExtractor) Valid(s string) bool {
	return fullEmailPattern.MatchString(strings.TrimSpace(s))
}

// Strip removes every email address from text.
func (e *EmailExtractor) Strip(text string) string {
	return emailPattern.ReplaceAllString(text, " ")
}

// DomainOf returns the lower-cased part of email after the last "@".
func (e *EmailExtractor) DomainOf(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[i+1:]))
}

// IsAcademicDomain reports whether domain belongs to a university, government
// or hospital body.
func (e *EmailExtractor) IsAcademicDomain(domain string) bool {
	d := strings.Trim(strings.ToLower(domain), ".")
	if d == "" {
		return false
	}
	if strings.HasSuffix(d, ".edu") || strings.Contains(d, ".ac.") {
		return true
	}
	return matchDomain(d, e.academic)
}

// IsPersonalDomain reports whether domain is a free-mail provider. Personal
// addresses say nothing about the author's employer.
func (e *EmailExtractor) IsPersonalDomain(domain string) bool {
	d := strings.Trim(strings.ToLower(domain), ".")
	return d != "" && matchDomain(d, e.personal)
}

// IsCommercialDomain reports whether domain counts as a non-academic signal.
func (e *EmailExtractor) IsCommercialDomain(domain string) bool {
	return domain != "" && !e.IsAcademicDomain(domain) && !e.IsPersonalDomain(domain)
}

func matchDomain(d string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasPrefix(p, ".") {
			core := strings.Trim(p, ".")
			if core == "" {
				continue
			}
			if d == core || strings.HasSuffix(d, "."+core) {
				return true
			}
			// ".edu." also matches the labels inside "unimelb.edu.au".
			if strings.HasSuffix(p, ".") && strings.Contains("."+d+".", "."+core+".") {
				return true
			}
			continue
		}
		p = strings.TrimSuffix(p, ".")
		if d == p || strings.HasSuffix(d, "."+p) {
			return true
		}
	}
	return false
}

// RegistrableName returns the organisation part of domain: the label left of
// its public suffix ("research.regeneron.co.uk" gives "regeneron").
func RegistrableName(domain string) string {
	domain = strings.Trim(strings.ToLower(domain), ".")
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return domain
	}
	suffix, _ := publicsuffix.PublicSuffix(etld1)
	return strings.TrimSuffix(etld1, "."+suffix)
}
