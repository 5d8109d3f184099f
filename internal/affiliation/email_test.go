package affiliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	e := NewClassifier(DefaultLexicon()).Emails()

	tests := []struct {
		in   string
		want string
	}{
		{"Contact: j.doe@biotechco.com for details", "j.doe@biotechco.com"},
		{"jane.smith@university.edu", "jane.smith@university.edu"},
		{"Pfizer Inc., New York, NY, USA. Electronic address: a.b@pfizer.com.", "a.b@pfizer.com"},
		{"first@a.org and second@b.org", "first@a.org"},
		{"no address here", ""},
		{"broken@localhost", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Extract(tt.in), "Extract(%q)", tt.in)
	}
}

func TestValid(t *testing.T) {
	e := NewEmailExtractor(nil, nil)

	assert.True(t, e.Valid("r.lee@regeneron.com"))
	assert.True(t, e.Valid("  r.lee@regeneron.com "))
	assert.False(t, e.Valid("r.lee at regeneron.com"))
	assert.False(t, e.Valid("mail r.lee@regeneron.com"))
	assert.False(t, e.Valid(""))
}

func TestDomainOf(t *testing.T) {
	e := NewEmailExtractor(nil, nil)

	assert.Equal(t, "biotechco.com", e.DomainOf("j.doe@biotechco.com"))
	assert.Equal(t, "med.example.edu", e.DomainOf("X@Med.Example.EDU"))
	assert.Equal(t, "", e.DomainOf("not-an-email"))
}

func TestIsAcademicDomain(t *testing.T) {
	e := NewClassifier(DefaultLexicon()).Emails()

	academic := []string{
		"university.edu",
		"med.harvard.edu",
		"ox.ac.uk",
		"u-tokyo.ac.jp",
		"unimelb.edu.au",
		"health.gov.au",
		"nih.gov",
		"mail.nih.gov",
		"cdc.gov",
		"nhs.net",
		"inserm.fr",
		"who.int",
	}
	for _, d := range academic {
		assert.True(t, e.IsAcademicDomain(d), d)
	}

	commercial := []string{"biotechco.com", "pfizer.com", "novartis.ch", "gmail.com", "edutech.com", "mygov.com", ""}
	for _, d := range commercial {
		assert.False(t, e.IsAcademicDomain(d), d)
	}
}

func TestIsCommercialDomain(t *testing.T) {
	e := NewClassifier(DefaultLexicon()).Emails()

	assert.True(t, e.IsCommercialDomain("pfizer.com"))
	assert.False(t, e.IsCommercialDomain("gmail.com"))
	assert.False(t, e.IsCommercialDomain("mail.163.com"))
	assert.False(t, e.IsCommercialDomain("stanford.edu"))
	assert.False(t, e.IsCommercialDomain(""))
}

func TestRegistrableName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"regeneron.com", "regeneron"},
		{"research.regeneron.co.uk", "regeneron"},
		{"Roche.COM", "roche"},
		{"com", "com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RegistrableName(tt.in), tt.in)
	}
}
