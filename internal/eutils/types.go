// Package eutils provides a client for NCBI E-utilities API.
package eutils

import "strings"

// SearchResult represents the result of an ESearch query.
type SearchResult struct {
	Count            int      `json:"count"`
	IDs              []string `json:"ids"`
	QueryTranslation string   `json:"query_translation"`
	WebEnv           string   `json:"web_env,omitempty"`
	QueryKey         string   `json:"query_key,omitempty"`
}

// Article represents a PubMed article with the fields needed for author
// classification.
type Article struct {
	PMID    string   `json:"pmid"`
	Title   string   `json:"title"`
	Authors []Author `json:"authors"`
	// HasAuthorList is false when the record carried no AuthorList element.
	HasAuthorList    bool     `json:"-"`
	Journal          string   `json:"journal"`
	Year             string   `json:"year"`
	Month            string   `json:"month,omitempty"`
	PubDate          string   `json:"pub_date"`
	DOI              string   `json:"doi,omitempty"`
	PublicationTypes []string `json:"publication_types"`
}

// Author represents an article author.
type Author struct {
	LastName       string   `json:"last_name"`
	ForeName       string   `json:"fore_name"`
	Initials       string   `json:"initials"`
	CollectiveName string   `json:"collective_name,omitempty"`
	Affiliations   []string `json:"affiliations,omitempty"`
	ORCID          string   `json:"orcid,omitempty"`
}

// FullName returns "ForeName LastName", or CollectiveName if present.
func (a Author) FullName() string {
	if a.CollectiveName != "" {
		return a.CollectiveName
	}
	if a.ForeName == "" {
		return a.LastName
	}
	return a.ForeName + " " + a.LastName
}

// Affiliation returns every affiliation of the author joined with "; ".
func (a Author) Affiliation() string {
	return strings.Join(a.Affiliations, "; ")
}

// SearchOptions configures a search query.
type SearchOptions struct {
	Limit   int    `json:"limit,omitempty"`
	Sort    string `json:"sort,omitempty"`
	MinDate string `json:"min_date,omitempty"`
	MaxDate string `json:"max_date,omitempty"`
}
