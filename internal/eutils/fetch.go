package eutils

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

// XML structures for parsing PubMed EFetch responses.

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation   medlineCitation `xml:"MedlineCitation"`
	PubmedData pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID    xmlPMID    `xml:"PMID"`
	Article xmlArticle `xml:"Article"`
}

type xmlPMID struct {
	Value string `xml:",chardata"`
}

type xmlArticle struct {
	Journal             xmlJournal             `xml:"Journal"`
	ArticleTitle        xmlMarkup              `xml:"ArticleTitle"`
	AuthorList          *xmlAuthorList         `xml:"AuthorList"`
	PublicationTypeList xmlPublicationTypeList `xml:"PublicationTypeList"`
}

// xmlMarkup keeps inline markup such as <i> and <sub> so it can be flattened.
type xmlMarkup struct {
	Inner string `xml:",innerxml"`
}

type xmlJournal struct {
	JournalIssue xmlJournalIssue `xml:"JournalIssue"`
	Title        string          `xml:"Title"`
}

type xmlJournalIssue struct {
	PubDate xmlPubDate `xml:"PubDate"`
}

type xmlPubDate struct {
	Year        string `xml:"Year"`
	Season      string `xml:"Season"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

type xmlAuthorList struct {
	Complete string      `xml:"CompleteYN,attr"`
	Authors  []xmlAuthor `xml:"Author"`
}

type xmlAuthor struct {
	ValidYN         string               `xml:"ValidYN,attr"`
	LastName        string               `xml:"LastName"`
	ForeName        string               `xml:"ForeName"`
	Initials        string               `xml:"Initials"`
	CollectiveName  string               `xml:"CollectiveName"`
	Identifiers     []xmlIdentifier      `xml:"Identifier"`
	AffiliationInfo []xmlAffiliationInfo `xml:"AffiliationInfo"`
}

type xmlIdentifier struct {
	Source string `xml:"Source,attr"`
	Value  string `xml:",chardata"`
}

type xmlAffiliationInfo struct {
	Affiliation string `xml:"Affiliation"`
}

type xmlPublicationTypeList struct {
	Types []xmlPublicationType `xml:"PublicationType"`
}

type xmlPublicationType struct {
	UI   string `xml:"UI,attr"`
	Name string `xml:",chardata"`
}

type pubmedData struct {
	ArticleIDList xmlArticleIDList `xml:"ArticleIdList"`
}

type xmlArticleIDList struct {
	ArticleIDs []xmlArticleID `xml:"ArticleId"`
}

type xmlArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

var markupTag = regexp.MustCompile(`<[^>]+>`)

// Fetch retrieves article details for the given PMIDs.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]Article, error) {
	if len(pmids) == 0 {
		return nil, fmt.Errorf("at least one PMID is required")
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("rettype", "xml")
	params.Set("retmode", "xml")

	body, err := c.DoGet(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("fetch request failed: %w", err)
	}

	return parseArticles(body)
}

// parseArticles parses PubMed XML into Article structs.
func parseArticles(data []byte) ([]Article, error) {
	var articleSet pubmedArticleSet
	if err := xml.Unmarshal(data, &articleSet); err != nil {
		return nil, fmt.Errorf("parsing PubMed XML: %w", err)
	}

	articles := make([]Article, 0, len(articleSet.Articles))
	for _, pa := range articleSet.Articles {
		articles = append(articles, convertArticle(pa))
	}

	return articles, nil
}

func convertArticle(pa pubmedArticle) Article {
	mc := pa.Citation
	xa := mc.Article
	pd := xa.Journal.JournalIssue.PubDate

	a := Article{
		PMID:    strings.TrimSpace(mc.PMID.Value),
		Title:   flattenMarkup(xa.ArticleTitle.Inner),
		Journal: xa.Journal.Title,
		Year:    pd.Year,
		Month:   pd.Month,
		PubDate: pd.String(),
	}

	if xa.AuthorList != nil {
		a.HasAuthorList = true
		for _, au := range xa.AuthorList.Authors {
			if au.ValidYN == "N" {
				continue
			}
			a.Authors = append(a.Authors, convertAuthor(au))
		}
	}

	for _, aid := range pa.PubmedData.ArticleIDList.ArticleIDs {
		if aid.IDType == "doi" {
			a.DOI = strings.TrimSpace(aid.Value)
		}
	}

	for _, pt := range xa.PublicationTypeList.Types {
		a.PublicationTypes = append(a.PublicationTypes, pt.Name)
	}

	return a
}

func convertAuthor(au xmlAuthor) Author {
	author := Author{
		LastName:       au.LastName,
		ForeName:       au.ForeName,
		Initials:       au.Initials,
		CollectiveName: flattenMarkup(au.CollectiveName),
	}
	for _, ai := range au.AffiliationInfo {
		if aff := strings.TrimSpace(ai.Affiliation); aff != "" {
			author.Affiliations = append(author.Affiliations, aff)
		}
	}
	for _, id := range au.Identifiers {
		if strings.EqualFold(id.Source, "ORCID") {
			author.ORCID = strings.TrimSpace(id.Value)
		}
	}
	return author
}

// String renders the date as PubMed lists it: "2024 Mar 5", "2023 Spring",
// or the free-form MedlineDate ("2019 Nov-Dec").
func (d xmlPubDate) String() string {
	if d.MedlineDate != "" {
		return strings.TrimSpace(d.MedlineDate)
	}
	var parts []string
	for _, p := range []string{d.Year, d.Season, d.Month, d.Day} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func flattenMarkup(s string) string {
	s = markupTag.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
