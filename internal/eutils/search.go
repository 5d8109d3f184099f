package eutils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// esearchResponse represents the raw JSON response from ESearch.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count            string   `json:"count"`
	RetMax           string   `json:"retmax"`
	RetStart         string   `json:"retstart"`
	IDList           []string `json:"idlist"`
	QueryTranslation string   `json:"querytranslation"`
	WebEnv           string   `json:"webenv"`
	QueryKey         string   `json:"querykey"`
}

const (
	// DefaultSearchLimit is the number of PMIDs requested when no limit is given.
	DefaultSearchLimit = 50
	// MaxSearchLimit is the largest retmax ESearch honours.
	MaxSearchLimit = 10000
)

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("search query cannot be empty")

// Search performs an ESearch query against PubMed.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "json")
	params.Set("usehistory", "y")

	limit := DefaultSearchLimit
	if opts != nil {
		if opts.Limit > 0 {
			limit = min(opts.Limit, MaxSearchLimit)
		}
		if opts.Sort != "" {
			params.Set("sort", opts.Sort)
		}
		if opts.MinDate != "" && opts.MaxDate != "" {
			params.Set("datetype", "pdat")
			params.Set("mindate", opts.MinDate)
			params.Set("maxdate", opts.MaxDate)
		}
	}
	params.Set("retmax", strconv.Itoa(limit))

	body, err := c.DoGet(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	count, _ := strconv.Atoi(resp.Result.Count)
	c.Logger.Debug().
		Str("query", query).
		Int("count", count).
		Int("returned", len(resp.Result.IDList)).
		Msg("esearch complete")

	return &SearchResult{
		Count:            count,
		IDs:              resp.Result.IDList,
		QueryTranslation: resp.Result.QueryTranslation,
		WebEnv:           resp.Result.WebEnv,
		QueryKey:         resp.Result.QueryKey,
	}, nil
}
