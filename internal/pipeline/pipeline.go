// Package pipeline runs a PubMed query end to end: search, fetch in batches,
// classify authors, and keep the papers with a non-academic author.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/henrybloomingdale/get-papers-list/internal/eutils"
	"github.com/henrybloomingdale/get-papers-list/internal/ncbi"
	"github.com/henrybloomingdale/get-papers-list/internal/record"
)

// DefaultBatchSize is the number of PMIDs sent per EFetch request.
const DefaultBatchSize = 200

// ErrEmptyQuery is returned by Run for a blank query.
var ErrEmptyQuery = eutils.ErrEmptyQuery

// Searcher is the subset of the E-utilities client the pipeline needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts *eutils.SearchOptions) (*eutils.SearchResult, error)
	Fetch(ctx context.Context, pmids []string) ([]eutils.Article, error)
}

// Options controls a pipeline run.
type Options struct {
	Limit     int    // PMIDs requested from ESearch
	Workers   int    // concurrent fetch and classify workers
	BatchSize int    // PMIDs per EFetch request
	Sort      string // ESearch sort order
	MinDate   string
	MaxDate   string
	Logger    zerolog.Logger
}

// Phase names a stage of a run.
type Phase string

const (
	PhaseSearch   Phase = "search"
	PhaseFetch    Phase = "fetch"
	PhaseClassify Phase = "classify"
)

// ProgressUpdate is emitted as the runner advances.
type ProgressUpdate struct {
	Phase   Phase
	Message string
	Current int
	Total   int
}

// ProgressCallback receives progress updates. It must not block.
type ProgressCallback func(ProgressUpdate)

// Result is the outcome of one run.
type Result struct {
	Query   string               `json:"query"`
	Total   int                  `json:"total"`
	Fetched int                  `json:"fetched"`
	Papers  []record.PaperResult `json:"papers"`
}

// Runner ties the E-utilities client to the record builder.
type Runner struct {
	client   Searcher
	builder  *record.Builder
	opts     Options
	progress ProgressCallback
}

// New creates a Runner. Zero option values fall back to defaults.
func New(client Searcher, builder *record.Builder, opts Options) *Runner {
	if opts.Limit < 1 {
		opts.Limit = eutils.DefaultSearchLimit
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Runner{client: client, builder: builder, opts: opts}
}

// WithProgress sets an optional progress callback.
func (r *Runner) WithProgress(cb ProgressCallback) *Runner {
	if r == nil {
		return nil
	}
	r.progress = cb
	return r
}

func (r *Runner) report(update ProgressUpdate) {
	if r == nil || r.progress == nil {
		return
	}
	r.progress(update)
}

// Run searches PubMed for query and returns the qualifying papers in the
// order ESearch ranked them.
func (r *Runner) Run(ctx context.Context, query string) (*Result, error) {
	if r == nil || r.client == nil {
		return nil, errors.New("pipeline client is nil")
	}
	if r.builder == nil {
		return nil, errors.New("pipeline builder is nil")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	r.report(ProgressUpdate{Phase: PhaseSearch, Message: "Searching PubMed..."})
	sr, err := r.client.Search(ctx, query, &eutils.SearchOptions{
		Limit:   r.opts.Limit,
		Sort:    r.opts.Sort,
		MinDate: r.opts.MinDate,
		MaxDate: r.opts.MaxDate,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if sr == nil {
		return nil, errors.New("search: nil result")
	}

	result := &Result{Query: query, Total: sr.Count}
	if len(sr.IDs) == 0 {
		return result, nil
	}
	if err := r.fetchAndClassify(ctx, sr.IDs, result); err != nil {
		return nil, err
	}
	return result, nil
}

// RunIDs fetches and classifies the given PMIDs without searching.
func (r *Runner) RunIDs(ctx context.Context, ids []string) (*Result, error) {
	if r == nil || r.client == nil {
		return nil, errors.New("pipeline client is nil")
	}
	if r.builder == nil {
		return nil, errors.New("pipeline builder is nil")
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one PMID is required")
	}

	result := &Result{Total: len(ids)}
	if err := r.fetchAndClassify(ctx, ids, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) fetchAndClassify(ctx context.Context, ids []string, result *Result) error {
	r.report(ProgressUpdate{Phase: PhaseFetch, Message: "Fetching paper metadata...", Total: len(ids)})
	articles, err := r.fetchAll(ctx, ids)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	result.Fetched = len(articles)

	r.report(ProgressUpdate{Phase: PhaseClassify, Message: "Classifying author affiliations...", Total: len(articles)})
	papers, err := r.Classify(ctx, articles)
	if err != nil {
		return err
	}
	result.Papers = papers

	r.opts.Logger.Debug().
		Int("fetched", result.Fetched).
		Int("kept", len(papers)).
		Msg("classification complete")
	return nil
}

// fetchAll retrieves ids in batches, running up to Workers requests at once.
// Articles come back in id order regardless of completion order. The first
// failing batch cancels the rest and its error names the batch.
func (r *Runner) fetchAll(ctx context.Context, ids []string) ([]eutils.Article, error) {
	var batches [][]string
	for start := 0; start < len(ids); start += r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, len(ids))
		batches = append(batches, ids[start:end])
	}

	results := make([][]eutils.Article, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, batch := range batches {
		g.Go(func() error {
			articles, err := r.client.Fetch(gctx, batch)
			if err != nil {
				var se *ncbi.StatusError
				if errors.As(err, &se) {
					r.opts.Logger.Warn().
						Int("batch", i+1).
						Int("batches", len(batches)).
						Int("status", se.Code).
						Int("attempts", se.Attempts).
						Str("first_pmid", batch[0]).
						Msg("efetch batch failed")
				}
				return fmt.Errorf("batch %d of %d (PMIDs %s..%s): %w",
					i+1, len(batches), batch[0], batch[len(batch)-1], err)
			}
			r.opts.Logger.Debug().
				Int("batch", i+1).
				Int("batches", len(batches)).
				Int("articles", len(articles)).
				Msg("efetch batch complete")
			results[i] = articles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []eutils.Article
	for _, batch := range results {
		out = append(out, batch...)
	}
	return out, nil
}

// Classify builds paper results for articles concurrently. Papers without a
// non-academic author are dropped; the rest keep their input order.
func (r *Runner) Classify(ctx context.Context, articles []eutils.Article) ([]record.PaperResult, error) {
	type slot struct {
		paper record.PaperResult
		ok    bool
	}
	slots := make([]slot, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, a := range articles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, ok := r.builder.BuildPaper(ToRawPaper(a))
			slots[i] = slot{paper: p, ok: ok}
			if !ok {
				r.opts.Logger.Debug().
					Str("pmid", a.PMID).
					Int("authors", len(a.Authors)).
					Msg("no non-academic authors, dropping paper")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var papers []record.PaperResult
	for i, s := range slots {
		if s.ok {
			papers = append(papers, s.paper)
		}
		r.report(ProgressUpdate{Phase: PhaseClassify, Current: i + 1, Total: len(slots)})
	}
	return papers, nil
}

// ToRawPaper converts a fetched article into the builder's input form.
// An article without an author list yields a nil Authors slice.
func ToRawPaper(a eutils.Article) record.RawPaper {
	raw := record.RawPaper{
		PMID:            a.PMID,
		Title:           a.Title,
		PublicationDate: a.PubDate,
		Journal:         a.Journal,
		DOI:             a.DOI,
	}
	if !a.HasAuthorList {
		return raw
	}
	raw.Authors = make([]record.RawAuthor, 0, len(a.Authors))
	for _, au := range a.Authors {
		raw.Authors = append(raw.Authors, record.RawAuthor{
			Name:        au.FullName(),
			Affiliation: au.Affiliation(),
		})
	}
	return raw
}
