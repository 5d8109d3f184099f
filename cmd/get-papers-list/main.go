// Command get-papers-list searches PubMed and lists papers with at least one
// author affiliated with a pharmaceutical or biotech company.
package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/henrybloomingdale/get-papers-list/internal/affiliation"
	"github.com/henrybloomingdale/get-papers-list/internal/config"
	"github.com/henrybloomingdale/get-papers-list/internal/eutils"
	"github.com/henrybloomingdale/get-papers-list/internal/logging"
	"github.com/henrybloomingdale/get-papers-list/internal/ncbi"
	"github.com/henrybloomingdale/get-papers-list/internal/output"
	"github.com/henrybloomingdale/get-papers-list/internal/pipeline"
	"github.com/henrybloomingdale/get-papers-list/internal/record"
)

const (
	msgNoPapers   = "No papers found."
	msgNoRelevant = "No relevant papers with non-academic authors found."
)

var (
	flagFile    string
	flagDebug   bool
	flagJSON    bool
	flagHuman   bool
	flagRIS     string
	flagLimit   int
	flagWorkers int
	flagSort    string
	flagYear    string
	flagType    string
	flagAPIKey  string
	flagEmail   string
	flagLexicon string
	flagConfig  string
)

// Resolved in PersistentPreRunE.
var (
	settings *config.Settings
	logger   = zerolog.Nop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "get-papers-list <query>",
	Short: "List PubMed papers with pharmaceutical or biotech authors",
	Long: `Search PubMed and keep the papers that have at least one author affiliated
with a pharmaceutical or biotech company. Results are written as CSV with the
columns PubMedID, Title, PublicationDate, NonAcademicAuthor(s),
CompanyAffiliation(s) and CorrespondingAuthorEmail.`,
	Args:              cobra.MinimumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}

		query := buildQuery(args)
		logger.Debug().Str("query", query).Msg("searching PubMed")

		result, err := runner.Run(cmd.Context(), query)
		if err != nil {
			return withHint(fmt.Errorf("search failed: %w", err))
		}
		return writeResult(cmd, result)
	},
}

// fetchCmd classifies known PMIDs without searching.
var fetchCmd = &cobra.Command{
	Use:   "fetch <pmid> [pmid...]",
	Short: "Classify the authors of specific PMIDs",
	Long:  `Fetch the given PMIDs and list those with at least one non-academic author. PMIDs may be separated by spaces or commas.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pmids, err := normalizePMIDArgs(args)
		if err != nil {
			return err
		}

		runner, err := newRunner()
		if err != nil {
			return err
		}

		result, err := runner.RunIDs(cmd.Context(), pmids)
		if err != nil {
			return withHint(fmt.Errorf("fetch failed: %w", err))
		}
		return writeResult(cmd, result)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagFile, "file", "f", "", "Write CSV results to this file (appends if it exists)")
	pf.BoolVarP(&flagDebug, "debug", "d", false, "Print debug information to stderr")
	pf.BoolVar(&flagJSON, "json", false, "Output as structured JSON")
	pf.BoolVarP(&flagHuman, "human", "H", false, "Rich colorful terminal output")
	pf.StringVar(&flagRIS, "ris", "", "Also export kept papers to this RIS file")
	pf.IntVar(&flagLimit, "limit", config.DefaultLimit, "Maximum number of PMIDs to search")
	pf.IntVar(&flagWorkers, "workers", config.DefaultWorkers, "Concurrent fetch and classify workers")
	pf.StringVar(&flagSort, "sort", "", "Sort order: relevance or date")
	pf.StringVar(&flagYear, "year", "", "Filter by year range (e.g., 2020-2025)")
	pf.StringVar(&flagType, "type", "", "Filter by publication type (review, trial, meta-analysis)")
	pf.StringVar(&flagAPIKey, "api-key", "", "NCBI API key (or set NCBI_API_KEY env var)")
	pf.StringVar(&flagEmail, "email", "", "Contact email sent to NCBI")
	pf.StringVar(&flagLexicon, "lexicon", "", "YAML file extending the affiliation keyword lists")
	pf.StringVar(&flagConfig, "config", "", "Config file (default ./get-papers-list.yaml or ~/.config/get-papers-list/get-papers-list.yaml)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup validates flags, then resolves settings and the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := validateGlobalFlags(cmd); err != nil {
		return err
	}

	s, err := config.Load(flagConfig, cmd.Flags())
	if err != nil {
		return err
	}
	settings = s

	logger = logging.New(os.Stderr, s.Debug)
	if s.ConfigFile != "" {
		logger.Debug().Str("path", s.ConfigFile).Msg("using config file")
	}
	return nil
}

var validSorts = map[string]string{
	"relevance": "relevance",
	"date":      "pub_date",
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

func validateGlobalFlags(cmd *cobra.Command) error {
	if flagLimit < 1 {
		return fmt.Errorf("--limit must be >= 1 (got %d)", flagLimit)
	}
	if flagWorkers < 1 {
		return fmt.Errorf("--workers must be >= 1 (got %d)", flagWorkers)
	}
	if flagSort != "" {
		if _, ok := validSorts[strings.ToLower(flagSort)]; !ok {
			return fmt.Errorf("invalid --sort %q (use relevance or date)", flagSort)
		}
	}
	if flagYear != "" {
		if _, _, err := parseYearRange(flagYear); err != nil {
			return err
		}
	}
	if flagJSON && flagHuman {
		return fmt.Errorf("--json and --human are mutually exclusive")
	}

	switch cmd.Name() {
	case "classify", "version":
		if flagRIS != "" || flagFile != "" {
			return fmt.Errorf("--ris and --file are not supported by %s", cmd.Name())
		}
	}
	return nil
}

// parseYearRange accepts "2024" or "2020-2025".
func parseYearRange(s string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	minYear := strings.TrimSpace(parts[0])
	maxYear := minYear
	if len(parts) == 2 {
		maxYear = strings.TrimSpace(parts[1])
	}
	if !yearPattern.MatchString(minYear) || !yearPattern.MatchString(maxYear) {
		return "", "", fmt.Errorf("invalid --year %q (use YYYY or YYYY-YYYY)", s)
	}
	lo, _ := strconv.Atoi(minYear)
	hi, _ := strconv.Atoi(maxYear)
	if lo > hi {
		return "", "", fmt.Errorf("invalid --year %q: start year is after end year", s)
	}
	return minYear, maxYear, nil
}

var pmidPattern = regexp.MustCompile(`^\d+$`)

// normalizePMIDArgs splits comma-separated arguments and validates each PMID.
func normalizePMIDArgs(args []string) ([]string, error) {
	var pmids []string
	for _, arg := range args {
		for _, p := range strings.Split(arg, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !pmidPattern.MatchString(p) {
				return nil, fmt.Errorf("invalid PMID %q", p)
			}
			pmids = append(pmids, p)
		}
	}
	if len(pmids) == 0 {
		return nil, fmt.Errorf("at least one PMID is required")
	}
	return pmids, nil
}

func buildQuery(args []string) string {
	query := strings.Join(args, " ")

	// Multi-word publication types must be quoted.
	if flagType != "" {
		typeMap := map[string]string{
			"review":        `"review"[pt]`,
			"trial":         `"clinical trial"[pt]`,
			"meta-analysis": `"meta-analysis"[pt]`,
			"randomized":    `"randomized controlled trial"[pt]`,
			"case-report":   `"case reports"[pt]`,
		}
		if mapped, ok := typeMap[strings.ToLower(flagType)]; ok {
			query += " AND " + mapped
		} else {
			query += fmt.Sprintf(` AND "%s"[pt]`, flagType)
		}
	}

	return query
}

func outputCfg() output.Config {
	return output.Config{
		JSON:    flagJSON,
		Human:   flagHuman,
		CSVFile: settings.File,
		RISFile: flagRIS,
	}
}

func newBaseClient() *ncbi.BaseClient {
	opts := []ncbi.Option{ncbi.WithLogger(logger)}
	if settings.APIKey != "" {
		opts = append(opts, ncbi.WithAPIKey(settings.APIKey))
	}
	if settings.Email != "" {
		opts = append(opts, ncbi.WithEmail(settings.Email))
	}
	return ncbi.NewBaseClient(opts...)
}

func newEutilsClient() *eutils.Client {
	return eutils.NewClientWithBase(newBaseClient())
}

func newClassifier() (*affiliation.Classifier, error) {
	lex := affiliation.DefaultLexicon()
	if settings.Lexicon != "" {
		var err error
		lex, err = affiliation.LoadLexicon(settings.Lexicon)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("path", settings.Lexicon).Msg("loaded lexicon")
	}
	return affiliation.NewClassifier(lex), nil
}

func newRunner() (*pipeline.Runner, error) {
	cls, err := newClassifier()
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Limit:   settings.Limit,
		Workers: settings.Workers,
		Sort:    validSorts[strings.ToLower(flagSort)],
		Logger:  logger,
	}
	if flagYear != "" {
		opts.MinDate, opts.MaxDate, _ = parseYearRange(flagYear)
	}

	runner := pipeline.New(newEutilsClient(), record.NewBuilder(cls), opts)
	return runner.WithProgress(func(u pipeline.ProgressUpdate) {
		if u.Message != "" {
			logger.Debug().Str("phase", string(u.Phase)).Int("total", u.Total).Msg(u.Message)
		}
	}), nil
}

// withHint appends the user-facing remedy for an NCBI status failure.
func withHint(err error) error {
	var se *ncbi.StatusError
	if !errors.As(err, &se) {
		return err
	}
	if hint := se.Hint(); hint != "" {
		return fmt.Errorf("%w\nhint: %s", err, hint)
	}
	return err
}

func writeResult(cmd *cobra.Command, result *pipeline.Result) error {
	if result.Fetched == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), msgNoPapers)
		return nil
	}
	if len(result.Papers) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), msgNoRelevant)
		return nil
	}

	logger.Info().
		Int("matched", result.Total).
		Int("fetched", result.Fetched).
		Int("kept", len(result.Papers)).
		Msg("papers with non-academic authors")

	if err := output.WritePapers(cmd.OutOrStdout(), result.Papers, outputCfg()); err != nil {
		return err
	}
	if settings.File != "" {
		logger.Info().Str("path", settings.File).Msg("results written")
	}
	return nil
}
