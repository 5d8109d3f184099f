package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/henrybloomingdale/get-papers-list/internal/output"
)

var flagAuthorEmail string

// classifyCmd classifies one affiliation string without touching PubMed.
var classifyCmd = &cobra.Command{
	Use:   "classify <affiliation>",
	Short: "Classify a single affiliation string",
	Long: `Show how an affiliation string is classified: academic, non-academic or
unclassified, the signal that decided it, and the company label.`,
	Example: `  get-papers-list classify "Regeneron Pharmaceuticals, Tarrytown, NY, USA"
  get-papers-list classify "Tarrytown, NY" --author-email r.lee@regeneron.com`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cls, err := newClassifier()
		if err != nil {
			return err
		}

		text := strings.Join(args, " ")
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("affiliation text is required")
		}
		v := cls.ClassifyWithEmail(text, flagAuthorEmail)

		if flagJSON {
			return output.WriteJSON(cmd.OutOrStdout(), struct {
				Affiliation string `json:"affiliation"`
				Verdict     any    `json:"verdict"`
			}{text, v})
		}
		return output.FormatVerdict(cmd.OutOrStdout(), text, v, flagHuman)
	},
}

func init() {
	// Distinct from the persistent --email, which is the NCBI contact address.
	classifyCmd.Flags().StringVar(&flagAuthorEmail, "author-email", "", "Author email to feed the domain heuristic")
}
