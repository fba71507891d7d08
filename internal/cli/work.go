package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/openalex-explorer/internal/openalex"
)

func newWorkCmd(opts *clientOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "work <id>",
		Short: "Print a work's title and reconstructed abstract",
		Long: `Fetch a work from OpenAlex and print its title and abstract.

The id may be an OpenAlex ID (W2741809807), an OpenAlex URL, a DOI or a
DOI URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			work, err := opts.client().GetWork(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetching work: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					ID       string `json:"id"`
					Title    string `json:"title"`
					Abstract string `json:"abstract"`
				}{openalex.ShortID(work.ID), work.Name(), work.Abstract()})
			}

			title := work.Name()
			fmt.Fprintln(out, title)
			fmt.Fprintln(out, strings.Repeat("=", len([]rune(title))))
			if text := work.Abstract(); text != "" {
				fmt.Fprintln(out, text)
			} else {
				fmt.Fprintln(out, "(no abstract)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
