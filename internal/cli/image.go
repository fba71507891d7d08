package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixir/openalex-explorer/internal/imageurl"
)

func newImageCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "image <url>",
		Short: "Resolve an entity image URL to the URL the dashboard shows",
		Long: `Resolve an entity image URL.

Wikimedia Commons redirect URLs are rewritten to the direct upload URL of the
file. Other URLs are printed unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := imageurl.Explain(args[0])
			out := cmd.OutOrStdout()
			if verbose && c.Filename != "" {
				fmt.Fprintf(out, "filename: %s\n", c.Filename)
				fmt.Fprintf(out, "md5:      %s\n", c.Hash)
			}
			fmt.Fprintln(out, c.Converted)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the filename and hash used")
	return cmd
}
