package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/openalex-explorer/internal/pagination"
)

func newPagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages <current> <total>",
		Short: "Print the page window for a list",
		Example: `  oactl pages 50 100
  1 ... 49 [50] 51 ... 100`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("current page %q is not a number", args[0])
			}
			total, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("total pages %q is not a number", args[1])
			}

			current = pagination.Clamp(current, total)
			window := pagination.Window(current, total)
			parts := make([]string, len(window))
			for i, e := range window {
				if e.Page() == current {
					parts[i] = "[" + e.String() + "]"
					continue
				}
				parts[i] = e.String()
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
			return nil
		},
	}
}
