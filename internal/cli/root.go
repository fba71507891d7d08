// Package cli implements the oactl command tree.
package cli

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/helixir/openalex-explorer/internal/config"
	"github.com/helixir/openalex-explorer/internal/openalex"
)

// clientOptions are the OpenAlex settings shared by commands that call the API.
type clientOptions struct {
	baseURL string
	email   string
	timeout time.Duration
}

func (o *clientOptions) client() *openalex.Client {
	return openalex.New(openalex.Config{
		BaseURL: o.baseURL,
		Email:   o.email,
		Timeout: o.timeout,
	})
}

// NewRootCmd builds the oactl root command.
func NewRootCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "oactl",
		Short: "Inspect OpenAlex records from the command line",
		Long: `oactl runs the explorer's building blocks without the dashboard.

It can print a work's reconstructed abstract, show the page window for a list,
and resolve the logo URLs the dashboard displays.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if opts.email == "" {
				opts.email = os.Getenv(config.EnvPrefix + "_OPENALEX_EMAIL")
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", openalex.DefaultBaseURL, "OpenAlex API base URL")
	flags.StringVar(&opts.email, "email", "", "contact email for the OpenAlex polite pool")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(newWorkCmd(opts))
	cmd.AddCommand(newPagesCmd())
	cmd.AddCommand(newImageCmd())

	return cmd
}
