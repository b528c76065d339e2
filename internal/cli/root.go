// Package cli implements the drawsim command line: offline validation and
// Monte-Carlo simulation of a shop's reward set.
package cli

import (
	"fmt"
	"slices"

	"myPromoGame/pkg/logger"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the drawsim CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "drawsim",
		Short: "Offline reward draw simulator",
		Long:  "Validate reward scenarios and simulate the draw against in-memory stores.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			// engine logs go to stderr so they never mix with json output
			logger.Init("cli")
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}
