package cli

import (
	"errors"
	"fmt"

	"myPromoGame/business/reward"
	"myPromoGame/domain"

	"github.com/spf13/cobra"
)

// ValidationResult is the json shape of the validate command.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check a reward scenario against the reward set rules",
		Long: `Run the reward set validator over a scenario without touching any store.

The first violated rule is reported, in the same order the service applies them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}

	res := validateScenario(sc)
	out := cmd.OutOrStdout()

	if opts.Format == "json" {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else if res.Valid {
		fmt.Fprintf(out, "✓ %s: %d reward(s) valid\n", sc.Shop.Name, len(sc.Rewards))
	} else {
		fmt.Fprintf(out, "✗ %s: %s\n", res.Kind, res.Message)
		if res.Index != nil {
			fmt.Fprintf(out, "  at reward #%d\n", *res.Index)
		}
	}

	if !res.Valid {
		return ErrReported
	}
	return nil
}

func validateScenario(sc *Scenario) ValidationResult {
	err := reward.NewSetValidator(nil).Validate(sc.DomainShop(), sc.Inputs())
	if err == nil {
		return ValidationResult{Valid: true}
	}

	res := ValidationResult{Message: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		res.Kind = string(verr.Kind)
		res.Message = verr.Message
		if verr.Index >= 0 {
			idx := verr.Index
			res.Index = &idx
		}
	}
	return res
}
