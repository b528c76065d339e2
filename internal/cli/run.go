package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"myPromoGame/business/reward"
	"myPromoGame/domain"
	"myPromoGame/internal/repository/memory"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	Draws int
	Seed  uint64
}

// RewardTally is the share of draws one reward won.
type RewardTally struct {
	Name           string  `json:"name"`
	Percentage     float64 `json:"percentage"`
	Wins           int     `json:"wins"`
	Share          float64 `json:"share"`
	RemainingToWin *int    `json:"remaining_to_win,omitempty"`
}

// SimulationResult is the json shape of the run command.
type SimulationResult struct {
	Draws    int            `json:"draws"`
	Seed     uint64         `json:"seed"`
	Outcomes map[string]int `json:"outcomes"`
	Rewards  []RewardTally  `json:"rewards"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Simulate draws on a reward scenario",
		Long: `Load the scenario into in-memory stores, synchronize its reward set and
draw repeatedly. Limited rewards run out exactly as they would in production.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), rootOpts, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.Draws, "draws", "n", 10000, "number of draws")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "rng seed (0 picks a random one)")

	return cmd
}

func runSimulation(ctx context.Context, rootOpts *RootOptions, opts *RunOptions, path string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Draws < 1 {
		return fmt.Errorf("--draws must be at least 1, got %d", opts.Draws)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}

	res, err := Simulate(ctx, sc, opts.Draws, opts.Seed)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("scenario rejected: %w", err)
		}
		return err
	}

	if rootOpts.Format == "json" {
		return writeJSON(out, res)
	}
	printSimulation(out, sc, res)
	return nil
}

// Simulate synchronizes the scenario into a fresh in-memory store and runs
// the given number of draws against it.
func Simulate(ctx context.Context, sc *Scenario, draws int, seed uint64) (SimulationResult, error) {
	st := memory.NewStore()
	shop := st.AddShop(sc.DomainShop())
	st.AddGameAssignment(domain.GameAssignment{ShopID: shop.ID, GameID: 1, IsActive: true})

	shopRepo := memory.NewShopRepository(st)
	rewardRepo := memory.NewRewardRepository(st)

	sync := reward.NewSetSynchronizer(shopRepo, rewardRepo, st, reward.NewSetValidator(nil))
	if _, err := sync.Synchronize(ctx, shop.ID, sc.Inputs()); err != nil {
		return SimulationResult{}, err
	}

	// no event sink: a long run would only pile up audit rows
	sel := reward.NewSelector(shopRepo, memory.NewGameAssignmentRepository(st), rewardRepo, nil, st, reward.NewRand(seed), 0)

	res := SimulationResult{
		Draws:    draws,
		Seed:     seed,
		Outcomes: make(map[string]int),
	}
	wins := make(map[uint64]int)
	for i := 0; i < draws; i++ {
		dr, err := sel.Draw(ctx, shop.ID)
		if err != nil {
			return SimulationResult{}, fmt.Errorf("draw %d: %w", i+1, err)
		}
		res.Outcomes[dr.Message]++
		if dr.Reward != nil {
			wins[dr.Reward.ID]++
		}
	}

	stored, err := rewardRepo.FindByShop(ctx, shop.ID)
	if err != nil {
		return SimulationResult{}, err
	}
	for _, r := range stored {
		res.Rewards = append(res.Rewards, RewardTally{
			Name:           r.Name,
			Percentage:     r.Percentage,
			Wins:           wins[r.ID],
			Share:          float64(wins[r.ID]) / float64(draws),
			RemainingToWin: r.RemainingToWin,
		})
	}

	return res, nil
}

func printSimulation(out io.Writer, sc *Scenario, res SimulationResult) {
	fmt.Fprintf(out, "%s: %d draws (seed %d)\n\n", sc.Shop.Name, res.Draws, res.Seed)

	messages := make([]string, 0, len(res.Outcomes))
	for m := range res.Outcomes {
		messages = append(messages, m)
	}
	sort.Strings(messages)

	fmt.Fprintln(out, "outcomes:")
	for _, m := range messages {
		n := res.Outcomes[m]
		fmt.Fprintf(out, "  %-24s %8d  %6.2f%%\n", m, n, 100*float64(n)/float64(res.Draws))
	}

	fmt.Fprintln(out, "\nrewards:")
	for _, r := range res.Rewards {
		stock := "unlimited"
		if r.RemainingToWin != nil {
			stock = fmt.Sprintf("%d left", *r.RemainingToWin)
		}
		fmt.Fprintf(out, "  %-24s %6.2f%%  %8d wins  %6.2f%%  %s\n", r.Name, r.Percentage, r.Wins, 100*r.Share, stock)
	}
}
