package cli

import (
	"fmt"
	"os"

	"myPromoGame/domain"

	"gopkg.in/yaml.v3"
)

// Scenario is a shop policy plus the reward set submitted for it.
type Scenario struct {
	Shop    ScenarioShop     `yaml:"shop"`
	Rewards []ScenarioReward `yaml:"rewards"`
}

type ScenarioShop struct {
	Name              string  `yaml:"name"`
	GuaranteedWin     bool    `yaml:"guaranteed_win"`
	WinningPercentage float64 `yaml:"winning_percentage"`
}

type ScenarioReward struct {
	Name           string  `yaml:"name"`
	Percentage     float64 `yaml:"percentage"`
	Unlimited      bool    `yaml:"unlimited"`
	RemainingToWin *int    `yaml:"remaining_to_win"`
	Status         string  `yaml:"status"`
}

// LoadScenario reads and decodes a scenario file. Unknown keys are rejected.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if sc.Shop.Name == "" {
		sc.Shop.Name = "scenario"
	}
	if !sc.Shop.GuaranteedWin && (sc.Shop.WinningPercentage < 0 || sc.Shop.WinningPercentage > 100) {
		return nil, fmt.Errorf("shop winning_percentage must be within 0..100, got %v", sc.Shop.WinningPercentage)
	}

	return &sc, nil
}

func (sc *Scenario) DomainShop() domain.Shop {
	return domain.Shop{
		Name:              sc.Shop.Name,
		IsGuaranteedWin:   sc.Shop.GuaranteedWin,
		WinningPercentage: sc.Shop.WinningPercentage,
		Status:            domain.ShopStatusActive,
	}
}

func (sc *Scenario) Inputs() []domain.RewardInput {
	inputs := make([]domain.RewardInput, 0, len(sc.Rewards))
	for _, r := range sc.Rewards {
		inputs = append(inputs, domain.RewardInput{
			Name:           r.Name,
			Percentage:     r.Percentage,
			IsUnlimited:    r.Unlimited,
			RemainingToWin: r.RemainingToWin,
			Status:         r.Status,
		})
	}
	return inputs
}
