package reward

import (
	"errors"

	"myPromoGame/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SetValidator checks a submitted reward set against shop policy. Rules run
// in a fixed order and the first violated rule is reported.
type SetValidator struct {
	validate *validator.Validate
}

func NewSetValidator(validate *validator.Validate) *SetValidator {
	if validate == nil {
		validate = validator.New()
	}
	return &SetValidator{validate: validate}
}

func (v *SetValidator) Validate(shop domain.Shop, inputs []domain.RewardInput) error {
	if err := v.checkShape(inputs); err != nil {
		return err
	}

	rules := []func(domain.Shop, []domain.RewardInput) error{
		checkDuplicateNames,
		checkPercentages,
		checkStock,
		checkPercentageSum,
		checkGuaranteedWin,
	}
	for _, rule := range rules {
		if err := rule(shop, inputs); err != nil {
			return err
		}
	}

	return nil
}

func (v *SetValidator) checkShape(inputs []domain.RewardInput) error {
	for i, in := range inputs {
		err := v.validate.Struct(in)
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return err
		}

		switch verrs[0].Field() {
		case "Status":
			return domain.NewValidationError(domain.KindInvalidStatus, i, "status must be ACTIVE or ARCHIVED, got %q", in.Status)
		default:
			return domain.NewValidationError(domain.KindInvalidName, i, "reward name is required")
		}
	}

	for i, in := range inputs {
		if NormalizeName(in.Name) == "" {
			return domain.NewValidationError(domain.KindInvalidName, i, "reward name is required")
		}
	}

	return nil
}

func checkDuplicateNames(_ domain.Shop, inputs []domain.RewardInput) error {
	seen := make(map[string]int, len(inputs))
	for i, in := range inputs {
		key := NormalizeName(in.Name)
		if first, dup := seen[key]; dup {
			return domain.NewValidationError(domain.KindDuplicateName, i, "name %q duplicates item %d", in.Name, first)
		}
		seen[key] = i
	}
	return nil
}

func checkPercentages(_ domain.Shop, inputs []domain.RewardInput) error {
	for i, in := range inputs {
		if in.Percentage <= 0 || in.Percentage > 100 {
			return domain.NewValidationError(domain.KindInvalidPercentage, i, "percentage must be in (0, 100], got %v", in.Percentage)
		}
	}
	return nil
}

func checkStock(_ domain.Shop, inputs []domain.RewardInput) error {
	for i, in := range inputs {
		if in.IsUnlimited {
			if in.RemainingToWin != nil && *in.RemainingToWin != 0 {
				return domain.NewValidationError(domain.KindInvalidStock, i, "unlimited reward cannot carry remaining stock")
			}
			continue
		}
		if in.RemainingToWin == nil || *in.RemainingToWin < 1 {
			return domain.NewValidationError(domain.KindInvalidStock, i, "limited reward needs remaining stock of at least 1")
		}
	}
	return nil
}

func checkPercentageSum(_ domain.Shop, inputs []domain.RewardInput) error {
	sum := decimal.Zero
	active := 0
	for _, in := range inputs {
		if in.EffectiveStatus() != domain.RewardStatusActive {
			continue
		}
		active++
		sum = sum.Add(decimal.NewFromFloat(in.Percentage))
	}

	if active > 0 && !sum.Equal(hundred) {
		return domain.NewValidationError(domain.KindPercentageSumInvalid, -1, "active percentages must sum to 100, got %s", sum.String())
	}
	return nil
}

func checkGuaranteedWin(shop domain.Shop, inputs []domain.RewardInput) error {
	if !shop.IsGuaranteedWin {
		return nil
	}
	for _, in := range inputs {
		if in.EffectiveStatus() == domain.RewardStatusActive && in.IsUnlimited {
			return nil
		}
	}
	return domain.NewValidationError(domain.KindGuaranteedWinRequiresUnlimited, -1, "guaranteed-win shop needs at least one active unlimited reward")
}
