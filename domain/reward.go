package domain

import "time"

// CREATE TABLE public.rewards (
//     id                BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     shop_id           BIGINT NOT NULL,
//     name              TEXT NOT NULL,
//     percentage        NUMERIC NOT NULL,
//     is_unlimited      BOOLEAN NOT NULL DEFAULT FALSE,
//     remaining_to_win  INTEGER,
//     winner_count      INTEGER NOT NULL DEFAULT 0,
//     status            TEXT NOT NULL DEFAULT 'ACTIVE',
//     created_at        TIMESTAMPTZ DEFAULT NOW(),
//     updated_at        TIMESTAMPTZ DEFAULT NOW(),
//     CHECK (remaining_to_win IS NULL OR remaining_to_win >= 0)
// );

const (
	RewardStatusActive   = "ACTIVE"
	RewardStatusArchived = "ARCHIVED"
)

type Reward struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ShopID         uint64    `gorm:"column:shop_id;not null;index" json:"shop_id"`
	Name           string    `gorm:"column:name;type:text;not null" json:"name"`
	Percentage     float64   `gorm:"column:percentage;type:numeric;not null" json:"percentage"`
	IsUnlimited    bool      `gorm:"column:is_unlimited;default:false" json:"is_unlimited"`
	RemainingToWin *int      `gorm:"column:remaining_to_win" json:"remaining_to_win"`
	WinnerCount    int       `gorm:"column:winner_count;default:0" json:"winner_count"`
	Status         string    `gorm:"column:status;type:text;default:ACTIVE" json:"status"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Reward) TableName() string {
	return "rewards"
}

// IsEligible reports whether the reward can still be handed out.
func (r Reward) IsEligible() bool {
	if r.Status != RewardStatusActive {
		return false
	}
	if r.IsUnlimited {
		return true
	}
	return r.RemainingToWin != nil && *r.RemainingToWin > 0
}

// RewardInput is one entry of a reward set submitted by a merchant.
// ID is nil for rewards that do not exist yet.
type RewardInput struct {
	ID             *uint64 `json:"id,omitempty"`
	Name           string  `json:"name" validate:"required"`
	Percentage     float64 `json:"percentage"`
	IsUnlimited    bool    `json:"is_unlimited"`
	RemainingToWin *int    `json:"remaining_to_win,omitempty"`
	Status         string  `json:"status" validate:"omitempty,oneof=ACTIVE ARCHIVED"`
}

// EffectiveStatus defaults an empty status to ACTIVE.
func (in RewardInput) EffectiveStatus() string {
	if in.Status == "" {
		return RewardStatusActive
	}
	return in.Status
}

type SyncResult[T any] struct {
	Created    []T      `json:"created"`
	Updated    []T      `json:"updated"`
	DeletedIDs []uint64 `json:"deleted_ids"`
}

type RewardSyncResult = SyncResult[Reward]

type DrawResult struct {
	Reward           *Reward `json:"reward"`
	Message          string  `json:"message"`
	GameAssignmentID uint64  `json:"game_assignment_id"`
	Guaranteed       bool    `json:"guaranteed"`
}
