package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.play_records (
//     id                  BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     user_id             BIGINT NOT NULL,
//     shop_id             BIGINT NOT NULL,
//     game_assignment_id  BIGINT NOT NULL,
//     reward_id           BIGINT,
//     last_played_at      TIMESTAMPTZ NOT NULL,
//     play_count          INTEGER NOT NULL DEFAULT 0,
//     UNIQUE (user_id, shop_id)
// );

type PlayRecord struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_play_user_shop" json:"user_id"`
	ShopID           uint64    `gorm:"column:shop_id;not null;uniqueIndex:idx_play_user_shop" json:"shop_id"`
	GameAssignmentID uint64    `gorm:"column:game_assignment_id;not null" json:"game_assignment_id"`
	RewardID         *uint64   `gorm:"column:reward_id" json:"reward_id"`
	LastPlayedAt     time.Time `gorm:"column:last_played_at;not null" json:"last_played_at"`
	PlayCount        int       `gorm:"column:play_count;default:0" json:"play_count"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PlayRecord) TableName() string {
	return "play_records"
}

type Eligibility struct {
	Allowed       bool       `json:"allowed"`
	NextAllowedAt *time.Time `json:"next_allowed_at,omitempty"`
	RemainingMs   int64      `json:"remaining_ms,omitempty"`
}

type PlayOutcome struct {
	Reward        *Reward    `json:"reward"`
	Message       string     `json:"message"`
	Record        PlayRecord `json:"play_record"`
	NextAllowedAt time.Time  `json:"next_allowed_at"`
}

const (
	DrawOutcomeWon         = "won"
	DrawOutcomeNoWin       = "no_win"
	DrawOutcomeNoRewards   = "no_rewards"
	DrawOutcomeNotSelected = "not_selected"
	DrawOutcomeUnavailable = "unavailable"
	DrawOutcomeError       = "error"
)

// DrawEvent is the append-only audit row written for every draw.
type DrawEvent struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ShopID    uint64            `gorm:"column:shop_id;not null;index" json:"shop_id"`
	UserID    uint64            `gorm:"column:user_id" json:"user_id"`
	RewardID  *uint64           `gorm:"column:reward_id" json:"reward_id"`
	Outcome   string            `gorm:"column:outcome;type:text;not null" json:"outcome"`
	Attempts  int               `gorm:"column:attempts" json:"attempts"`
	Context   datatypes.JSONMap `gorm:"column:context" json:"context"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (DrawEvent) TableName() string {
	return "draw_events"
}
