package domain

import "time"

// CREATE TABLE public.shops (
//     id                  BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name                TEXT NOT NULL,
//     is_guaranteed_win   BOOLEAN NOT NULL DEFAULT FALSE,
//     winning_percentage  NUMERIC NOT NULL DEFAULT 0,
//     status              TEXT NOT NULL DEFAULT 'ACTIVE',
//     created_at          TIMESTAMPTZ DEFAULT NOW(),
//     updated_at          TIMESTAMPTZ DEFAULT NOW()
// );

const (
	ShopStatusActive   = "ACTIVE"
	ShopStatusInactive = "INACTIVE"
)

type Shop struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string    `gorm:"column:name;type:text;not null" json:"name"`
	IsGuaranteedWin   bool      `gorm:"column:is_guaranteed_win;default:false" json:"is_guaranteed_win"`
	WinningPercentage float64   `gorm:"column:winning_percentage;type:numeric;default:0" json:"winning_percentage"`
	Status            string    `gorm:"column:status;type:text;default:ACTIVE" json:"status"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Shop) TableName() string {
	return "shops"
}

// GameAssignment links a shop to the game its customers currently play.
// Only one assignment per shop is expected to be active at a time.
type GameAssignment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ShopID    uint64    `gorm:"column:shop_id;not null;index" json:"shop_id"`
	GameID    uint64    `gorm:"column:game_id;not null" json:"game_id"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (GameAssignment) TableName() string {
	return "game_assignments"
}
