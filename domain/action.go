package domain

import "time"

// Action is an entry of the global engagement-action catalog
// (follow an account, leave a review, ...).
type Action struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;type:text;not null" json:"name"`
	Type        string    `gorm:"column:type;type:text" json:"type"`
	DefaultLink string    `gorm:"column:default_link;type:text" json:"default_link"`
	IsActive    bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Action) TableName() string {
	return "actions"
}

type ChosenAction struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ShopID     uint64    `gorm:"column:shop_id;not null;index" json:"shop_id"`
	ActionID   uint64    `gorm:"column:action_id;not null" json:"action_id"`
	Name       string    `gorm:"column:name;type:text" json:"name"`
	Position   int       `gorm:"column:position;not null" json:"position"`
	TargetLink string    `gorm:"column:target_link;type:text" json:"target_link"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ChosenAction) TableName() string {
	return "chosen_actions"
}

// ActionInput is one entry of the ordered action list submitted by a merchant.
// A zero Position is assigned from the list order.
type ActionInput struct {
	ID         *uint64 `json:"id,omitempty"`
	ActionID   uint64  `json:"action_id" validate:"required"`
	Name       string  `json:"name"`
	Position   int     `json:"position" validate:"gte=0"`
	TargetLink string  `json:"target_link" validate:"omitempty,url"`
}

type ActionSyncResult = SyncResult[ChosenAction]
