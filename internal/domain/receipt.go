package domain

import "time"

// InteractionReceipt records an inbound interaction id that has already been
// accepted, so that a replayed delivery is rejected instead of re-running
// side effects.
type InteractionReceipt struct {
	ID        string    `gorm:"type:varchar(32);primaryKey"`
	UserID    string    `gorm:"type:varchar(32);not null;index"`
	Kind      string    `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (InteractionReceipt) TableName() string { return "interaction_receipts" }
