// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries reported by the
// health endpoint.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/gitcord/internal/domain"
)

// LinkStats summarizes link state: linked accounts, outstanding pending
// tokens and the most recent account update.
type LinkStats struct {
	Users        int64      `json:"users"`
	PendingLinks int64      `json:"pending_links"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
}

// GetLinkStats runs a few lightweight count queries. Expired tokens not yet
// purged are excluded.
func GetLinkStats(ctx context.Context, db *gorm.DB, now time.Time) (LinkStats, error) {
	var st LinkStats
	q := db.WithContext(ctx)
	if err := q.Model(&domain.User{}).Count(&st.Users).Error; err != nil {
		return LinkStats{}, err
	}
	if err := q.Model(&domain.PendingLink{}).Where("expires_at > ?", now).Count(&st.PendingLinks).Error; err != nil {
		return LinkStats{}, err
	}
	if st.Users == 0 {
		return st, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err := q.Model(&domain.User{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return LinkStats{}, err
	}
	st.LastUpdated = &row.UpdatedAt
	return st, nil
}
