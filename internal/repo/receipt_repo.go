// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides helpers for interaction receipts used to
// reject replayed interaction deliveries.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/gitcord/internal/domain"
)

// CreateReceipt records interaction id as processed until now+ttl. A live
// receipt for the same id yields ErrDuplicate; an expired one is replaced.
func CreateReceipt(ctx context.Context, db *gorm.DB, id, userID, kind string, now time.Time, ttl time.Duration) (*domain.InteractionReceipt, error) {
	rec := &domain.InteractionReceipt{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND expires_at <= ?", id, now).Delete(&domain.InteractionReceipt{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredReceipts deletes receipts that expired at or before now.
func PurgeExpiredReceipts(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.InteractionReceipt{})
	return res.RowsAffected, res.Error
}
