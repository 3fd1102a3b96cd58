// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides helpers for single-use pending link
// tokens.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/gitcord/internal/domain"
)

// ReplacePendingLink stores link after removing every earlier token of the
// same Discord user.
func ReplacePendingLink(ctx context.Context, db *gorm.DB, link *domain.PendingLink) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("discord_id = ?", link.DiscordID).Delete(&domain.PendingLink{}).Error; err != nil {
			return err
		}
		if err := tx.Create(link).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
}

// GetPendingLink returns a non-expired token or ErrNotFound.
func GetPendingLink(ctx context.Context, db *gorm.DB, token string, now time.Time) (*domain.PendingLink, error) {
	var l domain.PendingLink
	err := db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ConsumePendingLink returns and deletes a non-expired token in one
// transaction, so a token can be used at most once.
func ConsumePendingLink(ctx context.Context, db *gorm.DB, token string, now time.Time) (*domain.PendingLink, error) {
	var out *domain.PendingLink
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := GetPendingLink(ctx, tx, token, now)
		if err != nil {
			return err
		}
		res := tx.Where("token = ?", token).Delete(&domain.PendingLink{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		out = l
		return nil
	})
	return out, err
}

// DeletePendingLink removes a token whether or not it expired.
func DeletePendingLink(ctx context.Context, db *gorm.DB, token string) error {
	return db.WithContext(ctx).Where("token = ?", token).Delete(&domain.PendingLink{}).Error
}

// PurgeExpiredLinks deletes tokens that expired at or before now.
func PurgeExpiredLinks(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.PendingLink{})
	return res.RowsAffected, res.Error
}
