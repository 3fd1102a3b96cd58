// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User
// model: linked Discord/GitHub accounts.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return ErrNotFound.
//   - Unique violations on discord_id or github_id return ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/gitcord/internal/domain"
)

// CreateUser inserts a linked account. The ID is a random UUID when empty.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUserByDiscordID fetches the account linked to a Discord user.
func GetUserByDiscordID(ctx context.Context, db *gorm.DB, discordID string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("discord_id = ?", discordID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByGitHubID fetches the account linked to a GitHub user.
func GetUserByGitHubID(ctx context.Context, db *gorm.DB, githubID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("github_id = ?", githubID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserFlags updates the misc settings columns of a user. Only keys
// present in flags ("ephemeral", "simplified") are written.
func UpdateUserFlags(ctx context.Context, db *gorm.DB, id string, flags map[string]bool) error {
	if len(flags) == 0 {
		return nil
	}
	cols := make(map[string]any, len(flags)+1)
	for k, v := range flags {
		cols[k] = v
	}
	cols["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user; repo settings cascade with it.
func DeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SQLite only cascades with foreign_keys=ON; delete explicitly too.
		if err := tx.Where("user_id = ?", id).Delete(&domain.RepoSetting{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
