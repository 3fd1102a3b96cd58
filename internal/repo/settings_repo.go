// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for per-repository
// settings.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/gitcord/internal/domain"
)

// GetRepoSetting returns the settings of userID for owner/repo, or
// ErrNotFound.
func GetRepoSetting(ctx context.Context, db *gorm.DB, userID, owner, repo string) (*domain.RepoSetting, error) {
	var s domain.RepoSetting
	err := db.WithContext(ctx).
		Where("user_id = ? AND owner = ? AND repo = ?", userID, owner, repo).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertRepoSetting inserts s or overwrites the automation columns of the
// existing row for (user_id, owner, repo).
func UpsertRepoSetting(ctx context.Context, db *gorm.DB, s *domain.RepoSetting) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "owner"}, {Name: "repo"}},
		DoUpdates: clause.AssignmentColumns([]string{"auto_project", "auto_assignees", "updated_at"}),
	}).Create(s).Error
}
