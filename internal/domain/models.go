// Package domain defines the persistence models for linked accounts, their
// per-repository settings and pending link tokens. These types are mapped
// with GORM and form the data layer of the bot.
package domain

import (
	"strings"
	"time"
)

// User links a Discord identity to a GitHub account. The access token is
// stored sealed; only the services layer opens it.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - DiscordID: snowflake of the Discord user (unique).
//   - GitHubID: numeric id of the GitHub account (unique).
//   - Login / Name: GitHub login and display name at link time.
//   - AccessToken: sealed GitHub token, never serialized.
//   - Ephemeral: answer command output only to the invoker.
//   - Simplified: render issue and pull request output without embeds.
//   - Settings: per-repository automation, cascade-deleted with the user.
type User struct {
	ID          string        `json:"id"          gorm:"type:char(36);primaryKey"`
	DiscordID   string        `json:"discord_id"  gorm:"type:varchar(32);not null;uniqueIndex:ux_users_discord"`
	GitHubID    int64         `json:"github_id"   gorm:"column:github_id;not null;uniqueIndex:ux_users_github"`
	Login       string        `json:"login"       gorm:"type:varchar(64);not null;index"`
	Name        string        `json:"name"        gorm:"type:varchar(255)"`
	AccessToken string        `json:"-"           gorm:"type:text;not null"`
	Ephemeral   bool          `json:"ephemeral"   gorm:"not null;default:false"`
	Simplified  bool          `json:"simplified"  gorm:"not null;default:false"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Settings    []RepoSetting `json:"-"           gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// RepoSetting holds automation applied when the user opens issues in one
// repository.
type RepoSetting struct {
	ID            uint      `json:"-"              gorm:"primaryKey"`
	UserID        string    `json:"user_id"        gorm:"type:char(36);not null;uniqueIndex:ux_repo_settings,priority:1"`
	Owner         string    `json:"owner"          gorm:"type:varchar(100);not null;uniqueIndex:ux_repo_settings,priority:2"`
	Repo          string    `json:"repo"           gorm:"type:varchar(100);not null;uniqueIndex:ux_repo_settings,priority:3"`
	AutoProject   string    `json:"auto_project"   gorm:"type:varchar(100)"`
	AutoAssignees string    `json:"auto_assignees" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for RepoSetting.
func (RepoSetting) TableName() string { return "repo_settings" }

// Assignees splits AutoAssignees into logins.
func (s RepoSetting) Assignees() []string {
	var out []string
	for _, a := range strings.Split(s.AutoAssignees, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// PendingLink is a single-use token handed to a Discord user to complete the
// GitHub OAuth sign-in.
type PendingLink struct {
	Token     string    `gorm:"type:char(64);primaryKey"`
	DiscordID string    `gorm:"type:varchar(32);not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for PendingLink.
func (PendingLink) TableName() string { return "pending_links" }
