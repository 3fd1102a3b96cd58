// Package services – LinkService
//
// This file implements the LinkService, which issues, looks up and consumes
// the single-use tokens behind the "Sign in" link of the /link command.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/domain"
	"github.com/tbourn/gitcord/internal/repo"
)

// DefaultLinkTTL is how long a pending link token stays valid.
const DefaultLinkTTL = 10 * time.Minute

// LinkService manages pending link tokens. Expired tokens are deleted by a
// timer armed at issue time; reads also ignore expired rows so a missed
// timer (e.g. after a restart) cannot extend a token's life.
type LinkService struct {
	DB    *gorm.DB
	Clock clock.Clock
	TTL   time.Duration
	Log   zerolog.Logger
}

// NewLinkService constructs a LinkService with the default TTL.
func NewLinkService(db *gorm.DB, clk clock.Clock, log zerolog.Logger) *LinkService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &LinkService{DB: db, Clock: clk, TTL: DefaultLinkTTL, Log: log}
}

// Issue creates a token for discordID, replacing earlier tokens of the same
// user, and schedules its deletion at expiry.
func (s *LinkService) Issue(ctx context.Context, discordID string) (*domain.PendingLink, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	link := &domain.PendingLink{
		Token:     token,
		DiscordID: discordID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}
	if err := repo.ReplacePendingLink(ctx, s.DB, link); err != nil {
		return nil, err
	}
	s.Clock.AfterFunc(s.TTL, func() {
		if err := repo.DeletePendingLink(context.Background(), s.DB, token); err != nil {
			s.Log.Warn().Err(err).Msg("deleting expired link token")
		}
	})
	return link, nil
}

// Lookup returns the live token without consuming it.
func (s *LinkService) Lookup(ctx context.Context, token string) (*domain.PendingLink, error) {
	l, err := repo.GetPendingLink(ctx, s.DB, token, s.Clock.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	return l, err
}

// Consume returns the live token and deletes it.
func (s *LinkService) Consume(ctx context.Context, token string) (*domain.PendingLink, error) {
	l, err := repo.ConsumePendingLink(ctx, s.DB, token, s.Clock.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	return l, err
}

// Purge deletes every expired token; run at startup to clean up after
// timers lost to a restart.
func (s *LinkService) Purge(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredLinks(ctx, s.DB, s.Clock.Now())
}

// newToken is hex(sha256(16 random bytes)).
func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	sum := sha256.Sum256(b[:])
	return hex.EncodeToString(sum[:]), nil
}
