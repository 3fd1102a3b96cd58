// Package services – ReceiptService
//
// This file implements the ReceiptService, which records accepted
// interaction ids so that replayed deliveries are rejected.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/repo"
)

// ErrReplay is returned when an interaction id was already accepted.
var ErrReplay = errors.New("interaction already processed")

// ReceiptService records interaction receipts for TTL.
type ReceiptService struct {
	DB    *gorm.DB
	Clock clock.Clock
	TTL   time.Duration
}

// Record stores a receipt for interaction id, or returns ErrReplay.
func (s *ReceiptService) Record(ctx context.Context, id, userID, kind string) error {
	_, err := repo.CreateReceipt(ctx, s.DB, id, userID, kind, s.Clock.Now(), s.TTL)
	if errors.Is(err, repo.ErrDuplicate) {
		return ErrReplay
	}
	return err
}

// Purge deletes expired receipts.
func (s *ReceiptService) Purge(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredReceipts(ctx, s.DB, s.Clock.Now())
}
