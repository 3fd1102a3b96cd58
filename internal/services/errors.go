// Package services defines the business logic for linked accounts, their
// settings and the link flow. This file centralizes service-level error
// values so that they can be returned by service methods and checked by
// callers.
//
// Translation into Discord messages or HTTP status codes is performed by
// the command handlers and the HTTP layer.
package services

import "errors"

var (
	// ErrNotLinked indicates that the Discord user has no linked GitHub account.
	ErrNotLinked = errors.New("account not linked")

	// ErrLinkNotFound is returned for unknown, consumed or expired link tokens.
	ErrLinkNotFound = errors.New("link token not found")

	// ErrNoSettings is returned when a settings edit carries no field.
	ErrNoSettings = errors.New("no settings to update")

	// ErrEmptyToken is returned when a GitHub token is blank.
	ErrEmptyToken = errors.New("access token is empty")
)
