// Package handlers defines HTTP-layer error codes used across all endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status
// semantics; domain codes name failures the status alone cannot convey.
// Every error response carries a status and one of these codes:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "link_not_found",
//	  "message": "unknown or expired link"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeLinkNotFound   = "link_not_found"
	ErrCodeOAuthDisabled  = "oauth_disabled"
	ErrCodeExchangeFailed = "exchange_failed"
	ErrCodeUpstream       = "upstream_error"
	ErrCodeLinkFailed     = "link_failed"
)
