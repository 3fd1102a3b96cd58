// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the structured access logger of the
// service. Request and response bodies are never logged: interaction bodies
// carry interaction tokens and the OAuth callback carries authorization codes.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RequestID())
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskQuery: []string{"code", "state"},
//	}))
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra header names whose values are replaced with
// "[REDACTED]", on top of Authorization, Cookie, Set-Cookie and the Discord
// signature header. MaskQuery lists query parameters treated the same way.
// Matching is case-insensitive.
type RedactOptions struct {
	MaskHeaders []string
	MaskQuery   []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// GitHub token prefixes: classic, OAuth, user-to-server, server-to-server,
	// refresh and fine-grained.
	ghTokenRE = regexp.MustCompile(`\b(?:gh[pousr]_[A-Za-z0-9]{20,}|github_pat_[A-Za-z0-9_]{20,})\b`)
	// Pending link tokens are 64 hex characters and appear in /github/verify.
	hexTokenRE = regexp.MustCompile(`(?i)\b[0-9a-f]{64}\b`)
)

// redact scrubs identifiers and credentials from s. UUIDs go first so the
// looser patterns never see their segments.
func redact(s string) string {
	if s == "" {
		return s
	}
	out := uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	out = ghTokenRE.ReplaceAllString(out, "[REDACTED:token]")
	out = hexTokenRE.ReplaceAllString(out, "[REDACTED:token]")
	out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
	return out
}

// redactQuery masks the listed parameters entirely and scrubs the rest.
func redactQuery(raw string, mask map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return redact(raw)
	}
	for k, vv := range q {
		if _, ok := mask[strings.ToLower(k)]; ok {
			q[k] = []string{"[REDACTED]"}
			continue
		}
		for i, v := range vv {
			vv[i] = redact(v)
		}
	}
	return q.Encode()
}

func lowerSet(base []string, extra []string) map[string]struct{} {
	out := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, h := range list {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				out[h] = struct{}{}
			}
		}
	}
	return out
}

// RedactingLogger returns a Gin middleware that attaches a request-scoped
// zerolog.Logger (see LoggerFrom) and writes one access log line per request
// with sensitive values scrubbed. Level is info, warn for 4xx and error for
// 5xx or when handlers recorded errors.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := lowerSet([]string{"authorization", "cookie", "set-cookie", strings.ToLower(HeaderSignature)}, opts.MaskHeaders)
	maskQuery := lowerSet([]string{"code", "state", "access_token"}, opts.MaskQuery)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = redact(c.Request.URL.Path)
		}
		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}

		l := log.With().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case len(c.Errors) > 0 || status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}
		ev := l.WithLevel(level)
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		// VerifyInteraction runs after this middleware and stores the user.
		if uid := userIDFromCtx(c); uid != "" {
			ev = ev.Str("user_id", uid)
		}
		ev.
			Str("query", truncate(redactQuery(c.Request.URL.RawQuery, maskQuery), maxQueryLogLength)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
