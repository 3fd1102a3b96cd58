// Package httpapi wires the HTTP transport (Gin) to the interaction
// dispatcher, the GitHub sign-in handlers and the middleware stack. It
// centralizes cross-cutting concerns such as tracing, correlation IDs,
// logging/redaction, panic recovery, metrics, CORS, security headers, replay
// protection and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Discord requests are verified before anything reads them
//   - All dependencies injected
package httpapi

import (
	"context"
	"crypto/ed25519"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/gitcord/internal/config"
	"github.com/tbourn/gitcord/internal/http/handlers"
	"github.com/tbourn/gitcord/internal/http/middleware"
	"github.com/tbourn/gitcord/internal/services"
)

// maxBodyBytes caps every request body. Discord interactions are far
// smaller.
const maxBodyBytes = 1 << 20

// ReceiptRecorder stores accepted interaction ids. Record returns
// services.ErrReplay for an id it has seen before.
type ReceiptRecorder interface {
	Record(ctx context.Context, id, userID, kind string) error
}

// Deps are the collaborators RegisterRoutes mounts.
type Deps struct {
	Handlers  *handlers.Handlers
	PublicKey ed25519.PublicKey
	// Receipts is optional; without it replays are not detected.
	Receipts ReceiptRecorder
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with token scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and Security headers
//
// POST /interactions additionally runs signature verification, the replay
// guard and a per Discord user rate limiter, in that order.
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Hub-Signature-256"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(maxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := d.Handlers

	// Liveness/health
	r.GET("/health", h.Health)

	// Discord interactions
	perUser := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP(),
		middleware.WithDeny(h.RateLimited))
	r.POST("/interactions",
		middleware.VerifyInteraction(d.PublicKey),
		middleware.ReplayGuard(receiptFunc(d.Receipts)),
		perUser.Handler(),
		h.Interactions,
	)

	// GitHub sign-in and webhook, per client IP
	perIP := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	gh := r.Group("/github",
		gzip.Gzip(gzip.DefaultCompression),
		perIP.Handler(),
		middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true}),
	)
	{
		gh.GET("/verify/:token", h.VerifyLink)
		gh.GET("/callback", h.OAuthCallback)
		gh.POST("/webhook", h.Webhook)
	}

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

// receiptFunc adapts a ReceiptRecorder to the replay guard, translating its
// replay error.
func receiptFunc(rec ReceiptRecorder) middleware.ReceiptFunc {
	if rec == nil {
		return nil
	}
	return func(ctx context.Context, id, userID, kind string) error {
		err := rec.Record(ctx, id, userID, kind)
		if errors.Is(err, services.ErrReplay) {
			return middleware.ErrReplay
		}
		return err
	}
}

// corsMiddleware returns the CORS handlers. With no allowlist every origin
// is allowed without credentials; otherwise allowed origins are echoed.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderSignature, middleware.HeaderTimestamp},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Force ACAO: * even for requests without an Origin header.
		force := func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		}
		return []gin.HandlerFunc{force, cors.New(base)}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	echo := func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{echo, cors.New(base)}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
