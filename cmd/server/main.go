// Command server runs the gitcord HTTP server: the Discord interactions
// endpoint, the GitHub sign-in routes and the operational endpoints.
//
// @title        gitcord
// @version      1.0
// @description  Discord interactions bot that files and edits GitHub issues and pull requests.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/gitcord/docs"
	"github.com/tbourn/gitcord/internal/autocomplete"
	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/commands"
	"github.com/tbourn/gitcord/internal/config"
	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/github"
	httpapi "github.com/tbourn/gitcord/internal/http"
	"github.com/tbourn/gitcord/internal/http/handlers"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/observability"
	"github.com/tbourn/gitcord/internal/repo"
	"github.com/tbourn/gitcord/internal/secrets"
	"github.com/tbourn/gitcord/internal/services"
	"github.com/tbourn/gitcord/internal/sysutil"
)

// version is set with -ldflags "-X main.version=...".
var version string

const (
	purgeEvery    = time.Minute
	shutdownGrace = 10 * time.Second
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := sysutil.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ver := sysutil.Version(version)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath, logger.With().Str("component", "db").Logger())
	if err != nil {
		return err
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			return err
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	sealer, err := secrets.NewSealer(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	clk := clock.Real{}
	profiles := services.NewProfileService(db, sealer)
	links := services.NewLinkService(db, clk, logger.With().Str("component", "links").Logger())
	receipts := &services.ReceiptService{DB: db, Clock: clk, TTL: cfg.Interactions.ReceiptTTL}

	// Outbound clients
	dc := discord.NewClient(cfg.Discord.APIURL, cfg.Discord.Token, cfg.Discord.AppID,
		discord.WithGlobalRate(cfg.Discord.GlobalRPS, max(1, int(cfg.Discord.GlobalRPS))),
		discord.WithRetryPolicy(cfg.Discord.MaxRetries, cfg.Discord.MaxRetryWait),
		discord.WithLogger(logger.With().Str("component", "discord").Logger()),
	)
	var ghOpts []github.Option
	if cfg.GitHub.APIURL != "" {
		ghOpts = append(ghOpts, github.WithBaseURL(cfg.GitHub.APIURL))
	}
	ghFactory := github.NewFactory(ghOpts...)

	// Interactions
	registry := interactions.NewRegistry(
		interactions.WithClock(clk),
		interactions.WithLogger(logger.With().Str("component", "registry").Logger()),
		interactions.WithRunTimeout(cfg.Interactions.Timeout),
	)
	set := commands.New(commands.Set{
		Registry: registry,
		Profiles: profiles,
		Links:    links,
		Cache: autocomplete.New(
			autocomplete.WithTTL(cfg.AutocompleteTTL),
			autocomplete.WithConcurrency(cfg.AutocompleteConcurrency),
			autocomplete.WithClock(clk),
			autocomplete.WithLogger(logger.With().Str("component", "autocomplete").Logger()),
		),
		GitHub: ghFactory,
		Clock:  clk,
		Config: commands.Config{
			SiteURL:      cfg.SiteURL,
			OAuthEnabled: cfg.GitHub.OAuthEnabled(),
			FlowTTL:      cfg.Interactions.FlowTTL,
			LinkTTL:      cfg.Interactions.LinkTTL,
			PageTTL:      cfg.Interactions.PageTTL,
		},
		Log: logger.With().Str("component", "commands").Logger(),
	})
	cmds := interactions.NewCommandRegistry()
	if err := set.Register(cmds); err != nil {
		return err
	}
	dispatcher := interactions.NewDispatcher(cmds, registry, profiles, ghFactory, dc,
		logger.With().Str("component", "dispatcher").Logger())

	// HTTP
	pub, err := discord.ParsePublicKey(cfg.Discord.PublicKey)
	if err != nil {
		return err
	}
	deps := handlers.Deps{
		Dispatcher: dispatcher,
		Editor:     dc,
		Clock:      clk,
		DeferAfter: cfg.Interactions.DeferAfter,
		Timeout:    cfg.Interactions.Timeout,
		Links:      links,
		Profiles:   profiles,
		GitHub:     ghFactory,
		Stats: func(ctx context.Context) (repo.LinkStats, error) {
			return repo.GetLinkStats(ctx, db, clk.Now())
		},
		Registrations: registry.Len,
	}
	// A nil *github.OAuth must not become a non-nil interface.
	if o := github.NewOAuth(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.SiteURL+"/github/callback", ""); o != nil {
		deps.OAuth = o
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Handlers:  handlers.New(deps),
		PublicKey: pub,
		Receipts:  receipts,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeLoop(ctx, logger, links, receipts)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", ver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}

type purger interface {
	Purge(ctx context.Context) (int64, error)
}

// purgeLoop deletes expired link tokens and interaction receipts until ctx
// is done.
func purgeLoop(ctx context.Context, logger zerolog.Logger, ps ...purger) {
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, p := range ps {
				n, err := p.Purge(ctx)
				if err != nil {
					logger.Warn().Err(err).Msg("purge failed")
					continue
				}
				if n > 0 {
					logger.Debug().Int64("deleted", n).Msg("purged expired rows")
				}
			}
		}
	}
}
