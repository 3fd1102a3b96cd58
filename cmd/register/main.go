// Command register uploads the slash command definitions to Discord. By
// default the global commands are overwritten; -guild limits the upload to
// one guild, which Discord applies immediately.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/gitcord/internal/commands"
	"github.com/tbourn/gitcord/internal/config"
	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/interactions"
	"github.com/tbourn/gitcord/internal/sysutil"
)

func main() {
	guild := flag.String("guild", "", "register to this guild id instead of globally")
	dryRun := flag.Bool("dry-run", false, "print the definitions instead of uploading them")
	flag.Parse()

	_ = godotenv.Load()

	cmds := interactions.NewCommandRegistry()
	if err := commands.New(commands.Set{}).Register(cmds); err != nil {
		log.Fatal().Err(err).Msg("loading command definitions")
	}
	defs := cmds.Definitions()

	if *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(defs); err != nil {
			log.Fatal().Err(err).Msg("encode")
		}
		return
	}

	cfg := config.MustLoad()
	logger := sysutil.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty, "gitcord-register")

	dc := discord.NewClient(cfg.Discord.APIURL, cfg.Discord.Token, cfg.Discord.AppID,
		discord.WithRetryPolicy(cfg.Discord.MaxRetries, cfg.Discord.MaxRetryWait),
		discord.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	out, err := dc.PutCommands(ctx, *guild, defs)
	if err != nil {
		logger.Fatal().Err(err).Msg("registering commands")
	}
	for _, c := range out {
		logger.Info().Str("name", c.Name).Msg("registered")
	}
	logger.Info().Int("count", len(out)).Str("app_id", dc.AppID()).Str("guild", *guild).Msg("done")
}
