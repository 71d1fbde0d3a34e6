package main

import (
	"github.com/alecthomas/kong"

	"linkhub/infrastructure/configuration"
	"linkhub/infrastructure/logger"
)

type Context struct {
	Debug bool
}

var cli struct {
	Debug bool `help:"Enable debug logging."`

	Serve        ServeCmd        `cmd:"" default:"1" help:"Run the HTTP API and the background jobs."`
	EnsureSchema EnsureSchemaCmd `cmd:"" help:"Create or migrate the database schema and exit."`
	RunJob       RunJobCmd       `cmd:"" help:"Run one background job once and exit."`
	Token        TokenCmd        `cmd:"" help:"Issue a bearer token for a user id."`
}

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")
	configuration.Reload()

	ctx := kong.Parse(&cli,
		kong.Name("linkhub"),
		kong.Description("Schedule and publish posts to connected social accounts."),
	)
	if cli.Debug {
		logger.Configure(configuration.C.Logger.Format, "debug")
	}
	err := ctx.Run(&Context{Debug: cli.Debug})
	ctx.FatalIfErrorf(err)
}
