// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the config file and checks the store connection
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config file and verify the Redis connection",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "skip-redis",
				Usage: "Skip the Redis connectivity check",
			},
		},
		Action: r.Setup,
	}
}

// serveCommand runs the bot
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the bot (webhook server or long polling)",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "polling",
				Usage: "Use long polling instead of a webhook",
			},
			&cli.StringFlag{
				Name:  "webhook-secret",
				Usage: "Secret token Telegram echoes on webhook requests",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: r.Serve,
	}
}

// authCommand bootstraps the bot-default Spotify credential
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize the bot's Spotify account using OAuth2",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "Store the resulting tokens as the bot-default credential",
				Value: true,
			},
		},
		Action: r.Bootstrap,
	}
}

// channelCommand manages per-chat playlist overrides
func channelCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "channel",
		Usage: "Manage per-chat playlist overrides",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Point a chat at a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "chat"},
					&cli.StringArg{Name: "playlist"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ChannelSet,
			},
			{
				Name:  "remove",
				Usage: "Reset a chat to the default playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "chat"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ChannelRemove,
			},
			{
				Name:  "show",
				Usage: "Show a chat's playlist override",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "chat"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ChannelShow,
			},
		},
	}
}

// statsCommand reads a user's usage counters
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show a user's submission counters",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "user"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Stats,
	}
}
