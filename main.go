package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"gitlab.com/aoterocom/AOMarginbot/app"
	"gitlab.com/aoterocom/AOMarginbot/helpers"
)

func main() {
	marginBot := app.App{}
	cliApp := &cli.App{
		Name:  "AOMarginbot",
		Usage: "unattended single market spot and margin trader",
		Commands: []*cli.Command{
			{
				Name:   "trade",
				Usage:  "start the trading loop on the configured pair",
				Action: marginBot.Run,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "strategy to trade with",
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		helpers.Logger.Fatalln(err.Error())
	}
}
