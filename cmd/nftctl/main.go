package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:     "nftctl",
		Usage:    "Mint, list and browse tokens on the NFT marketplace",
		Commands: commands,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "wallet",
				Usage:   "wallet kind to connect with (hd, keystore, none)",
				EnvVars: []string{"WALLET_KIND"},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}
