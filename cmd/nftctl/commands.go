package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	cfg "github.com/sand/nft-marketplace/client/config"
	"github.com/sand/nft-marketplace/client/internal/app"
	"github.com/sand/nft-marketplace/client/internal/core/ports"
	"github.com/sand/nft-marketplace/client/internal/entities"
	"github.com/sand/nft-marketplace/client/internal/session"
	"github.com/sand/nft-marketplace/client/internal/usecases"
)

// marketplaceKey lets tests hand the commands a prepared facade.
const marketplaceKey = "test-marketplace"

type marketplace interface {
	Session() *session.Session
	Init(ctx context.Context)
	Connect(ctx context.Context) error
	UploadAsset(ctx context.Context, data []byte) (string, bool)
	MintAndList(ctx context.Context, form entities.FormInput, assetURL string, nav ports.Navigator)
	ListForSale(ctx context.Context, metadataURL, price string, sale entities.Sale) error
	FetchAllListings(ctx context.Context) ([]entities.Listing, error)
	FetchScopedListings(ctx context.Context, scope entities.ListingScope) ([]entities.Listing, error)
	Transactions(ctx context.Context, account string) ([]entities.Transaction, error)
}

var commands = []*cli.Command{
	connectCmd,
	accountCmd,
	uploadCmd,
	mintCmd,
	resellCmd,
	listingsCmd,
	transactionsCmd,
}

var connectCmd = &cli.Command{
	Name:  "connect",
	Usage: "Request account access from the wallet",
	Action: func(cctx *cli.Context) error {
		return withMarketplace(cctx, func(ctx context.Context, m marketplace) error {
			if err := m.Connect(ctx); err != nil {
				return err
			}
			return printJSON(cctx, map[string]string{"account": m.Session().Account()})
		})
	},
}

var accountCmd = &cli.Command{
	Name:  "account",
	Usage: "Print the account restored from the wallet",
	Action: func(cctx *cli.Context) error {
		return withMarketplace(cctx, func(ctx context.Context, m marketplace) error {
			m.Init(ctx)
			return printJSON(cctx, map[string]any{
				"account":   m.Session().Account(),
				"connected": m.Session().Connected(),
			})
		})
	},
}

var uploadCmd = &cli.Command{
	Name:      "upload",
	Usage:     "Pin a file to IPFS and print its URL",
	ArgsUsage: "<file>",
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 1 {
			return cli.ShowSubcommandHelp(cctx)
		}

		data, err := os.ReadFile(cctx.Args().First())
		if err != nil {
			return err
		}

		return withMarketplace(cctx, func(ctx context.Context, m marketplace) error {
			url, ok := m.UploadAsset(ctx, data)
			if !ok {
				return errors.New("upload failed")
			}
			return printJSON(cctx, map[string]string{"url": url})
		})
	},
}

var mintCmd = &cli.Command{
	Name:  "mint",
	Usage: "Upload an asset, mint it and list it for sale",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true},
		&cli.StringFlag{Name: "description", Required: true},
		&cli.StringFlag{Name: "price", Usage: "price in ether", Required: true},
		&cli.StringFlag{Name: "file", Usage: "asset to upload"},
		&cli.StringFlag{Name: "image", Usage: "already uploaded asset URL"},
	},
	Action: func(cctx *cli.Context) error {
		return withMarketplace(cctx, func(ctx context.Context, m marketplace) error {
			m.Init(ctx)

			image := cctx.String("image")
			if path := cctx.String("file"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				url, ok := m.UploadAsset(ctx, data)
				if !ok {
					return errors.New("upload failed")
				}
				image = url
			}

			form := entities.FormInput{
				Name:        cctx.String("name"),
				Description: cctx.String("description"),
				Price:       cctx.String("price"),
			}
			m.MintAndList(ctx, form, image, terminalUI{w: cctx.App.ErrWriter})
			return nil
		})
	},
}

var resellCmd = &cli.Command{
	Name:  "resell",
	Usage: "List an owned token for sale again",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "token-id", Required: true},
		&cli.StringFlag{Name: "price", Usage: "price in ether", Required: true},
		&cli.StringFlag{Name: "token-uri", Usage: "recorded in the transaction journal"},
	},
	Action: func(cctx *cli.Context) error {
		return withMarketplace(cctx, func(ctx context.Context, m marketplace) error {
			m.Init(ctx)

			sale := entities.Resell{TokenID: cctx.Int64("token-id")}
			if err := m.ListForSale(ctx, cctx.String("token-uri"), cctx.String("price"), sale); err != nil {
				return err
			}
			return printJSON(cctx, map[string]any{"status": "listed", "tokenId": sale.TokenID})
		})
	},
}

var listingsCmd = &cli.Command{
	Name:  "listings",
	Usage: "Print market listings",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mine",
			Usage: "only the connected account's tokens: listed or owned",
		},
	},
	Action: func(cctx *cli.Context) error {
		return withMarketplace(cctx, func(ctx context.Context, m marketplace) error {
			var (
				listings []entities.Listing
				err      error
			)
			if cctx.IsSet("mine") {
				m.Init(ctx)
				listings, err = m.FetchScopedListings(ctx, entities.ParseListingScope(cctx.String("mine")))
			} else {
				listings, err = m.FetchAllListings(ctx)
			}
			if err != nil {
				return err
			}
			if listings == nil {
				listings = []entities.Listing{}
			}
			return printJSON(cctx, listings)
		})
	},
}

var transactionsCmd = &cli.Command{
	Name:  "transactions",
	Usage: "Print journaled listing transactions",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "account", Usage: "defaults to the restored account"},
	},
	Action: func(cctx *cli.Context) error {
		return withMarketplace(cctx, func(ctx context.Context, m marketplace) error {
			account := cctx.String("account")
			if account == "" {
				m.Init(ctx)
				account = m.Session().Account()
			}
			if account == "" {
				return errors.New("no account: pass --account")
			}

			txs, err := m.Transactions(ctx, account)
			if err != nil {
				return err
			}
			if txs == nil {
				txs = []entities.Transaction{}
			}
			return printJSON(cctx, txs)
		})
	},
}

// withMarketplace runs fn against the configured facade, or the one a test
// placed in the app metadata.
func withMarketplace(cctx *cli.Context, fn func(ctx context.Context, m marketplace) error) error {
	ctx := cctx.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if m, ok := cctx.App.Metadata[marketplaceKey].(marketplace); ok {
		return fn(ctx, m)
	}

	config, err := cfg.LoadConfig()
	if err != nil {
		return err
	}
	if kind := cctx.String("wallet"); kind != "" {
		config.Wallet.Kind = kind
	}

	ui := terminalUI{w: cctx.App.ErrWriter}
	client, err := app.New(ctx, app.NewLogger(config, cctx.App.ErrWriter), config, usecases.WithUI(ui, ui))
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(ctx, client.Marketplace)
}

func printJSON(cctx *cli.Context, v any) error {
	enc := json.NewEncoder(cctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// terminalUI prints facade notices where a browser would show them.
type terminalUI struct {
	w io.Writer
}

func (u terminalUI) Alert(_ context.Context, message string) {
	fmt.Fprintln(u.w, "alert:", message)
}

func (u terminalUI) Reload(context.Context) {
	fmt.Fprintln(u.w, "reload")
}

func (u terminalUI) Push(_ context.Context, path string) {
	fmt.Fprintln(u.w, "navigate:", path)
}
