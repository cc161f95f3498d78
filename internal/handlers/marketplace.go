package handlers

import (
	"context"

	"github.com/sand/nft-marketplace/client/internal/core/ports"
	"github.com/sand/nft-marketplace/client/internal/entities"
	"github.com/sand/nft-marketplace/client/internal/session"
	"github.com/sand/nft-marketplace/client/internal/usecases"
)

var _ Marketplace = (*usecases.MarketplaceService)(nil)

// Marketplace is the facade surface the HTTP layer drives.
type Marketplace interface {
	Session() *session.Session
	Currency() string
	Connect(ctx context.Context) error
	UploadAsset(ctx context.Context, data []byte) (string, bool)
	MintAndList(ctx context.Context, form entities.FormInput, assetURL string, nav ports.Navigator)
	ListForSale(ctx context.Context, metadataURL, price string, sale entities.Sale) error
	FetchAllListings(ctx context.Context) ([]entities.Listing, error)
	FetchScopedListings(ctx context.Context, scope entities.ListingScope) ([]entities.Listing, error)
	Transactions(ctx context.Context, account string) ([]entities.Transaction, error)
}
