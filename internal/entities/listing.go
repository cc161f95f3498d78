package entities

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Listing is one marketplace entry: on-chain sale terms joined with the
// off-chain metadata document the token URI points to.
type Listing struct {
	TokenID     int64  `json:"tokenId"`
	Seller      string `json:"seller"`
	Owner       string `json:"owner"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TokenURI    string `json:"tokenURI"`
}

// MarketItem mirrors the contract's MarketItem tuple. Field names follow the
// ABI component names so abi.ConvertType can fill it.
type MarketItem struct {
	TokenId *big.Int
	Seller  common.Address
	Owner   common.Address
	Price   *big.Int
	Sold    bool
}

// TokenMetadata is the JSON document pinned for every token.
type TokenMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// FormInput is what the create-item form submits.
type FormInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// Complete reports whether every field of the form is filled in.
func (f FormInput) Complete() bool {
	return strings.TrimSpace(f.Name) != "" &&
		strings.TrimSpace(f.Description) != "" &&
		strings.TrimSpace(f.Price) != ""
}

// ListingScope selects which caller-scoped contract read to run.
type ListingScope int

const (
	ScopeOwned ListingScope = iota
	ScopeListed
)

func (s ListingScope) String() string {
	if s == ScopeListed {
		return "listed"
	}
	return "owned"
}

// ParseListingScope maps a UI kind to a scope. Anything that is not a
// "listed" kind selects the caller's own tokens.
func ParseListingScope(kind string) ListingScope {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "listed", "fetchitemslisted":
		return ScopeListed
	default:
		return ScopeOwned
	}
}
