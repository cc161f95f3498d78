package entities

// Sale is either a first listing (Mint) or a relisting of an owned token
// (Resell).
type Sale interface {
	Kind() string
	isSale()
}

// Mint creates a new token and lists it.
type Mint struct{}

// Resell relists an already minted token.
type Resell struct {
	TokenID int64
}

func (Mint) Kind() string   { return "mint" }
func (Resell) Kind() string { return "resell" }

func (Mint) isSale()   {}
func (Resell) isSale() {}
