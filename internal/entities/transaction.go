package entities

import (
	"time"

	"github.com/google/uuid"
)

// Statuses of a journaled listing transaction.
const (
	TxStatusPending   = "pending"
	TxStatusMined     = "mined"
	TxStatusFailed    = "failed"
	TxStatusConfirmed = "confirmed"
)

// Transaction is a journaled mint or resell submission.
type Transaction struct {
	ID            uuid.UUID `json:"id"             db:"id"`
	TxHash        string    `json:"tx_hash"        db:"tx_hash"`
	Account       string    `json:"account"        db:"account"`
	Kind          string    `json:"kind"           db:"kind"`
	TokenURI      string    `json:"token_uri"      db:"token_uri"`
	TokenID       *int64    `json:"token_id"       db:"token_id"`
	PriceWei      string    `json:"price_wei"      db:"price_wei"`
	ListingFeeWei string    `json:"listing_fee_wei" db:"listing_fee_wei"`
	Status        string    `json:"status"         db:"status"`
	BlockNumber   *int64    `json:"block_number"   db:"block_number"`
	Confirmations int64     `json:"confirmations"  db:"confirmations"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}
