package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CoinPackage is one entry of the purchasable coin catalog.
type CoinPackage struct {
	Coins int64           `json:"coins" toml:"coins"`
	Price decimal.Decimal `json:"price" toml:"price"`
}

type CoinPurchase struct {
	ID                uuid.UUID       `json:"id"`
	BuyerID           uuid.UUID       `json:"buyer_id"`
	Coins             int64           `json:"coins"`
	Price             decimal.Decimal `json:"price"`
	ConfirmationToken string          `json:"confirmation_token"`
	CreatedAt         time.Time       `json:"created_at"`
}
