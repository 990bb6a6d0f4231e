package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/taskcoin/backend/internal/metrics"
	"github.com/taskcoin/backend/internal/models"
)

// CoinPurchaseLedger credits buyers for captured payments, at most once per
// confirmation token.
type CoinPurchaseLedger struct {
	Pool      TxBeginner
	Purchases PurchaseRepo
	Ledger    CoinLedger
	Catalog   []models.CoinPackage
	Logger    *slog.Logger
}

func NewCoinPurchaseLedger(pool TxBeginner, purchases PurchaseRepo, ledger CoinLedger, catalog []models.CoinPackage, logger *slog.Logger) *CoinPurchaseLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoinPurchaseLedger{Pool: pool, Purchases: purchases, Ledger: ledger, Catalog: catalog, Logger: logger}
}

// Packages returns the purchasable catalog.
func (c *CoinPurchaseLedger) Packages() []models.CoinPackage {
	out := make([]models.CoinPackage, len(c.Catalog))
	copy(out, c.Catalog)
	return out
}

// Record credits the package's coins for a captured payment and returns the new balance.
// Replaying a confirmation token fails with models.ErrDuplicateConfirmation and credits nothing.
func (c *CoinPurchaseLedger) Record(ctx context.Context, actor *models.Account, packageIndex int, token string) (balance int64, err error) {
	defer func() { observe("record_purchase", err) }()

	if !isRole(actor, models.RoleBuyer) {
		return 0, models.ErrForbidden
	}
	if packageIndex < 0 || packageIndex >= len(c.Catalog) {
		return 0, models.ErrInvalidPackage
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, fmt.Errorf("confirmation token is required: %w", models.ErrInvalidInput)
	}
	pkg := c.Catalog[packageIndex]
	purchase := &models.CoinPurchase{
		ID:                uuid.New(),
		BuyerID:           actor.ID,
		Coins:             pkg.Coins,
		Price:             pkg.Price,
		ConfirmationToken: token,
	}

	tx, err := c.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted, err := c.Purchases.Insert(ctx, tx, purchase)
	if err != nil {
		return 0, fmt.Errorf("insert purchase: %w", err)
	}
	if !inserted {
		return 0, models.ErrDuplicateConfirmation
	}
	balance, err = c.Ledger.Credit(ctx, tx, actor.ID, pkg.Coins, models.EntryCoinPurchase, &purchase.ID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordMovement(models.EntryCoinPurchase, pkg.Coins)
	c.Logger.Info("coins purchased", "purchase_id", purchase.ID, "buyer_id", actor.ID, "coins", pkg.Coins, "price", pkg.Price.String())
	return balance, nil
}

// ListForBuyer returns the actor's payment history.
func (c *CoinPurchaseLedger) ListForBuyer(ctx context.Context, actor *models.Account) ([]*models.CoinPurchase, error) {
	if !isRole(actor, models.RoleBuyer) {
		return nil, models.ErrForbidden
	}
	return c.Purchases.ListByBuyer(ctx, actor.ID)
}
