//go:build integration

package sales

import (
	"context"
	"sync"
	"testing"

	"gestionexus-backend/internal/inventory"
	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleExceedingStockWritesNothing(t *testing.T) {
	db := testutil.PostgresDB(t)
	seller := testutil.SeedUser(t, db, "vendedor", models.RoleNormal)
	product := testutil.SeedProduct(t, db, "REF-A", 5, "40000")

	_, err := NewService(db).Create(context.Background(), seller.ID, CreateSaleRequest{
		Products: []LineItem{{ProductID: product.ID, Quantity: 6, UnitPrice: dec("40000")}},
	})

	var stockErr *inventory.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 5, stockErr.Available)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 5, reloaded.Quantity)

	var sales, details, ledger int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&sales).Error)
	require.NoError(t, db.Model(&models.SaleDetail{}).Count(&details).Error)
	require.NoError(t, db.Model(&models.FinancialLedgerEntry{}).Count(&ledger).Error)
	assert.Zero(t, sales)
	assert.Zero(t, details)
	assert.Zero(t, ledger)
}

func TestSaleDecrementsStockAndRecordsIncome(t *testing.T) {
	db := testutil.PostgresDB(t)
	seller := testutil.SeedUser(t, db, "vendedor", models.RoleNormal)
	product := testutil.SeedProduct(t, db, "REF-B", 5, "50000")

	res, err := NewService(db).Create(context.Background(), seller.ID, CreateSaleRequest{
		Discount: dec("10"),
		Products: []LineItem{{ProductID: product.ID, Quantity: 3, UnitPrice: dec("50000")}},
	})
	require.NoError(t, err)
	assert.True(t, res.FinalAmount.Equal(dec("135000")))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 2, reloaded.Quantity)

	var entry models.FinancialLedgerEntry
	require.NoError(t, db.Where("sale_id = ?", res.Sale.ID).First(&entry).Error)
	assert.True(t, entry.Income.Equal(dec("135000")))
	assert.True(t, entry.Expense.IsZero())

	detail, err := NewService(db).Get(context.Background(), res.Sale.ID)
	require.NoError(t, err)
	require.Len(t, detail.Details, 1)
	assert.Equal(t, "vendedor", detail.UserName)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	db := testutil.PostgresDB(t)
	seller := testutil.SeedUser(t, db, "vendedor", models.RoleNormal)
	product := testutil.SeedProduct(t, db, "REF-C", 5, "10000")
	svc := NewService(db)

	const buyers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), seller.ID, CreateSaleRequest{
				Products: []LineItem{{ProductID: product.ID, Quantity: 2, UnitPrice: dec("10000")}},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 1, reloaded.Quantity)
}
