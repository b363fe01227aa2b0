//go:build integration

package inventory

import (
	"context"
	"fmt"
	"testing"

	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(ref string, qty int) ProductInput {
	return ProductInput{
		Name:      "Camisa " + ref,
		Reference: ref,
		Size:      "M",
		Quantity:  Count(qty),
		Price:     decimal.NewFromInt(45000),
		Cost:      decimal.NewFromInt(20000),
	}
}

func TestCreateRejectsActiveDuplicateAndReactivatesInactive(t *testing.T) {
	db := testutil.PostgresDB(t)
	ctx := context.Background()
	svc := NewService(db)

	first, outcome, err := svc.Create(ctx, input("CM-01", 5))
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)

	_, _, err = svc.Create(ctx, input("CM-01", 7))
	assert.ErrorIs(t, err, ErrDuplicateProduct)

	_, err = svc.Deactivate(ctx, first.ID)
	require.NoError(t, err)

	again, outcome, err := svc.Create(ctx, input("CM-01", 9))
	require.NoError(t, err)
	assert.Equal(t, Reactivated, outcome)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 9, again.Quantity)
	assert.True(t, again.IsActive)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Where("reference = ?", "CM-01").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestBulkImportIsAllOrNothing(t *testing.T) {
	db := testutil.PostgresDB(t)
	ctx := context.Background()
	svc := NewService(db)

	_, _, err := svc.Create(ctx, input("EXISTING", 2))
	require.NoError(t, err)

	rows := make([]ProductInput, 0, 10)
	for i := 1; i <= 10; i++ {
		rows = append(rows, input(fmt.Sprintf("BULK-%02d", i), i))
	}
	rows[6] = input("EXISTING", 1)

	_, err = svc.BulkImport(ctx, rows)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 7, dup.Row)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Where("reference LIKE ?", "BULK-%").Count(&count).Error)
	assert.Zero(t, count)
}

func TestQuantityCannotGoNegative(t *testing.T) {
	db := testutil.PostgresDB(t)
	p := testutil.SeedProduct(t, db, "NEG-1", 1, "10000")

	err := db.Model(&models.Product{}).Where("id = ?", p.ID).Update("quantity", -1).Error
	assert.Error(t, err)
}
