package financial

import (
	"context"
	"testing"
	"time"

	"gestionexus-backend/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateManualRejectsFutureDate(t *testing.T) {
	db, _ := testutil.MockDB(t)
	svc := NewService(db)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC) }

	_, err := svc.CreateManual(context.Background(), 1, ManualEntryInput{
		EntryDate: time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC),
		Concept:   "Pago proveedor",
		Expense:   decimal.NewFromInt(1000),
	})
	assert.ErrorIs(t, err, ErrFutureDate)
}

func TestCreateManualRejectsZeroAmounts(t *testing.T) {
	db, _ := testutil.MockDB(t)
	svc := NewService(db)

	_, err := svc.CreateManual(context.Background(), 1, ManualEntryInput{
		EntryDate: time.Now().AddDate(0, 0, -1),
		Concept:   "Nada",
	})
	assert.ErrorIs(t, err, ErrEmptyAmount)
}

func TestCreateManualInsertsEntry(t *testing.T) {
	db, mock := testutil.MockDB(t)
	svc := NewService(db)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC) }

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "financial_ledger"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectCommit()

	entry, err := svc.CreateManual(context.Background(), 4, ManualEntryInput{
		EntryDate: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Concept:   "Pago servicios",
		Expense:   decimal.NewFromInt(85000),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(9), entry.ID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uint(4), *entry.UserID)
}
