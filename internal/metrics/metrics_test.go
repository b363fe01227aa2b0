package metrics

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"gestionexus-backend/internal/server"
	"gestionexus-backend/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRangeWhere(t *testing.T) {
	cond, args := Range{}.where("entry_date")
	assert.Equal(t, "TRUE", cond)
	assert.Empty(t, args)

	cond, args = Range{Start: day(2025, 3, 1), End: day(2025, 3, 31)}.where("s.created_at")
	assert.Equal(t, "s.created_at >= ? AND s.created_at < ?", cond)
	assert.Equal(t, []any{day(2025, 3, 1), day(2025, 4, 1)}, args)

	cond, args = Range{End: day(2025, 3, 31)}.where("entry_date")
	assert.Equal(t, "entry_date < ?", cond)
	assert.Len(t, args, 1)
}

func TestComputeAppliesRangeEverywhere(t *testing.T) {
	db, mock := testutil.MockDB(t)
	r := Range{Start: day(2025, 3, 1), End: day(2025, 3, 31)}
	from, until := day(2025, 3, 1), day(2025, 4, 1)

	mock.ExpectQuery(`FROM financial_ledger\s+WHERE entry_date >= \$1 AND entry_date < \$2`).
		WithArgs(from, until).
		WillReturnRows(sqlmock.NewRows([]string{"total_income", "total_expense"}).AddRow("500000.00", "120000.00"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sales s WHERE s.created_at >= \$1 AND s.created_at < \$2`).
		WithArgs(from, until).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`GROUP BY entry_date`).
		WithArgs(from, until).
		WillReturnRows(sqlmock.NewRows([]string{"sale_date", "daily_total"}).
			AddRow(day(2025, 3, 2), "200000.00").
			AddRow(day(2025, 3, 9), "300000.00"))
	mock.ExpectQuery(`JOIN users u ON u.id = s.user_id`).
		WithArgs(from, until).
		WillReturnRows(sqlmock.NewRows([]string{"full_name", "sales_count", "total_sold"}).AddRow("Laura Ruiz", 7, "450000.00"))
	mock.ExpectQuery(`total_quantity_sold.*LIMIT \$3`).
		WithArgs(from, until, rankingLimit).
		WillReturnRows(sqlmock.NewRows([]string{"name", "total_quantity_sold"}).AddRow("Jean Slim", 9))
	mock.ExpectQuery(`HAVING .* > 0.*LIMIT \$3`).
		WithArgs(from, until, rankingLimit).
		WillReturnRows(sqlmock.NewRows([]string{"name", "total_profit"}).AddRow("Jean Slim", "90000.00"))
	mock.ExpectQuery(`NOT EXISTS`).
		WithArgs(from, until).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "cost", "price"}).AddRow("Gorra", 6, "8000.00", "25000.00"))

	report, err := NewService(db).Compute(context.Background(), r)
	require.NoError(t, err)

	assert.True(t, report.TotalIncome.Equal(decimal.NewFromInt(500000)))
	assert.True(t, report.GrossProfit.Equal(decimal.NewFromInt(380000)))
	assert.EqualValues(t, 7, report.SalesCount)
	require.Len(t, report.SalesData, 2)
	assert.Equal(t, day(2025, 3, 9), report.SalesData[1].SaleDate)
	require.Len(t, report.EmployeeRanking, 1)
	assert.Equal(t, "Laura Ruiz", report.EmployeeRanking[0].FullName)
	require.Len(t, report.StagnantProducts, 1)
	assert.Equal(t, 6, report.StagnantProducts[0].Stock)
}

func TestGetRejectsInvertedRange(t *testing.T) {
	db, _ := testutil.MockDB(t)
	log, _ := test.NewNullLogger()
	app := server.NewApp(log)
	app.Get("/metrics", NewHandler(NewService(db)).Get())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics?startDate=2025-03-10&endDate=2025-03-01", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics?startDate=03/10/2025", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
