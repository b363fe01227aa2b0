package sales

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gestionexus-backend/internal/audit"
	"gestionexus-backend/internal/auth"
	"gestionexus-backend/internal/server"
	"gestionexus-backend/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSales struct{ n int }

func (c *countingSales) SaleCompleted() { c.n++ }

func newTestApp(t *testing.T) (sqlmock.Sqlmock, *fiber.App, *countingSales) {
	db, mock := testutil.MockDB(t)
	log, _ := test.NewNullLogger()
	svc := NewService(db)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	counter := &countingSales{}
	h := NewHandler(svc, audit.NewRecorder(db, log, nil), counter)

	app := server.NewApp(log)
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(3))
		return c.Next()
	})
	app.Post("/sales", h.Create())
	app.Get("/sales/:id", h.Get())
	return mock, app, counter
}

func send(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestCreateSaleOverStockIsRejected(t *testing.T) {
	mock, app, counter := newTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "size", "quantity", "cost", "is_active"}).
			AddRow(1, "Producto A", "U", 5, "1000", true))
	mock.ExpectRollback()

	status, body := send(t, app, "POST", "/sales",
		`{"products":[{"product_id":1,"quantity":6,"unit_price":"2000"}]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Stock insuficiente para el producto Producto A (talla U). Disponible: 5, solicitado: 6", body["msg"])
	assert.Zero(t, counter.n)
}

func TestCreateSaleResponds201(t *testing.T) {
	mock, app, counter := newTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "size", "quantity", "cost", "is_active"}).
			AddRow(1, "Chaqueta", "L", 5, "60000", true))
	mock.ExpectQuery(`INSERT INTO "sales"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(`INSERT INTO "sale_details"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "products" SET "quantity"=quantity - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "financial_ledger"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(55))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	status, body := send(t, app, "POST", "/sales",
		`{"discount":"10","products":[{"product_id":1,"quantity":2,"unit_price":"100000"}]}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, float64(10), body["sale_id"])
	final, ok := body["final_amount"].(string)
	require.True(t, ok)
	assert.True(t, dec(final).Equal(dec("180000")))
	assert.Equal(t, 1, counter.n)
}

func TestCreateSaleValidationErrors(t *testing.T) {
	_, app, _ := newTestApp(t)

	status, body := send(t, app, "POST", "/sales", `{"products":[]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["errors"], "products")
}

func TestCreateSaleTotalMismatch(t *testing.T) {
	_, app, _ := newTestApp(t)

	status, body := send(t, app, "POST", "/sales",
		`{"total_amount":"1","products":[{"product_id":1,"quantity":1,"unit_price":"100"}]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "El total no coincide con la suma de los productos", body["msg"])
}

func TestGetUnknownSale(t *testing.T) {
	mock, app, _ := newTestApp(t)

	mock.ExpectQuery(`SELECT \* FROM "sales" WHERE "sales"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	status, body := send(t, app, "GET", "/sales/99", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Venta no encontrada", body["msg"])
}
