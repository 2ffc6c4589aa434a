package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/gateway"
	"github.com/tbourn/go-rental-backend/internal/http/middleware"
	"github.com/tbourn/go-rental-backend/internal/repo"
	"github.com/tbourn/go-rental-backend/internal/services"
)

// ---------- test DB + repo shim ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Minimal shim implementing services.UserRepo using the repo package (like router.go)
type testUserRepo struct{}

func (testUserRepo) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

func (testUserRepo) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (testUserRepo) UserExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.UserExists(ctx, db, id)
}

// ---------- API harness ----------

// testAPI wires real services over one database and a fake gateway behind
// the same middleware and routes the server uses.
type testAPI struct {
	t  *testing.T
	db *gorm.DB
	gw *gateway.Fake
	r  *gin.Engine

	owner, renter, stranger string
	productID               string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	gw := gateway.NewFake()
	h := New(
		services.NewUserService(db, testUserRepo{}),
		services.NewProductService(db),
		services.NewTransactionService(db),
		services.NewPaymentService(db, gw),
	)
	a := &testAPI{t: t, db: db, gw: gw, r: newTestEngine(h, db)}

	a.owner = a.createUser("owner")
	a.renter = a.createUser("renter")
	a.stranger = a.createUser("stranger")

	var p domain.Product
	a.mustDo(http.MethodPost, "/products", a.owner, `{"title":"Camping tent","description":"Fits two","category":"Camping","price_per_day":1000,"deposit":500,"location":"Busan"}`, http.StatusCreated, &p)
	a.productID = p.ID
	return a
}

func newTestEngine(h *Handlers, db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.CallerIdentity())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return rec != nil, err
		}))

	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUser)

	r.POST("/products", h.CreateProduct)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.PATCH("/products/:id", h.UpdateProduct)

	r.POST("/transactions", h.CreateTransaction)
	r.GET("/transactions", h.ListTransactions)
	r.GET("/transactions/:id", h.GetTransaction)
	r.POST("/transactions/:id/accept", h.AcceptTransaction)
	r.POST("/transactions/:id/pay", h.PayTransaction)
	r.POST("/transactions/:id/start", h.StartRental)
	r.POST("/transactions/:id/return", h.ReturnProduct)
	r.POST("/transactions/:id/cancel", h.CancelTransaction)

	r.POST("/payments/prepare", h.PreparePayment)
	r.POST("/payments/confirm", h.ConfirmPayment)
	r.POST("/payments/cancel", h.CancelPayment)
	r.GET("/payments/:orderId", h.GetPayment)
	return r
}

// do sends a request as userID ("" for anonymous) with optional extra
// headers given as name/value pairs.
func (a *testAPI) do(method, path, userID, body string, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

// mustDo is do plus a status assertion and an optional JSON decode into out.
func (a *testAPI) mustDo(method, path, userID, body string, want int, out any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	w := a.do(method, path, userID, body, headers...)
	if w.Code != want {
		a.t.Fatalf("%s %s -> %d, want %d; body=%s", method, path, w.Code, want, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			a.t.Fatalf("json: %v body=%s", err, w.Body.String())
		}
	}
	return w
}

func (a *testAPI) createUser(name string) string {
	a.t.Helper()
	var u domain.User
	a.mustDo(http.MethodPost, "/users", "", fmt.Sprintf(`{"username":%q}`, name), http.StatusCreated, &u)
	return u.ID
}

// accepted requests the seeded product as the renter and accepts it.
func (a *testAPI) accepted() domain.Transaction {
	a.t.Helper()
	var tx domain.Transaction
	a.mustDo(http.MethodPost, "/transactions", a.renter, fmt.Sprintf(`{"product_id":%q}`, a.productID), http.StatusCreated, &tx)
	a.mustDo(http.MethodPost, "/transactions/"+tx.ID+"/accept", a.owner, "", http.StatusOK, &tx)
	return tx
}

// prepared accepts a rental and prepares its payment for days.
func (a *testAPI) prepared(days int) (domain.Transaction, domain.Payment) {
	a.t.Helper()
	tx := a.accepted()
	var p domain.Payment
	a.mustDo(http.MethodPost, "/payments/prepare", a.renter, fmt.Sprintf(`{"transaction_id":%q,"rental_days":%d}`, tx.ID, days), http.StatusCreated, &p)
	return tx, p
}

// paid drives a rental to PAID through prepare and confirm.
func (a *testAPI) paid(days int) (domain.Transaction, domain.Payment) {
	a.t.Helper()
	tx, p := a.prepared(days)
	a.mustDo(http.MethodPost, "/payments/confirm", a.renter, confirmBody(p), http.StatusOK, &p)
	return tx, p
}

func confirmBody(p domain.Payment) string {
	return fmt.Sprintf(`{"order_id":%q,"payment_key":"pk_%s","amount":%d}`, p.OrderID, p.OrderID, p.Amount)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return resp.Code
}
