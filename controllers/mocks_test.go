package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"neighborly/app"
	"neighborly/db"
	"neighborly/lending"
	"neighborly/models"
	"neighborly/notify"
	"neighborly/ratings"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) CreateItem(ctx context.Context, it *models.Item) error {
	return m.Called(ctx, it).Error(0)
}

func (m *mockCatalog) FindItemByID(ctx context.Context, id string) (*models.Item, error) {
	args := m.Called(ctx, id)
	it, _ := args.Get(0).(*models.Item)
	return it, args.Error(1)
}

func (m *mockCatalog) ListAvailableItems(ctx context.Context, q db.ItemsQuery) (*db.PagedItems, error) {
	args := m.Called(ctx, q)
	p, _ := args.Get(0).(*db.PagedItems)
	return p, args.Error(1)
}

func (m *mockCatalog) ListItemsByLender(ctx context.Context, lenderID string) ([]models.Item, error) {
	args := m.Called(ctx, lenderID)
	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}

func (m *mockCatalog) UpdateItemDetails(ctx context.Context, id, lenderID string, d db.ItemDetails) (*models.Item, error) {
	args := m.Called(ctx, id, lenderID, d)
	it, _ := args.Get(0).(*models.Item)
	return it, args.Error(1)
}

func (m *mockCatalog) SoftDeleteItem(ctx context.Context, id, lenderID string) error {
	return m.Called(ctx, id, lenderID).Error(0)
}

type mockLending struct{ mock.Mock }

func (m *mockLending) Borrow(ctx context.Context, borrowerID string, req lending.BorrowRequest) (*models.BorrowRecord, error) {
	args := m.Called(ctx, borrowerID, req)
	rec, _ := args.Get(0).(*models.BorrowRecord)
	return rec, args.Error(1)
}

func (m *mockLending) Return(ctx context.Context, borrowerID, recordID string) (*models.BorrowRecord, error) {
	args := m.Called(ctx, borrowerID, recordID)
	rec, _ := args.Get(0).(*models.BorrowRecord)
	return rec, args.Error(1)
}

func (m *mockLending) BorrowHistory(ctx context.Context, borrowerID, status string) ([]models.BorrowRecord, error) {
	args := m.Called(ctx, borrowerID, status)
	recs, _ := args.Get(0).([]models.BorrowRecord)
	return recs, args.Error(1)
}

func (m *mockLending) LenderStats(ctx context.Context, lenderID string) ([]models.ItemStat, error) {
	args := m.Called(ctx, lenderID)
	stats, _ := args.Get(0).([]models.ItemStat)
	return stats, args.Error(1)
}

type mockReviews struct{ mock.Mock }

func (m *mockReviews) Create(ctx context.Context, reviewerID string, req ratings.CreateRequest) (*models.Review, error) {
	args := m.Called(ctx, reviewerID, req)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *mockReviews) Summary(ctx context.Context, typ models.ReviewType, toWhom string) (*ratings.Summary, error) {
	args := m.Called(ctx, typ, toWhom)
	s, _ := args.Get(0).(*ratings.Summary)
	return s, args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) RecordTransaction(ctx context.Context, t *models.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockLedger) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	args := m.Called(ctx, userID)
	ts, _ := args.Get(0).([]models.Transaction)
	return ts, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, userID string, n notify.Notification) error {
	return m.Called(ctx, userID, n).Error(0)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUsers) ListUsers(ctx context.Context, q string, page, size int) (db.ListUsersResult, error) {
	args := m.Called(ctx, q, page, size)
	return args.Get(0).(db.ListUsersResult), args.Error(1)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// newRouter returns a test engine that authenticates every request as userID.
func newRouter(userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(app.ErrorHandler(zap.NewNop()))
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
			c.Set("sessionID", "sid-"+userID)
		}
		c.Next()
	})
	return r
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}
