// controllers/item_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"neighborly/apperr"
	"neighborly/db"
	"neighborly/lending"
	"neighborly/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Catalog interface {
	CreateItem(ctx context.Context, it *models.Item) error
	FindItemByID(ctx context.Context, id string) (*models.Item, error)
	ListAvailableItems(ctx context.Context, q db.ItemsQuery) (*db.PagedItems, error)
	ListItemsByLender(ctx context.Context, lenderID string) ([]models.Item, error)
	UpdateItemDetails(ctx context.Context, id, lenderID string, d db.ItemDetails) (*models.Item, error)
	SoftDeleteItem(ctx context.Context, id, lenderID string) error
}

type Lending interface {
	Borrow(ctx context.Context, borrowerID string, req lending.BorrowRequest) (*models.BorrowRecord, error)
	Return(ctx context.Context, borrowerID, recordID string) (*models.BorrowRecord, error)
	BorrowHistory(ctx context.Context, borrowerID, status string) ([]models.BorrowRecord, error)
	LenderStats(ctx context.Context, lenderID string) ([]models.ItemStat, error)
}

type ItemController struct {
	catalog Catalog
	lending Lending
	now     func() time.Time
}

func NewItemController(catalog Catalog, lend Lending) *ItemController {
	return &ItemController{catalog: catalog, lending: lend, now: time.Now}
}

type itemInput struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=5000"`
	Category    string   `json:"category" binding:"max=80"`
	Images      []string `json:"images" binding:"max=10,dive,url"`
	Price       *int64   `json:"price" binding:"required,min=0"`
	Deposit     *int64   `json:"deposit" binding:"required,min=0"`
}

func (in itemInput) details() db.ItemDetails {
	return db.ItemDetails{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Images:      in.Images,
		Price:       *in.Price,
		Deposit:     *in.Deposit,
	}
}

// POST /item/create
func (ic *ItemController) CreateItem(c *gin.Context) {
	var in itemInput
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	it := db.NewItem(uuid.NewString(), currentUserID(c), in.details(), ic.now())
	if err := ic.catalog.CreateItem(c.Request.Context(), it); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Item created successfully", it)
}

// GET /item/all?q=&page=&size=
func (ic *ItemController) ListItems(c *gin.Context) {
	page, size := pageParams(c)
	res, err := ic.catalog.ListAvailableItems(c.Request.Context(), db.ItemsQuery{
		Q:    c.Query("q"),
		Page: page,
		Size: size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", res)
}

// findItem resolves :id, mapping malformed and unknown ids to NotFound.
func (ic *ItemController) findItem(c *gin.Context) (*models.Item, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Item not found")
	}
	it, err := ic.catalog.FindItemByID(c.Request.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("Item not found")
	}
	return it, err
}

// GET /item/:id
func (ic *ItemController) GetItem(c *gin.Context) {
	it, err := ic.findItem(c)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", it)
}

// PUT /item/:id
func (ic *ItemController) UpdateItem(c *gin.Context) {
	it, err := ic.findItem(c)
	if err != nil {
		fail(c, err)
		return
	}
	if it.LenderID != currentUserID(c) {
		fail(c, apperr.Unauthorized("You can only edit your own items"))
		return
	}
	var in itemInput
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	updated, err := ic.catalog.UpdateItemDetails(c.Request.Context(), it.ID, it.LenderID, in.details())
	if errors.Is(err, models.ErrNotFound) {
		err = apperr.NotFound("Item not found")
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Item updated successfully", updated)
}

// DELETE /item/:id
func (ic *ItemController) DeleteItem(c *gin.Context) {
	it, err := ic.findItem(c)
	if err != nil {
		fail(c, err)
		return
	}
	if it.LenderID != currentUserID(c) {
		fail(c, apperr.Unauthorized("You can only delete your own items"))
		return
	}
	if !it.IsAvailable {
		fail(c, apperr.Conflict("Item is currently borrowed"))
		return
	}
	err = ic.catalog.SoftDeleteItem(c.Request.Context(), it.ID, it.LenderID)
	if errors.Is(err, models.ErrStaleState) {
		err = apperr.Conflict("Item is currently borrowed")
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Item deleted successfully", nil)
}

// POST /item/borrowItem
func (ic *ItemController) Borrow(c *gin.Context) {
	var req lending.BorrowRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	rec, err := ic.lending.Borrow(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Item borrowed successfully", rec)
}

// PUT /item/returnItem
func (ic *ItemController) Return(c *gin.Context) {
	var in struct {
		BorrowItemID string `json:"borrowItemId" binding:"required"`
	}
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	rec, err := ic.lending.Return(c.Request.Context(), currentUserID(c), strings.TrimSpace(in.BorrowItemID))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Item returned successfully", rec)
}

// GET /item/borrowed?status=open|returned
func (ic *ItemController) ListBorrowed(c *gin.Context) {
	recs, err := ic.lending.BorrowHistory(c.Request.Context(), currentUserID(c), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	if recs == nil {
		recs = []models.BorrowRecord{}
	}
	respond(c, http.StatusOK, "", recs)
}

// GET /item/lent
func (ic *ItemController) ListLent(c *gin.Context) {
	items, err := ic.catalog.ListItemsByLender(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	respond(c, http.StatusOK, "", items)
}

// GET /item/stats
func (ic *ItemController) Stats(c *gin.Context) {
	stats, err := ic.lending.LenderStats(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	if stats == nil {
		stats = []models.ItemStat{}
	}
	respond(c, http.StatusOK, "", stats)
}
