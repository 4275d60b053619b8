package db

import (
	"context"
	"strings"
	"time"

	"neighborly/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

func (r *Repo) CreateItem(ctx context.Context, it *models.Item) error {
	return r.DB.WithContext(ctx).Create(it).Error
}

func (r *Repo) FindItemByID(ctx context.Context, id string) (*models.Item, error) {
	var it models.Item
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &it, nil
}

type ItemsQuery struct {
	Q    string // fuzzy match on name/category
	Page int
	Size int
}

// CatalogRow is an available item with its lender's public name.
type CatalogRow struct {
	models.Item
	LenderUsername    string `json:"lenderUsername"`
	LenderDisplayName string `json:"lenderDisplayName"`
}

type PagedItems struct {
	Total int64        `json:"total"`
	Items []CatalogRow `json:"items"`
}

// ListAvailableItems pages the live, available catalog, newest first.
func (r *Repo) ListAvailableItems(ctx context.Context, q ItemsQuery) (*PagedItems, error) {
	q.Page, q.Size = normalizePage(q.Page, q.Size, 200)

	db := r.DB.WithContext(ctx)
	filter := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("i.deleted_at IS NULL AND i.is_available = TRUE")
		if s := strings.TrimSpace(q.Q); s != "" {
			pat := "%" + strings.ToLower(s) + "%"
			tx = tx.Where("LOWER(i.name) LIKE ? OR LOWER(i.category) LIKE ?", pat, pat)
		}
		return tx
	}

	var total int64
	if err := filter(db.Table(models.ItemTable + " i")).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []CatalogRow
	if err := filter(db.Table(models.ItemTable+" i")).
		Select("i.*, u.username AS lender_username, u.display_name AS lender_display_name").
		Joins("JOIN " + models.UserTable + " u ON u.id = i.lender_id").
		Order("i.created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return &PagedItems{Total: total, Items: rows}, nil
}

func (r *Repo) ListItemsByLender(ctx context.Context, lenderID string) ([]models.Item, error) {
	var items []models.Item
	err := r.DB.WithContext(ctx).
		Where("lender_id = ?", lenderID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ItemDetails are the lender-editable fields of an item.
type ItemDetails struct {
	Name        string
	Description string
	Category    string
	Images      []string
	Price       int64
	Deposit     int64
}

// UpdateItemDetails edits an item owned by lenderID; availability columns are never touched.
func (r *Repo) UpdateItemDetails(ctx context.Context, id, lenderID string, d ItemDetails) (*models.Item, error) {
	var it models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Item{}).
			Where("id = ? AND lender_id = ?", id, lenderID).
			Updates(map[string]any{
				"name":        d.Name,
				"description": d.Description,
				"category":    d.Category,
				"images":      stringArray(d.Images),
				"price":       d.Price,
				"deposit":     d.Deposit,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return tx.First(&it, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &it, nil
}

// SoftDeleteItem removes an available item owned by lenderID.
// models.ErrStaleState when the item is currently borrowed.
func (r *Repo) SoftDeleteItem(ctx context.Context, id, lenderID string) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND lender_id = ? AND is_available = TRUE", id, lenderID).
		Delete(&models.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrStaleState
	}
	return nil
}

// NewItem fills the availability fields of a freshly listed item.
func NewItem(id, lenderID string, d ItemDetails, now time.Time) *models.Item {
	return &models.Item{
		ID:              id,
		LenderID:        lenderID,
		Name:            d.Name,
		Description:     d.Description,
		Category:        d.Category,
		Images:          stringArray(d.Images),
		Price:           d.Price,
		Deposit:         d.Deposit,
		IsAvailable:     true,
		AvailableFrom:   now,
		BorrowerHistory: stringArray(nil),
	}
}

func stringArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}
