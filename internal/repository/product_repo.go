package repository

import (
	"bytes"
	"context"
	"errors"
	"slices"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"
	"go-pos-ws/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository is the inventory store. Methods taking a tx run inside
// the caller's transaction.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	ListAtOrBelowThreshold(ctx context.Context, ownerID *uuid.UUID) ([]model.Product, error)

	FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	LockByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	DecrementQuantity(tx *gorm.DB, id uuid.UUID, amount int, updatedBy string) error
	AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (int, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translateProductConflict(r.db.WithContext(ctx).Create(product).Error, product.Barcode)
}

// FindByID returns nil, nil when the product does not exist
func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// FindByBarcode is an exact, case-sensitive match
func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	return r.first(r.db.WithContext(ctx), "barcode = ?", barcode)
}

func (r *productRepo) first(db *gorm.DB, query string, args ...interface{}) (*model.Product, error) {
	var product model.Product
	err := db.Where(query, args...).Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete is a soft delete; invoice items keep pointing at the row
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id).Error
}

func (r *productRepo) Search(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Name != "" {
		q = q.Where(ilike("name"), likePattern(f.Name))
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Barcode != "" {
		q = q.Where("barcode = ?", f.Barcode)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinQuantity != nil {
		q = q.Where("quantity >= ?", *f.MinQuantity)
	}
	if f.MaxQuantity != nil {
		q = q.Where("quantity <= ?", *f.MaxQuantity)
	}

	offset, limit := f.Bounds()
	var products []model.Product
	err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&products).Error
	return products, err
}

// ListAtOrBelowThreshold returns low-stock products; a nil owner means every tenant
func (r *productRepo) ListAtOrBelowThreshold(ctx context.Context, ownerID *uuid.UUID) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Where("quantity <= threshold")
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}
	var products []model.Product
	err := q.Order("quantity ASC").Order("name").Find(&products).Error
	return products, err
}

// FindByIDs reads products without locking them. Missing ids are absent
// from the map.
func (r *productRepo) FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	found := make(map[uuid.UUID]*model.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var products []model.Product
	if err := tx.Where("id IN ?", SortedUniqueIDs(ids)).Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		found[products[i].ID] = &products[i]
	}
	return found, nil
}

// LockByIDs locks each existing product row until the transaction ends.
// Rows are locked in ascending id order so two invoices sharing products can
// never wait on each other in a cycle. Missing ids are absent from the map.
func (r *productRepo) LockByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	ordered := SortedUniqueIDs(ids)
	locked := make(map[uuid.UUID]*model.Product, len(ordered))
	for _, id := range ordered {
		product, err := r.first(forUpdate(tx), "id = ?", id)
		if err != nil {
			return nil, err
		}
		if product != nil {
			locked[id] = product
		}
	}
	return locked, nil
}

func (r *productRepo) UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	barcode, _ := fields["barcode"].(string)
	err := tx.Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
	return translateProductConflict(err, barcode)
}

// DecrementQuantity subtracts amount only while enough stock remains. The
// check and the write are one statement, so the quantity can never go negative.
func (r *productRepo) DecrementQuantity(tx *gorm.DB, id uuid.UUID, amount int, updatedBy string) error {
	if amount <= 0 {
		return apperr.Validation("decrement amount must be positive")
	}
	res := tx.Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", id, amount).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", amount),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	current, err := r.first(tx.Select("id", "name", "quantity"), "id = ?", id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.ProductNotFound(id)
	}
	return &apperr.StockError{
		ProductID:   id,
		ProductName: current.Name,
		Available:   current.Quantity,
		Requested:   amount,
	}
}

// AdjustQuantity applies a signed delta and returns the new quantity.
func (r *productRepo) AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (int, error) {
	switch {
	case delta < 0:
		if err := r.DecrementQuantity(tx, id, -delta, updatedBy); err != nil {
			return 0, err
		}
	case delta > 0:
		res := tx.Model(&model.Product{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", delta),
				"updated_by": updatedBy,
			})
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, apperr.NotFound("product not found")
		}
	}

	var quantity int
	if err := tx.Model(&model.Product{}).Select("quantity").Where("id = ?", id).Row().Scan(&quantity); err != nil {
		return 0, err
	}
	return quantity, nil
}

// SortedUniqueIDs returns ids deduplicated and in ascending byte order, which
// matches uuid ordering in PostgreSQL.
func SortedUniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return slices.Compact(out)
}

func translateProductConflict(err error, barcode string) error {
	if database.IsUniqueViolation(err) {
		return apperr.Duplicate("product with barcode %q already exists", barcode)
	}
	if database.IsCheckViolation(err) {
		return apperr.Validation("product values must not be negative")
	}
	return err
}
