package service

import (
	"context"
	"time"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/events"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/policy"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductService interface {
	CreateProduct(ctx context.Context, actor *model.User, req *CreateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor *model.User, id uuid.UUID, req *UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actor *model.User, id uuid.UUID) error
	AdjustStock(ctx context.Context, actor *model.User, id uuid.UUID, req *AdjustStockRequest) (*model.Product, error)
	SearchProducts(ctx context.Context, actor *model.User, filter model.ProductFilter) ([]model.Product, error)
	LowStockProducts(ctx context.Context, actor *model.User) ([]model.Product, error)
}

type CreateProductRequest struct {
	UserID      *uuid.UUID      `json:"user_id"`
	Name        string          `json:"name" validate:"required,max=255"`
	Barcode     string          `json:"barcode" validate:"required,max=100"`
	Category    string          `json:"category" validate:"max=100"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	Price       decimal.Decimal `json:"price" validate:"gte=0,money"`
	Threshold   int             `json:"threshold" validate:"gte=0"`
	Description string          `json:"description"`
}

// UpdateProductRequest is a partial update. Quantity is not editable here;
// stock moves only through invoices and AdjustStock.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Barcode     *string          `json:"barcode" validate:"omitempty,min=1,max=100"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0,money"`
	Threshold   *int             `json:"threshold" validate:"omitempty,gte=0"`
	Description *string          `json:"description"`
}

// AdjustStockRequest restocks (positive delta) or writes off (negative delta).
type AdjustStockRequest struct {
	Delta  int    `json:"delta" validate:"ne=0"`
	Reason string `json:"reason" validate:"max=255"`
}

// StockChange is the payload of stock_update and low_stock events.
type StockChange struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	Threshold   int       `json:"threshold"`
	Reason      string    `json:"reason"`
}

// stockEvents returns stock_update for every change plus low_stock for
// products that just fell to or below their threshold.
func stockEvents(ownerOf map[uuid.UUID]uuid.UUID, changes []StockChange) []events.Event {
	evs := make([]events.Event, 0, len(changes))
	for _, ch := range changes {
		owner := ownerOf[ch.ProductID]
		evs = append(evs, events.New(events.StockUpdated, owner, ch))
		if ch.NewQuantity <= ch.Threshold && ch.OldQuantity > ch.Threshold {
			evs = append(evs, events.New(events.LowStock, owner, ch))
		}
	}
	return evs
}

type productService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	publisher   events.Publisher
	txTimeout   time.Duration
}

func NewProductService(db *gorm.DB, pRepo repository.ProductRepository, uRepo repository.UserRepository, pub events.Publisher, txTimeout time.Duration) ProductService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &productService{
		db:          db,
		productRepo: pRepo,
		userRepo:    uRepo,
		publisher:   pub,
		txTimeout:   txTimeout,
	}
}

func (s *productService) CreateProduct(ctx context.Context, actor *model.User, req *CreateProductRequest) (*model.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	// 1. Resolve owner: admins may create on behalf of another user
	ownerID := actor.ID
	if req.UserID != nil && *req.UserID != actor.ID {
		if !actor.IsAdmin() {
			return nil, apperr.Forbidden("cannot create products for another user")
		}
		owner, err := s.userRepo.FindByID(ctx, *req.UserID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, apperr.Validation("owner %s does not exist", *req.UserID)
		}
		ownerID = owner.ID
	}

	// 2. Barcode is globally unique
	existing, err := s.productRepo.FindByBarcode(ctx, req.Barcode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Duplicate("product with barcode %q already exists", req.Barcode)
	}

	product := &model.Product{
		UserID:      ownerID,
		Name:        req.Name,
		Barcode:     req.Barcode,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Threshold:   req.Threshold,
		Description: req.Description,
		UpdatedBy:   actor.ID.String(),
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return policy.RequireOwnershipOrAdmin(actor, product, "product")
}

func (s *productService) UpdateProduct(ctx context.Context, actor *model.User, id uuid.UUID, req *UpdateProductRequest) (*model.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var updated *model.Product
	err := repository.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		locked, err := s.productRepo.LockByIDs(tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		product, err := policy.RequireOwnershipOrAdmin(actor, locked[id], "product")
		if err != nil {
			return err
		}

		fields := map[string]interface{}{"updated_by": actor.ID.String()}
		if req.Name != nil {
			fields["name"] = *req.Name
			product.Name = *req.Name
		}
		if req.Barcode != nil && *req.Barcode != product.Barcode {
			fields["barcode"] = *req.Barcode
			product.Barcode = *req.Barcode
		}
		if req.Category != nil {
			fields["category"] = *req.Category
			product.Category = *req.Category
		}
		if req.Price != nil {
			fields["price"] = *req.Price
			product.Price = *req.Price
		}
		if req.Threshold != nil {
			fields["threshold"] = *req.Threshold
			product.Threshold = *req.Threshold
		}
		if req.Description != nil {
			fields["description"] = *req.Description
			product.Description = *req.Description
		}
		if err := s.productRepo.UpdateFields(tx, id, fields); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, actor, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

func (s *productService) AdjustStock(ctx context.Context, actor *model.User, id uuid.UUID, req *AdjustStockRequest) (*model.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var (
		product *model.Product
		change  StockChange
	)
	err := repository.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		locked, err := s.productRepo.LockByIDs(tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		product, err = policy.RequireOwnershipOrAdmin(actor, locked[id], "product")
		if err != nil {
			return err
		}
		newQty, err := s.productRepo.AdjustQuantity(tx, id, req.Delta, actor.ID.String())
		if err != nil {
			return err
		}
		change = StockChange{
			ProductID:   id,
			ProductName: product.Name,
			OldQuantity: product.Quantity,
			NewQuantity: newQty,
			Threshold:   product.Threshold,
			Reason:      req.Reason,
		}
		product.Quantity = newQty
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishAsync(ctx, s.publisher, stockEvents(map[uuid.UUID]uuid.UUID{id: product.UserID}, []StockChange{change})...)
	return product, nil
}

func (s *productService) SearchProducts(ctx context.Context, actor *model.User, filter model.ProductFilter) ([]model.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if scope := policy.OwnerScope(actor); scope != nil {
		filter.UserID = scope
	}
	return s.productRepo.Search(ctx, filter)
}

func (s *productService) LowStockProducts(ctx context.Context, actor *model.User) ([]model.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.productRepo.ListAtOrBelowThreshold(ctx, policy.OwnerScope(actor))
}
