package service

import (
	"context"
	"errors"
	"time"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/events"
	"go-pos-ws/internal/logging"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/policy"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, actor *model.User, req *CreateInvoiceRequest) (*model.Invoice, error)
	GetInvoice(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Invoice, error)
	SearchInvoices(ctx context.Context, actor *model.User, filter model.InvoiceFilter) ([]model.Invoice, error)
	SalesSummary(ctx context.Context, actor *model.User, dates model.DateRange) (*model.SalesSummary, error)
}

type InvoiceItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,gte=0,money"`
}

type CreateInvoiceRequest struct {
	CustomerName string               `json:"customer_name" validate:"max=255"`
	Items        []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

type invoiceService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	invoiceRepo repository.InvoiceRepository
	publisher   events.Publisher
	txTimeout   time.Duration
}

func NewInvoiceService(db *gorm.DB, pRepo repository.ProductRepository, iRepo repository.InvoiceRepository, pub events.Publisher, txTimeout time.Duration) InvoiceService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &invoiceService{
		db:          db,
		productRepo: pRepo,
		invoiceRepo: iRepo,
		publisher:   pub,
		txTimeout:   txTimeout,
	}
}

// CreateInvoice records a sale and deducts its stock as one unit. Either the
// header, every item and every decrement commit together, or nothing does.
func (s *invoiceService) CreateInvoice(ctx context.Context, actor *model.User, req *CreateInvoiceRequest) (*model.Invoice, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var (
		invoice *model.Invoice
		changes []StockChange
		ownerOf = map[uuid.UUID]uuid.UUID{}
	)
	err := repository.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		ids := make([]uuid.UUID, len(req.Items))
		for i, item := range req.Items {
			ids[i] = item.ProductID
		}

		// 1. Read without locks to find foreign products, so a rejected
		// sale never holds another tenant's rows
		lockIDs := ids
		var seen map[uuid.UUID]*model.Product
		if !actor.IsAdmin() {
			var err error
			if seen, err = s.productRepo.FindByIDs(tx, ids); err != nil {
				return err
			}
			lockIDs = make([]uuid.UUID, 0, len(ids))
			for _, id := range ids {
				if p, ok := seen[id]; ok && p.UserID == actor.ID {
					lockIDs = append(lockIDs, id)
				}
			}
		}

		// 2. Lock the products this actor may sell, ascending id order
		locked, err := s.productRepo.LockByIDs(tx, lockIDs)
		if err != nil {
			return err
		}

		// 3. Validate all lines in input order before writing anything
		requested := make(map[uuid.UUID]int, len(locked))
		lines := make([]model.InvoiceItem, 0, len(req.Items))
		total := decimal.Zero
		for _, item := range req.Items {
			product, ok := locked[item.ProductID]
			if !ok {
				if p, exists := seen[item.ProductID]; exists && p.UserID != actor.ID {
					return apperr.Forbidden("Not authorized to sell product: %s", p.Name)
				}
				return apperr.ProductNotFound(item.ProductID)
			}
			if !policy.IsOwnerOrAdmin(actor, product.UserID) {
				return apperr.Forbidden("Not authorized to sell product: %s", product.Name)
			}
			requested[product.ID] += item.Quantity
			if product.Quantity < requested[product.ID] {
				return &apperr.StockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.Quantity,
					Requested:   requested[product.ID],
				}
			}

			// A zero override falls back to the catalogue price
			unitPrice := product.Price
			if item.UnitPrice != nil && !item.UnitPrice.IsZero() {
				unitPrice = *item.UnitPrice
			}
			line := model.InvoiceItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: unitPrice,
			}
			total = total.Add(line.LineTotal())
			lines = append(lines, line)
		}

		// 4. Header
		header := &model.Invoice{
			UserID:       actor.ID,
			CustomerName: req.CustomerName,
			TotalPrice:   total,
		}
		if err := s.invoiceRepo.CreateHeader(tx, header); err != nil {
			return err
		}

		// 5. Items and stock decrements
		for i := range lines {
			lines[i].InvoiceID = header.ID
			if err := s.invoiceRepo.CreateItem(tx, &lines[i]); err != nil {
				return err
			}
			if err := s.productRepo.DecrementQuantity(tx, lines[i].ProductID, lines[i].Quantity, actor.ID.String()); err != nil {
				return err
			}
		}

		header.Items = lines
		invoice = header
		for _, id := range repository.SortedUniqueIDs(lockIDs) {
			p := locked[id]
			ownerOf[id] = p.UserID
			changes = append(changes, StockChange{
				ProductID:   id,
				ProductName: p.Name,
				OldQuantity: p.Quantity,
				NewQuantity: p.Quantity - requested[id],
				Threshold:   p.Threshold,
				Reason:      "sale",
			})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrTransactionFailure) {
			logging.FromContext(ctx).Error("invoice transaction failed",
				"user_id", actor.ID, "items", len(req.Items), "error", apperr.Cause(err))
		}
		return nil, err
	}

	evs := []events.Event{events.New(events.InvoiceCreated, invoice.UserID, invoice)}
	publishAsync(ctx, s.publisher, append(evs, stockEvents(ownerOf, changes)...)...)
	return invoice, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Invoice, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return policy.RequireOwnershipOrAdmin(actor, invoice, "invoice")
}

func (s *invoiceService) SearchInvoices(ctx context.Context, actor *model.User, filter model.InvoiceFilter) ([]model.Invoice, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if scope := policy.OwnerScope(actor); scope != nil {
		filter.UserID = scope
	}
	return s.invoiceRepo.Search(ctx, filter)
}

func (s *invoiceService) SalesSummary(ctx context.Context, actor *model.User, dates model.DateRange) (*model.SalesSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := dates.Validate(); err != nil {
		return nil, err
	}
	return s.invoiceRepo.Summary(ctx, policy.OwnerScope(actor), dates)
}
