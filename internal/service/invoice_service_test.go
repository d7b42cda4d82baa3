package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/events"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/service"
	"go-pos-ws/internal/testutil"
)

type invoiceFixture struct {
	db     *gorm.DB
	svc    service.InvoiceService
	events *testutil.Recorder
	seller *model.User
	other  *model.User
	admin  *model.User
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()

	db := testutil.NewDB(t)
	rec := &testutil.Recorder{}
	return &invoiceFixture{
		db:     db,
		svc:    service.NewInvoiceService(db, repository.NewProductRepo(db), repository.NewInvoiceRepo(db), rec, 5*time.Second),
		events: rec,
		seller: testutil.CreateUser(t, db, "seller", model.RoleUser),
		other:  testutil.CreateUser(t, db, "other", model.RoleUser),
		admin:  testutil.CreateUser(t, db, "root", model.RoleAdmin),
	}
}

func sale(items ...service.InvoiceItemRequest) *service.CreateInvoiceRequest {
	return &service.CreateInvoiceRequest{CustomerName: "Walk-in", Items: items}
}

func line(p *model.Product, qty int) service.InvoiceItemRequest {
	return service.InvoiceItemRequest{ProductID: p.ID, Quantity: qty}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateInvoice_DeductsStockAndTotals(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Rice 1kg", 10, "5.00")

	inv, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(p, 3)))
	require.NoError(t, err)

	assert.True(t, inv.TotalPrice.Equal(dec("15.00")), "total %s", inv.TotalPrice)
	assert.Equal(t, f.seller.ID, inv.UserID)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].UnitPrice.Equal(dec("5.00")))
	assert.Equal(t, 3, inv.Items[0].Quantity)
	assert.Equal(t, 7, testutil.Quantity(t, f.db, p.ID))

	stored, err := f.svc.GetInvoice(context.Background(), f.seller, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, inv.ID, stored.Items[0].InvoiceID)
	assert.True(t, stored.TotalPrice.Equal(dec("15")))

	require.Eventually(t, func() bool { return len(f.events.Events()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []events.Type{events.InvoiceCreated, events.StockUpdated}, f.events.Types())
	for _, e := range f.events.Events() {
		assert.Equal(t, f.seller.ID, e.OwnerID)
	}
}

func TestCreateInvoice_InsufficientStock(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Milk", 2, "1.50")

	_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(p, 3)))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	var stockErr *apperr.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Contains(t, err.Error(), "Available: 2, Requested: 3")

	assert.Equal(t, 2, testutil.Quantity(t, f.db, p.ID))
	assert.Zero(t, testutil.Count(t, f.db, &model.Invoice{}))
	assert.Zero(t, testutil.Count(t, f.db, &model.InvoiceItem{}))
}

func TestCreateInvoice_DuplicateLinesCountTogether(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Eggs", 5, "0.40")

	_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(p, 3), line(p, 3)))
	var stockErr *apperr.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, testutil.Quantity(t, f.db, p.ID))

	inv, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(p, 2), line(p, 3)))
	require.NoError(t, err)
	assert.Len(t, inv.Items, 2)
	assert.True(t, inv.TotalPrice.Equal(dec("2.00")))
	assert.Zero(t, testutil.Quantity(t, f.db, p.ID))
}

func TestCreateInvoice_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Sugar", 10, "2.00")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(p, 6)))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], apperr.ErrInsufficientStock)
	assert.Equal(t, 4, testutil.Quantity(t, f.db, p.ID))
	assert.EqualValues(t, 1, testutil.Count(t, f.db, &model.Invoice{}))
}

func TestCreateInvoice_PriceSnapshotSurvivesRepricing(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Tea", 10, "5.00")

	override := dec("9.99")
	inv, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(
		service.InvoiceItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: &override},
	))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", p.ID).Update("price", dec("12.50")).Error)

	stored, err := f.svc.GetInvoice(context.Background(), f.seller, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].UnitPrice.Equal(dec("9.99")), "unit price %s", stored.Items[0].UnitPrice)
	assert.True(t, stored.TotalPrice.Equal(dec("9.99")))
}

func TestCreateInvoice_UnitPriceOverride(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Soap", 10, "3.00")

	discounted := dec("2.50")
	zero := decimal.Zero
	inv, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(
		service.InvoiceItemRequest{ProductID: p.ID, Quantity: 2, UnitPrice: &discounted},
		service.InvoiceItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: &zero},
	))
	require.NoError(t, err)

	require.Len(t, inv.Items, 2)
	assert.True(t, inv.Items[0].UnitPrice.Equal(discounted))
	assert.True(t, inv.Items[1].UnitPrice.Equal(dec("3.00")), "zero override falls back to catalogue price")
	assert.True(t, inv.TotalPrice.Equal(dec("8.00")))
}

func TestCreateInvoice_SubCentPriceRejected(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Screw", 10, "0.01")

	fine := dec("0.005")
	_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(
		service.InvoiceItemRequest{ProductID: p.ID, Quantity: 3, UnitPrice: &fine},
	))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 10, testutil.Quantity(t, f.db, p.ID))
	assert.Zero(t, testutil.Count(t, f.db, &model.Invoice{}))
}

func TestCreateInvoice_ForeignProductForbidden(t *testing.T) {
	f := newInvoiceFixture(t)
	own := testutil.CreateProduct(t, f.db, f.seller, "Bread", 10, "1.00")
	foreign := testutil.CreateProduct(t, f.db, f.other, "Butter", 10, "4.00")

	_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(own, 1), line(foreign, 1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Contains(t, err.Error(), "Not authorized to sell product: Butter")

	assert.Equal(t, 10, testutil.Quantity(t, f.db, own.ID))
	assert.Equal(t, 10, testutil.Quantity(t, f.db, foreign.ID))
	assert.Zero(t, testutil.Count(t, f.db, &model.Invoice{}))
}

// lockRecorder remembers which product rows a sale asked to lock.
type lockRecorder struct {
	repository.ProductRepository
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *lockRecorder) LockByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	r.mu.Lock()
	r.ids = append(r.ids, ids...)
	r.mu.Unlock()
	return r.ProductRepository.LockByIDs(tx, ids)
}

func TestCreateInvoice_ForeignRowsNeverLocked(t *testing.T) {
	f := newInvoiceFixture(t)
	own := testutil.CreateProduct(t, f.db, f.seller, "Bread", 10, "1.00")
	foreign := testutil.CreateProduct(t, f.db, f.other, "Butter", 10, "4.00")

	locks := &lockRecorder{ProductRepository: repository.NewProductRepo(f.db)}
	svc := service.NewInvoiceService(f.db, locks, repository.NewInvoiceRepo(f.db), nil, 5*time.Second)

	_, err := svc.CreateInvoice(context.Background(), f.seller, sale(line(own, 1), line(foreign, 1)))
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Contains(t, err.Error(), "Butter")
	assert.Equal(t, []uuid.UUID{own.ID}, locks.ids)

	// unknown ids are still reported as missing products
	_, err = svc.CreateInvoice(context.Background(), f.seller, sale(line(own, 1), service.InvoiceItemRequest{ProductID: uuid.New(), Quantity: 1}))
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestCreateInvoice_AdminSellsAnyProduct(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.other, "Flour", 4, "2.25")

	inv, err := f.svc.CreateInvoice(context.Background(), f.admin, sale(line(p, 4)))
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, inv.UserID)
	assert.Zero(t, testutil.Quantity(t, f.db, p.ID))

	// stock events go to the product owner, the invoice event to the seller
	require.Eventually(t, func() bool { return len(f.events.Events()) == 3 }, time.Second, 10*time.Millisecond)
	evs := f.events.Events()
	assert.Equal(t, events.InvoiceCreated, evs[0].Type)
	assert.Equal(t, f.admin.ID, evs[0].OwnerID)
	assert.Equal(t, events.StockUpdated, evs[1].Type)
	assert.Equal(t, f.other.ID, evs[1].OwnerID)
	assert.Equal(t, events.LowStock, evs[2].Type)
}

func TestCreateInvoice_FailingLineLeavesNoTrace(t *testing.T) {
	f := newInvoiceFixture(t)
	a := testutil.CreateProduct(t, f.db, f.seller, "Oil", 10, "6.00")
	b := testutil.CreateProduct(t, f.db, f.seller, "Salt", 1, "0.80")
	c := testutil.CreateProduct(t, f.db, f.seller, "Pepper", 10, "1.20")

	_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(a, 2), line(b, 5), line(c, 1)))
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	assert.Equal(t, 10, testutil.Quantity(t, f.db, a.ID))
	assert.Equal(t, 1, testutil.Quantity(t, f.db, b.ID))
	assert.Equal(t, 10, testutil.Quantity(t, f.db, c.ID))
	assert.Zero(t, testutil.Count(t, f.db, &model.Invoice{}))
	assert.Zero(t, testutil.Count(t, f.db, &model.InvoiceItem{}))
	assert.Empty(t, f.events.Events())
}

func TestCreateInvoice_StorageFailureRollsBack(t *testing.T) {
	f := newInvoiceFixture(t)
	a := testutil.CreateProduct(t, f.db, f.seller, "Beans", 10, "1.10")
	b := testutil.CreateProduct(t, f.db, f.seller, "Lentils", 10, "1.30")

	var itemInserts int
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_second_item", func(db *gorm.DB) {
		if db.Statement.Schema == nil || db.Statement.Schema.Table != "invoice_items" {
			return
		}
		itemInserts++
		if itemInserts == 2 {
			db.AddError(errors.New("disk I/O error"))
		}
	}))

	_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(a, 1), line(b, 1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTransactionFailure)
	assert.Equal(t, "internal server error", apperr.Public(err))

	assert.Equal(t, 10, testutil.Quantity(t, f.db, a.ID))
	assert.Equal(t, 10, testutil.Quantity(t, f.db, b.ID))
	assert.Zero(t, testutil.Count(t, f.db, &model.Invoice{}))
	assert.Zero(t, testutil.Count(t, f.db, &model.InvoiceItem{}))
}

func TestCreateInvoice_UnknownProduct(t *testing.T) {
	f := newInvoiceFixture(t)
	missing := uuid.New()

	_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(service.InvoiceItemRequest{ProductID: missing, Quantity: 1}))
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), missing.String())
}

func TestCreateInvoice_DeletedProductIsUnknown(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Old stock", 3, "1.00")
	require.NoError(t, repository.NewProductRepo(f.db).Delete(context.Background(), p.ID))

	_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(p, 1)))
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestCreateInvoice_RejectsMalformedRequests(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Water", 10, "0.50")
	negative := dec("-1")

	cases := map[string]*service.CreateInvoiceRequest{
		"no items":       sale(),
		"zero quantity":  sale(line(p, 0)),
		"nil product":    sale(service.InvoiceItemRequest{Quantity: 1}),
		"negative price": sale(service.InvoiceItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: &negative}),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateInvoice(context.Background(), f.seller, req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Equal(t, 10, testutil.Quantity(t, f.db, p.ID))

	_, err := f.svc.CreateInvoice(context.Background(), nil, sale(line(p, 1)))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestGetInvoice_Ownership(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Jam", 5, "3.30")
	inv, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(p, 1)))
	require.NoError(t, err)

	_, err = f.svc.GetInvoice(context.Background(), f.other, inv.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.svc.GetInvoice(context.Background(), f.admin, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	_, err = f.svc.GetInvoice(context.Background(), f.admin, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearchInvoices_ScopesAndFilters(t *testing.T) {
	f := newInvoiceFixture(t)
	mine := testutil.CreateProduct(t, f.db, f.seller, "Cheese", 20, "10.00")
	theirs := testutil.CreateProduct(t, f.db, f.other, "Ham", 20, "7.00")

	_, err := f.svc.CreateInvoice(context.Background(), f.seller, &service.CreateInvoiceRequest{CustomerName: "Alice Cooper", Items: []service.InvoiceItemRequest{line(mine, 1)}})
	require.NoError(t, err)
	_, err = f.svc.CreateInvoice(context.Background(), f.seller, &service.CreateInvoiceRequest{CustomerName: "Bob", Items: []service.InvoiceItemRequest{line(mine, 3)}})
	require.NoError(t, err)
	_, err = f.svc.CreateInvoice(context.Background(), f.other, &service.CreateInvoiceRequest{CustomerName: "alice", Items: []service.InvoiceItemRequest{line(theirs, 1)}})
	require.NoError(t, err)

	got, err := f.svc.SearchInvoices(context.Background(), f.seller, model.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.svc.SearchInvoices(context.Background(), f.admin, model.InvoiceFilter{CustomerName: "ALICE"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	minTotal := dec("20")
	got, err = f.svc.SearchInvoices(context.Background(), f.seller, model.InvoiceFilter{MinTotal: &minTotal})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].CustomerName)
	assert.Len(t, got[0].Items, 1)

	maxTotal := dec("5")
	_, err = f.svc.SearchInvoices(context.Background(), f.seller, model.InvoiceFilter{MinTotal: &minTotal, MaxTotal: &maxTotal})
	assert.ErrorIs(t, err, apperr.ErrInvalidRange)

	later := time.Now().Add(time.Hour)
	earlier := time.Now().Add(-time.Hour)
	_, err = f.svc.SearchInvoices(context.Background(), f.seller, model.InvoiceFilter{DateRange: model.DateRange{Start: &later, End: &earlier}})
	assert.ErrorIs(t, err, apperr.ErrInvalidRange)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSalesSummary(t *testing.T) {
	f := newInvoiceFixture(t)
	p := testutil.CreateProduct(t, f.db, f.seller, "Coffee", 20, "4.00")
	q := testutil.CreateProduct(t, f.db, f.other, "Cocoa", 20, "3.00")

	for _, qty := range []int{1, 2} {
		_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(p, qty)))
		require.NoError(t, err)
	}
	_, err := f.svc.CreateInvoice(context.Background(), f.other, sale(line(q, 1)))
	require.NoError(t, err)

	summary, err := f.svc.SalesSummary(context.Background(), f.seller, model.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Count)
	assert.True(t, summary.TotalRevenue.Equal(dec("12.00")), "revenue %s", summary.TotalRevenue)
	assert.True(t, summary.AverageValue.Equal(dec("6.00")), "average %s", summary.AverageValue)

	all, err := f.svc.SalesSummary(context.Background(), f.admin, model.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Count)
	assert.True(t, all.TotalRevenue.Equal(dec("15.00")))

	future := time.Now().Add(24 * time.Hour)
	empty, err := f.svc.SalesSummary(context.Background(), f.admin, model.DateRange{Start: &future})
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.True(t, empty.TotalRevenue.IsZero())
}

func TestSalesSummary_CentExactTotals(t *testing.T) {
	f := newInvoiceFixture(t)
	dime := testutil.CreateProduct(t, f.db, f.seller, "Sticker", 5, "0.10")
	twenty := testutil.CreateProduct(t, f.db, f.seller, "Stamp", 5, "0.20")

	for _, p := range []*model.Product{dime, twenty} {
		_, err := f.svc.CreateInvoice(context.Background(), f.seller, sale(line(p, 1)))
		require.NoError(t, err)
	}

	summary, err := f.svc.SalesSummary(context.Background(), f.seller, model.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "0.3", summary.TotalRevenue.String())
	assert.Equal(t, "0.15", summary.AverageValue.String())

	stats, err := repository.NewStatsRepo(f.db).GetDashboardStats(context.Background(), &f.seller.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "0.3", stats.RevenueToday.String())
	assert.Equal(t, "1.2", stats.InventoryValuation.String())
}
