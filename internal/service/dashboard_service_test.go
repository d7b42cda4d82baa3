package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/service"
	"go-pos-ws/internal/testutil"
)

func TestDashboard(t *testing.T) {
	f := newInvoiceFixture(t)
	svc := service.NewDashboardService(repository.NewStatsRepo(f.db))
	ctx := context.Background()

	rice := testutil.CreateProduct(t, f.db, f.seller, "Rice", 10, "5.00")
	testutil.CreateProduct(t, f.db, f.seller, "Salt", 1, "1.00")
	foreign := testutil.CreateProduct(t, f.db, f.other, "Oil", 3, "8.00")

	_, err := f.svc.CreateInvoice(ctx, f.seller, sale(line(rice, 2)))
	require.NoError(t, err)
	_, err = f.svc.CreateInvoice(ctx, f.seller, sale(line(rice, 1)))
	require.NoError(t, err)
	_, err = f.svc.CreateInvoice(ctx, f.other, sale(line(foreign, 1)))
	require.NoError(t, err)

	t.Run("stats are tenant scoped", func(t *testing.T) {
		stats, err := svc.GetDashboardStats(ctx, f.seller)
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.TotalProducts)
		assert.EqualValues(t, 1, stats.LowStockCount)
		assert.True(t, stats.InventoryValuation.Equal(dec("36")), "valuation %s", stats.InventoryValuation)
		assert.EqualValues(t, 2, stats.InvoicesToday)
		assert.True(t, stats.RevenueToday.Equal(dec("15")), "revenue %s", stats.RevenueToday)

		all, err := svc.GetDashboardStats(ctx, f.admin)
		require.NoError(t, err)
		assert.EqualValues(t, 3, all.TotalProducts)
		assert.EqualValues(t, 2, all.LowStockCount)
		assert.EqualValues(t, 3, all.InvoicesToday)
	})

	t.Run("sales movement", func(t *testing.T) {
		movement, err := svc.GetSalesMovement(ctx, f.seller, 7)
		require.NoError(t, err)
		require.Len(t, movement, 1)
		assert.Equal(t, time.Now().UTC().Format("2006-01-02"), movement[0].Date)
		assert.EqualValues(t, 2, movement[0].Invoices)
		assert.True(t, movement[0].Revenue.Equal(dec("15")))

		for _, days := range []int{0, 91} {
			_, err := svc.GetSalesMovement(ctx, f.seller, days)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		}
	})

	_, err = svc.GetDashboardStats(ctx, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
