package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/order"
	"github.com/feral-file/ff-market-indexer/internal/store"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
	"github.com/feral-file/ff-market-indexer/internal/store/storetest"
)

const (
	topShot   = "A.0b2a3299cc857e29.TopShot"
	flowToken = "A.1654653399040a61.FlowToken"
	maker     = "0x00000000000000a1"
	taker     = "0x00000000000000b0"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return t0.Add(time.Duration(seconds) * time.Second)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var item = domain.ItemID{Contract: topShot, TokenID: 42}

func listing(t *testing.T, id, amount string, ts time.Time) *schema.Order {
	t.Helper()
	o, err := order.FromList(domain.ListActivity{
		ActivityMeta: domain.ActivityMeta{Contract: "A.4eb8a10cb9f87357.NFTStorefront", Timestamp: ts},
		OrderID:      id,
		Maker:        maker,
		Make:         domain.NFTAsset(item, dec(amount)),
		Take:         domain.FungibleAsset(flowToken, dec("10")),
		Amount:       dec(amount),
	})
	require.NoError(t, err)
	return o
}

func bid(t *testing.T, id, amount string, ts time.Time) *schema.Order {
	t.Helper()
	o, err := order.FromBid(domain.BidActivity{
		ActivityMeta: domain.ActivityMeta{Contract: "A.01ab36aaf654a13e.RaribleOpenBid", Timestamp: ts},
		OrderID:      id,
		Maker:        maker,
		Make:         domain.FungibleAsset(flowToken, dec(amount)),
		Take:         domain.NFTAsset(item, decimal.NewFromInt(1)),
		Amount:       dec(amount),
	})
	require.NoError(t, err)
	return o
}

func setup(t *testing.T) (order.Engine, store.Store) {
	st := storetest.NewStore(t)
	return order.NewEngine(st), st
}

func getOrder(t *testing.T, st store.Store, id string) *schema.Order {
	t.Helper()
	o, err := st.GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, o)
	return o
}

func assertOrder(t *testing.T, st store.Store, id string, status schema.OrderStatus, stock string) {
	t.Helper()
	o := getOrder(t, st, id)
	assert.Equal(t, status, o.Status)
	assert.True(t, dec(stock).Equal(o.MakeStock), "make stock: expected %s, got %s", stock, o.MakeStock)
}

func TestStock(t *testing.T) {
	tests := []struct {
		name     string
		order    *schema.Order
		backing  string
		expected string
	}{
		{name: "bid capped by balance", order: &schema.Order{Type: schema.OrderTypeBid, Amount: dec("10"), Fill: dec("2")}, backing: "5", expected: "5"},
		{name: "bid capped by remaining", order: &schema.Order{Type: schema.OrderTypeBid, Amount: dec("10"), Fill: dec("2")}, backing: "50", expected: "8"},
		{name: "bid without balance", order: &schema.Order{Type: schema.OrderTypeBid, Amount: dec("10")}, backing: "0", expected: "0"},
		{name: "bid with negative balance", order: &schema.Order{Type: schema.OrderTypeBid, Amount: dec("10")}, backing: "-3", expected: "0"},
		{name: "owned listing", order: &schema.Order{Type: schema.OrderTypeList, Amount: dec("10"), Fill: dec("4")}, backing: "1", expected: "6"},
		{name: "listing not owned", order: &schema.Order{Type: schema.OrderTypeList, Amount: dec("10")}, backing: "0", expected: "0"},
		{name: "filled order", order: &schema.Order{Type: schema.OrderTypeBid, Amount: dec("10"), Fill: dec("10")}, backing: "10", expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dec(tt.expected).Equal(order.Stock(tt.order, dec(tt.backing))))
		})
	}
}

func TestEngine_Open(t *testing.T) {
	ctx := context.Background()
	e, st := setup(t)

	created, err := e.Open(ctx, bid(t, "b1", "10", at(0)), dec("4"))
	require.NoError(t, err)
	assert.True(t, created)
	assertOrder(t, st, "b1", schema.OrderStatusActive, "4")

	// redelivery with a different backing leaves the stored order untouched
	created, err = e.Open(ctx, bid(t, "b1", "10", at(0)), dec("10"))
	require.NoError(t, err)
	assert.False(t, created)
	assertOrder(t, st, "b1", schema.OrderStatusActive, "4")

	created, err = e.Open(ctx, bid(t, "b2", "10", at(0)), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, created)
	assertOrder(t, st, "b2", schema.OrderStatusInactive, "0")

	_, err = e.Open(ctx, bid(t, "b3", "0", at(0)), dec("10"))
	assert.ErrorIs(t, err, domain.ErrMapping)
}

func TestEngine_Cancel(t *testing.T) {
	ctx := context.Background()
	e, st := setup(t)

	_, err := e.Open(ctx, listing(t, "l1", "1", at(10)), dec("1"))
	require.NoError(t, err)

	_, err = e.Cancel(ctx, "l1", at(5))
	assert.ErrorIs(t, err, domain.ErrStaleUpdate)
	assertOrder(t, st, "l1", schema.OrderStatusActive, "1")

	cancelled, err := e.Cancel(ctx, "l1", at(20))
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusCancelled, cancelled.Status)
	assertOrder(t, st, "l1", schema.OrderStatusCancelled, "0")

	// terminal orders accept no transition
	_, err = e.Cancel(ctx, "l1", at(30))
	assert.ErrorIs(t, err, domain.ErrStaleUpdate)
	_, err = e.Fill(ctx, "l1", nil, taker, at(30), dec("1"))
	assert.ErrorIs(t, err, domain.ErrStaleUpdate)

	_, err = e.Cancel(ctx, "missing", at(30))
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestEngine_Fill(t *testing.T) {
	ctx := context.Background()
	e, st := setup(t)

	_, err := e.Open(ctx, bid(t, "b1", "10", at(0)), dec("10"))
	require.NoError(t, err)

	partial := dec("3")
	filled, err := e.Fill(ctx, "b1", &partial, taker, at(1), dec("7"))
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusActive, filled.Status)
	assert.True(t, dec("3").Equal(filled.Fill))
	assert.True(t, dec("7").Equal(filled.MakeStock))
	require.NotNil(t, filled.Taker)
	assert.Equal(t, taker, *filled.Taker)

	// fill beyond the remaining amount completes the order
	filled, err = e.Fill(ctx, "b1", nil, taker, at(2), dec("7"))
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusFilled, filled.Status)

	stored := getOrder(t, st, "b1")
	assert.Equal(t, schema.OrderStatusFilled, stored.Status)
	assert.True(t, dec("10").Equal(stored.Fill))
	assert.True(t, stored.MakeStock.IsZero())
	assert.Equal(t, at(2), stored.LastUpdatedAt.UTC())
}

func TestEngine_RecomputeStock(t *testing.T) {
	ctx := context.Background()
	e, st := setup(t)

	_, err := e.Open(ctx, bid(t, "b1", "10", at(0)), dec("10"))
	require.NoError(t, err)

	// balance 10 then delta -5 then delta -5
	o := getOrder(t, st, "b1")
	changed, err := e.RecomputeStock(ctx, o, dec("5"))
	require.NoError(t, err)
	assert.True(t, changed)
	assertOrder(t, st, "b1", schema.OrderStatusActive, "5")
	assert.Equal(t, getOrder(t, st, "b1").Version, o.Version)

	o = getOrder(t, st, "b1")
	changed, err = e.RecomputeStock(ctx, o, dec("0"))
	require.NoError(t, err)
	assert.True(t, changed)
	assertOrder(t, st, "b1", schema.OrderStatusInactive, "0")

	// recomputes leave the lifecycle timestamp alone
	assert.Equal(t, at(0), getOrder(t, st, "b1").LastUpdatedAt.UTC())

	// unchanged state is not rewritten
	o = getOrder(t, st, "b1")
	version := o.Version
	changed, err = e.RecomputeStock(ctx, o, dec("0"))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, version, getOrder(t, st, "b1").Version)

	_, err = e.Cancel(ctx, "b1", at(4))
	require.NoError(t, err)
	o = getOrder(t, st, "b1")
	changed, err = e.RecomputeStock(ctx, o, dec("10"))
	require.NoError(t, err)
	assert.False(t, changed)
	assertOrder(t, st, "b1", schema.OrderStatusCancelled, "0")
}

func TestEngine_RecomputeStockRetriesOnOutdatedCopy(t *testing.T) {
	ctx := context.Background()
	e, st := setup(t)

	_, err := e.Open(ctx, bid(t, "b1", "10", at(0)), dec("10"))
	require.NoError(t, err)
	outdated := getOrder(t, st, "b1")

	// a partial fill lands between the read and the recompute
	filled := dec("4")
	_, err = e.Fill(ctx, "b1", &filled, taker, at(1), dec("10"))
	require.NoError(t, err)

	changed, err := e.RecomputeStock(ctx, outdated, dec("3"))
	require.NoError(t, err)
	assert.True(t, changed)

	stored := getOrder(t, st, "b1")
	assert.True(t, dec("4").Equal(stored.Fill), "fill must survive the recompute")
	assert.True(t, dec("3").Equal(stored.MakeStock))
	assert.Equal(t, at(1), stored.LastUpdatedAt.UTC())

	// an outdated copy of a cancelled order is never reopened
	_, err = e.Cancel(ctx, "b1", at(2))
	require.NoError(t, err)
	changed, err = e.RecomputeStock(ctx, stored, dec("10"))
	require.NoError(t, err)
	assert.False(t, changed)
	assertOrder(t, st, "b1", schema.OrderStatusCancelled, "0")
}

func TestEngine_CancelIsIndependentOfRecomputeOrder(t *testing.T) {
	tests := []struct {
		name  string
		steps []string
	}{
		{name: "recompute first", steps: []string{"recompute", "cancel"}},
		{name: "cancel first", steps: []string{"cancel", "recompute"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			e, st := setup(t)

			_, err := e.Open(ctx, bid(t, "b1", "10", at(1)), dec("10"))
			require.NoError(t, err)

			for _, step := range tt.steps {
				switch step {
				case "recompute":
					// balance drops to -1 at 9
					_, err = e.RecomputeStock(ctx, getOrder(t, st, "b1"), dec("-1"))
					require.NoError(t, err)
				case "cancel":
					_, err = e.Cancel(ctx, "b1", at(7))
					require.NoError(t, err)
				}
			}

			assertOrder(t, st, "b1", schema.OrderStatusCancelled, "0")
			assert.Equal(t, at(7), getOrder(t, st, "b1").LastUpdatedAt.UTC())
		})
	}
}

func TestEngine_ListingsFollowOwnership(t *testing.T) {
	ctx := context.Background()
	e, st := setup(t)

	_, err := e.Open(ctx, listing(t, "l1", "10", at(0)), decimal.NewFromInt(1))
	require.NoError(t, err)
	assertOrder(t, st, "l1", schema.OrderStatusActive, "10")

	// the NFT leaves the maker
	changed, err := e.DeactivateListings(ctx, item, maker)
	require.NoError(t, err)
	assert.Len(t, changed, 1)
	assertOrder(t, st, "l1", schema.OrderStatusInactive, "0")

	// someone else receiving it does not reactivate the listing
	changed, err = e.ReactivateListings(ctx, item, taker)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assertOrder(t, st, "l1", schema.OrderStatusInactive, "0")

	// back to the maker
	changed, err = e.ReactivateListings(ctx, item, maker)
	require.NoError(t, err)
	assert.Len(t, changed, 1)
	assertOrder(t, st, "l1", schema.OrderStatusActive, "10")
	assert.Equal(t, at(0), getOrder(t, st, "l1").LastUpdatedAt.UTC())

	// a cancelled listing stays cancelled when the maker receives the item again
	_, err = e.DeactivateListings(ctx, item, maker)
	require.NoError(t, err)
	_, err = e.Cancel(ctx, "l1", at(7))
	require.NoError(t, err)
	changed, err = e.ReactivateListings(ctx, item, maker)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assertOrder(t, st, "l1", schema.OrderStatusCancelled, "0")
}

func TestEngine_ListingOpenedBeforeOwnershipIsSeen(t *testing.T) {
	ctx := context.Background()
	e, st := setup(t)

	_, err := e.Open(ctx, listing(t, "l1", "1", at(10)), decimal.Zero)
	require.NoError(t, err)
	assertOrder(t, st, "l1", schema.OrderStatusInactive, "0")

	// the deposit happened before the listing but is processed after it
	changed, err := e.ReactivateListings(ctx, item, maker)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assertOrder(t, st, "l1", schema.OrderStatusActive, "1")
}

func TestEngine_CancelListings(t *testing.T) {
	ctx := context.Background()
	e, st := setup(t)

	_, err := e.Open(ctx, listing(t, "l1", "1", at(0)), decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = e.Open(ctx, listing(t, "l2", "1", at(0)), decimal.Zero)
	require.NoError(t, err)
	_, err = e.Open(ctx, bid(t, "b1", "5", at(0)), dec("5"))
	require.NoError(t, err)

	cancelled, err := e.CancelListings(ctx, item, at(5))
	require.NoError(t, err)
	assert.Len(t, cancelled, 2)

	assertOrder(t, st, "l1", schema.OrderStatusCancelled, "0")
	assertOrder(t, st, "l2", schema.OrderStatusCancelled, "0")
	assertOrder(t, st, "b1", schema.OrderStatusActive, "5")
}
