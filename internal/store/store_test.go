package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

const (
	testContract = "A.0b2a3299cc857e29.TopShot"
	testToken    = "A.1654653399040a61.FlowToken"
)

var (
	alice = "0x00000000000000a1"
	bob   = "0x00000000000000b0"
	carol = "0x00000000000000c0"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return baseTime.Add(time.Duration(seconds) * time.Second)
}

func testItem(tokenID uint64) domain.ItemID {
	return domain.ItemID{Contract: testContract, TokenID: tokenID}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// buildTestList creates an ACTIVE LIST order for the item
func buildTestList(id string, item domain.ItemID, maker string, ts time.Time) *schema.Order {
	return &schema.Order{
		ID:            id,
		Type:          schema.OrderTypeList,
		Status:        schema.OrderStatusActive,
		ItemID:        item.String(),
		Maker:         maker,
		MakeType:      domain.AssetTypeNFT,
		MakeContract:  item.Contract,
		MakeTokenID:   item.TokenID,
		MakeValue:     decimal.NewFromInt(1),
		TakeType:      domain.AssetTypeFungible,
		TakeContract:  testToken,
		TakeValue:     dec("10"),
		Amount:        decimal.NewFromInt(1),
		MakeStock:     decimal.NewFromInt(1),
		Fill:          decimal.Zero,
		CreatedAt:     ts,
		LastUpdatedAt: ts,
	}
}

// buildTestBid creates an ACTIVE BID order backed by testToken
func buildTestBid(id string, item domain.ItemID, maker string, amount string, ts time.Time) *schema.Order {
	return &schema.Order{
		ID:            id,
		Type:          schema.OrderTypeBid,
		Status:        schema.OrderStatusActive,
		ItemID:        item.String(),
		Maker:         maker,
		MakeType:      domain.AssetTypeFungible,
		MakeContract:  testToken,
		MakeValue:     dec(amount),
		TakeType:      domain.AssetTypeNFT,
		TakeContract:  item.Contract,
		TakeTokenID:   item.TokenID,
		TakeValue:     decimal.NewFromInt(1),
		Amount:        dec(amount),
		MakeStock:     dec(amount),
		Fill:          decimal.Zero,
		CreatedAt:     ts,
		LastUpdatedAt: ts,
	}
}

// buildTestLot creates an ACTIVE auction lot
func buildTestLot(id string, item domain.ItemID, seller string, ts time.Time) *schema.AuctionLot {
	return &schema.AuctionLot{
		ID:              id,
		Status:          schema.LotStatusActive,
		Seller:          seller,
		ItemID:          item.String(),
		Contract:        item.Contract,
		TokenID:         item.TokenID,
		SellValue:       decimal.NewFromInt(1),
		Currency:        testToken,
		StartPrice:      dec("5"),
		MinStep:         dec("1"),
		DurationSeconds: 3600,
		StartAt:         ts,
		CreatedAt:       ts,
		LastUpdatedAt:   ts,
	}
}

// =============================================================================
// Items
// =============================================================================

func testSetItemOwnerMonotonic(t *testing.T, store Store) {
	ctx := context.Background()
	item := testItem(1)

	t.Run("first write creates the item", func(t *testing.T) {
		applied, err := store.SetItemOwner(ctx, item, alice, at(10))
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := store.GetItem(ctx, item)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.Owner)
		assert.Equal(t, alice, *got.Owner)
		assert.True(t, got.UpdatedAt.Equal(at(10)))
		assert.Equal(t, item, got.ItemIdentifier())
	})

	t.Run("older write is stale", func(t *testing.T) {
		applied, err := store.SetItemOwner(ctx, item, bob, at(5))
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := store.GetItem(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, alice, *got.Owner)
	})

	t.Run("equal timestamp is applied", func(t *testing.T) {
		applied, err := store.SetItemOwner(ctx, item, bob, at(10))
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := store.GetItem(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, bob, *got.Owner)
	})

	t.Run("missing item is nil", func(t *testing.T) {
		got, err := store.GetItem(ctx, testItem(999))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func testRecordMint(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("mint creates item owned by minter", func(t *testing.T) {
		item := testItem(2)
		err := store.RecordMint(ctx, RecordMintInput{
			ItemID:    item,
			Owner:     alice,
			Creator:   alice,
			Royalties: []domain.Part{{Address: carol, Fee: dec("0.05")}},
			Meta:      map[string]string{"playID": "12"},
			MintedAt:  at(1),
		})
		require.NoError(t, err)

		got, err := store.GetItem(ctx, item)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, alice, *got.Owner)
		assert.Equal(t, alice, got.Creator)
		require.Len(t, got.Royalties, 1)
		assert.Equal(t, carol, got.Royalties[0].Address)
		assert.Equal(t, "12", got.Meta["playID"])
		require.NotNil(t, got.MintedAt)
		assert.True(t, got.MintedAt.Equal(at(1)))
	})

	t.Run("late mint keeps the newer owner", func(t *testing.T) {
		item := testItem(3)
		_, err := store.SetItemOwner(ctx, item, bob, at(20))
		require.NoError(t, err)

		err = store.RecordMint(ctx, RecordMintInput{ItemID: item, Owner: alice, Creator: alice, MintedAt: at(1)})
		require.NoError(t, err)

		got, err := store.GetItem(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, bob, *got.Owner)
		assert.Equal(t, alice, got.Creator)
		assert.True(t, got.UpdatedAt.Equal(at(20)))
	})

	t.Run("mint fills the creator of ownerships recorded before it", func(t *testing.T) {
		item := testItem(4)
		early := schema.NewOwnership(domain.NewOwnershipID(item, bob), "", at(20))
		_, err := store.UpsertOwnership(ctx, early)
		require.NoError(t, err)

		err = store.RecordMint(ctx, RecordMintInput{ItemID: item, Owner: alice, Creator: alice, MintedAt: at(1)})
		require.NoError(t, err)

		got, err := store.GetOwnership(ctx, domain.NewOwnershipID(item, bob))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, alice, got.Creator)
		assert.True(t, got.AcquiredAt.Equal(at(20)))
	})
}

func testReleaseItemOwner(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("clears owner when it matches", func(t *testing.T) {
		item := testItem(4)
		_, err := store.SetItemOwner(ctx, item, alice, at(1))
		require.NoError(t, err)

		applied, err := store.ReleaseItemOwner(ctx, item, alice, at(2))
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := store.GetItem(ctx, item)
		require.NoError(t, err)
		assert.Nil(t, got.Owner)
		assert.True(t, got.UpdatedAt.Equal(at(2)))
	})

	t.Run("keeps owner when it differs", func(t *testing.T) {
		item := testItem(5)
		_, err := store.SetItemOwner(ctx, item, bob, at(1))
		require.NoError(t, err)

		applied, err := store.ReleaseItemOwner(ctx, item, alice, at(2))
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := store.GetItem(ctx, item)
		require.NoError(t, err)
		require.NotNil(t, got.Owner)
		assert.Equal(t, bob, *got.Owner)
	})

	t.Run("unseen item gets an ownerless placeholder", func(t *testing.T) {
		item := testItem(6)
		applied, err := store.ReleaseItemOwner(ctx, item, alice, at(5))
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = store.SetItemOwner(ctx, item, alice, at(3))
		require.NoError(t, err)
		assert.False(t, applied, "older deposit must be stale")

		got, err := store.GetItem(ctx, item)
		require.NoError(t, err)
		assert.Nil(t, got.Owner)
	})
}

func testMarkItemDeleted(t *testing.T, store Store) {
	ctx := context.Background()
	item := testItem(7)

	_, err := store.SetItemOwner(ctx, item, alice, at(1))
	require.NoError(t, err)

	applied, err := store.MarkItemDeleted(ctx, item, at(2))
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := store.GetItem(ctx, item)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Nil(t, got.Owner)

	applied, err = store.SetItemOwner(ctx, item, bob, at(1))
	require.NoError(t, err)
	assert.False(t, applied)

	t.Run("burn of unseen item leaves a tombstone", func(t *testing.T) {
		unseen := testItem(8)
		applied, err := store.MarkItemDeleted(ctx, unseen, at(3))
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := store.GetItem(ctx, unseen)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Deleted)
	})

	t.Run("deleted items are not listed", func(t *testing.T) {
		q, err := continuation.NewPageQuery(continuation.Desc, "", 0)
		require.NoError(t, err)
		items, err := store.ListItems(ctx, ItemFilter{}, q)
		require.NoError(t, err)
		for _, i := range items {
			assert.False(t, i.Deleted)
		}
	})
}

func testListItemsPagination(t *testing.T, store Store) {
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := store.SetItemOwner(ctx, testItem(uint64(100+i)), carol, at(i))
		require.NoError(t, err)
	}
	_, err := store.SetItemOwner(ctx, testItem(200), alice, at(3))
	require.NoError(t, err)

	q, err := continuation.NewPageQuery(continuation.Desc, "", 2)
	require.NoError(t, err)

	var seen []string
	for {
		items, err := store.ListItems(ctx, ItemFilter{Owner: carol}, q)
		require.NoError(t, err)
		page := continuation.NextPage(items, q.Limit, func(i schema.Item) continuation.Continuation {
			return continuation.Continuation{Timestamp: i.UpdatedAt, ID: i.ID}
		})
		for _, i := range page.Items {
			seen = append(seen, i.ID)
		}
		if page.Continuation == "" {
			break
		}
		q, err = continuation.NewPageQuery(continuation.Desc, page.Continuation, 2)
		require.NoError(t, err)
	}

	expected := []string{}
	for i := 5; i >= 1; i-- {
		expected = append(expected, testItem(uint64(100+i)).String())
	}
	assert.Equal(t, expected, seen)
}

func testListItemsFilters(t *testing.T, store Store) {
	ctx := context.Background()
	const otherCollection = "A.f4264ac8f3256818.Evolution"

	mints := []struct {
		item    domain.ItemID
		owner   string
		creator string
	}{
		{item: testItem(300), owner: alice, creator: alice},
		{item: testItem(301), owner: bob, creator: alice},
		{item: testItem(302), owner: bob, creator: bob},
		{item: domain.ItemID{Contract: otherCollection, TokenID: 300}, owner: bob, creator: alice},
	}
	for i, m := range mints {
		err := store.RecordMint(ctx, RecordMintInput{ItemID: m.item, Owner: m.owner, Creator: m.creator, MintedAt: at(i)})
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		filter   ItemFilter
		expected []string
	}{
		{
			name:     "by collection",
			filter:   ItemFilter{Collection: otherCollection},
			expected: []string{otherCollection + ":300"},
		},
		{
			name:     "by creator",
			filter:   ItemFilter{Creator: alice},
			expected: []string{mints[3].item.String(), testItem(301).String(), testItem(300).String()},
		},
		{
			name:     "by creator and collection",
			filter:   ItemFilter{Creator: alice, Collection: testContract},
			expected: []string{testItem(301).String(), testItem(300).String()},
		},
		{
			name:     "by owner and creator",
			filter:   ItemFilter{Owner: bob, Creator: bob},
			expected: []string{testItem(302).String()},
		},
		{
			name:   "no match",
			filter: ItemFilter{Creator: carol},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := continuation.NewPageQuery(continuation.Desc, "", 10)
			require.NoError(t, err)
			items, err := store.ListItems(ctx, tt.filter, q)
			require.NoError(t, err)

			var ids []string
			for _, i := range items {
				ids = append(ids, i.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

// =============================================================================
// Ownerships
// =============================================================================

func testOwnerships(t *testing.T, store Store) {
	ctx := context.Background()
	item := testItem(10)
	aliceID := domain.NewOwnershipID(item, alice)
	bobID := domain.NewOwnershipID(item, bob)

	applied, err := store.UpsertOwnership(ctx, schema.NewOwnership(aliceID, alice, at(5)))
	require.NoError(t, err)
	assert.True(t, applied)

	t.Run("older upsert is stale", func(t *testing.T) {
		applied, err := store.UpsertOwnership(ctx, schema.NewOwnership(aliceID, alice, at(2)))
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := store.GetOwnership(ctx, aliceID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.AcquiredAt.Equal(at(5)))
		assert.Equal(t, item.String(), got.ItemID)
	})

	t.Run("delete older than acquisition is ignored", func(t *testing.T) {
		deleted, err := store.DeleteOwnership(ctx, aliceID, at(4))
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("delete by item returns removed rows", func(t *testing.T) {
		_, err := store.UpsertOwnership(ctx, schema.NewOwnership(bobID, alice, at(9)))
		require.NoError(t, err)

		owned, err := store.FindOwnershipsByItem(ctx, item)
		require.NoError(t, err)
		assert.Len(t, owned, 2)

		deleted, err := store.DeleteOwnershipsByItem(ctx, item, at(6))
		require.NoError(t, err)
		require.Len(t, deleted, 1)
		assert.Equal(t, alice, deleted[0].Owner)

		got, err := store.GetOwnership(ctx, aliceID)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = store.GetOwnership(ctx, bobID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("list by owner", func(t *testing.T) {
		q, err := continuation.NewPageQuery(continuation.Desc, "", 10)
		require.NoError(t, err)
		owned, err := store.ListOwnershipsByOwner(ctx, bob, q)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, bobID.String(), owned[0].ID)

		owned, err = store.ListOwnershipsByItem(ctx, item, q)
		require.NoError(t, err)
		assert.Len(t, owned, 1)
	})
}

// =============================================================================
// Orders
// =============================================================================

func testCreateAndUpdateOrder(t *testing.T, store Store) {
	ctx := context.Background()
	item := testItem(20)
	order := buildTestList("list-1", item, alice, at(1))

	created, err := store.CreateOrder(ctx, order)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateOrder(ctx, buildTestList("list-1", item, bob, at(2)))
	require.NoError(t, err)
	assert.False(t, created, "duplicate open must not overwrite")

	got, err := store.GetOrder(ctx, "list-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice, got.Maker)
	assert.True(t, got.MakeStock.Equal(decimal.NewFromInt(1)))

	t.Run("transition from an outdated read is rejected", func(t *testing.T) {
		outdated := *got
		outdated.Version = got.Version + 1
		next := *got
		next.Status = schema.OrderStatusCancelled
		next.LastUpdatedAt = at(3)
		applied, err := store.UpdateOrderIfMonotonic(ctx, &next, &outdated)
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("transition from a different fill is rejected", func(t *testing.T) {
		outdated := *got
		outdated.Fill = decimal.NewFromInt(1)
		next := *got
		next.Status = schema.OrderStatusCancelled
		next.LastUpdatedAt = at(3)
		applied, err := store.UpdateOrderIfMonotonic(ctx, &next, &outdated)
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("older transition is rejected", func(t *testing.T) {
		next := *got
		next.Status = schema.OrderStatusCancelled
		next.LastUpdatedAt = at(0)
		applied, err := store.UpdateOrderIfMonotonic(ctx, &next, got)
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("stock update keeps the lifecycle timestamp", func(t *testing.T) {
		applied, err := store.UpdateOrderStock(ctx, got, decimal.Zero, schema.OrderStatusInactive)
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = store.UpdateOrderStock(ctx, got, decimal.NewFromInt(1), schema.OrderStatusActive)
		require.NoError(t, err)
		assert.False(t, applied, "the version already moved")

		stored, err := store.GetOrder(ctx, "list-1")
		require.NoError(t, err)
		assert.Equal(t, schema.OrderStatusInactive, stored.Status)
		assert.Equal(t, got.Version+1, stored.Version)
		assert.Equal(t, at(1), stored.LastUpdatedAt.UTC())
		got = stored
	})

	t.Run("fill applies once", func(t *testing.T) {
		next := *got
		next.Status = schema.OrderStatusFilled
		next.Fill = decimal.NewFromInt(1)
		next.MakeStock = decimal.Zero
		next.Taker = &bob
		next.LastUpdatedAt = at(3)

		applied, err := store.UpdateOrderIfMonotonic(ctx, &next, got)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, got.Version+1, next.Version)

		applied, err = store.UpdateOrderIfMonotonic(ctx, &next, got)
		require.NoError(t, err)
		assert.False(t, applied)

		stored, err := store.GetOrder(ctx, "list-1")
		require.NoError(t, err)
		assert.Equal(t, schema.OrderStatusFilled, stored.Status)
		require.NotNil(t, stored.Taker)
		assert.Equal(t, bob, *stored.Taker)
		assert.True(t, stored.Fill.Equal(decimal.NewFromInt(1)))
		got = stored
	})

	t.Run("stock update never touches terminal orders", func(t *testing.T) {
		applied, err := store.UpdateOrderStock(ctx, got, decimal.NewFromInt(1), schema.OrderStatusActive)
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func testFindListOrdersByItem(t *testing.T, store Store) {
	ctx := context.Background()
	item := testItem(21)

	_, err := store.CreateOrder(ctx, buildTestList("l-a", item, alice, at(1)))
	require.NoError(t, err)
	inactive := buildTestList("l-b", item, bob, at(2))
	inactive.Status = schema.OrderStatusInactive
	_, err = store.CreateOrder(ctx, inactive)
	require.NoError(t, err)
	_, err = store.CreateOrder(ctx, buildTestBid("b-a", item, carol, "3", at(1)))
	require.NoError(t, err)

	orders, err := store.FindListOrdersByItem(ctx, item.String(), "", []schema.OrderStatus{schema.OrderStatusActive, schema.OrderStatusInactive}, at(5))
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = store.FindListOrdersByItem(ctx, item.String(), bob, []schema.OrderStatus{schema.OrderStatusInactive}, at(5))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "l-b", orders[0].ID)

	orders, err = store.FindListOrdersByItem(ctx, item.String(), "", []schema.OrderStatus{schema.OrderStatusActive}, at(0))
	require.NoError(t, err)
	assert.Empty(t, orders, "orders updated after ts are excluded")

	orders, err = store.FindListOrdersByItem(ctx, item.String(), alice, []schema.OrderStatus{schema.OrderStatusActive}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, orders, 1, "a zero ts matches every order")

	listType := schema.OrderTypeBid
	q, err := continuation.NewPageQuery(continuation.Desc, "", 10)
	require.NoError(t, err)
	orders, err = store.ListOrdersByItem(ctx, item.String(), &listType, q)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "b-a", orders[0].ID)
}

func testBidsByMakerAndToken(t *testing.T, store Store) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := store.CreateOrder(ctx, buildTestBid(fmt.Sprintf("bid-%d", i), testItem(uint64(30+i)), alice, "2", at(i)))
		require.NoError(t, err)
	}
	filled := buildTestBid("bid-filled", testItem(40), alice, "2", at(9))
	filled.Status = schema.OrderStatusFilled
	_, err := store.CreateOrder(ctx, filled)
	require.NoError(t, err)
	_, err = store.CreateOrder(ctx, buildTestBid("bid-bob", testItem(41), bob, "2", at(1)))
	require.NoError(t, err)

	q, err := continuation.NewPageQuery(continuation.Desc, "", 3)
	require.NoError(t, err)
	first, err := store.FindBidsByMakerAndToken(ctx, alice, testToken, q)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "bid-4", first[0].ID)

	last := first[len(first)-1]
	q.After = &continuation.Continuation{Timestamp: last.CreatedAt, ID: last.ID}
	second, err := store.FindBidsByMakerAndToken(ctx, alice, testToken, q)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "bid-0", second[1].ID)

	t.Run("bid makers are distinct and ordered", func(t *testing.T) {
		keys, err := store.ListBidMakers(ctx, nil, 10)
		require.NoError(t, err)
		assert.Equal(t, []BalanceKey{{Owner: alice, Token: testToken}, {Owner: bob, Token: testToken}}, keys)

		keys, err = store.ListBidMakers(ctx, &BalanceKey{Owner: alice, Token: testToken}, 10)
		require.NoError(t, err)
		assert.Equal(t, []BalanceKey{{Owner: bob, Token: testToken}}, keys)
	})

	t.Run("stock update flips open bids", func(t *testing.T) {
		current, err := store.GetOrder(ctx, "bid-0")
		require.NoError(t, err)
		applied, err := store.UpdateOrderStock(ctx, current, decimal.Zero, schema.OrderStatusInactive)
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := store.GetOrder(ctx, "bid-0")
		require.NoError(t, err)
		assert.Equal(t, schema.OrderStatusInactive, got.Status)
		assert.True(t, got.MakeStock.IsZero())

		applied, err = store.UpdateOrderStock(ctx, current, dec("2"), schema.OrderStatusActive)
		require.NoError(t, err)
		assert.False(t, applied, "a stock update from an outdated read is rejected")
	})
}

// =============================================================================
// Auction lots
// =============================================================================

func testAuctionLots(t *testing.T, store Store) {
	ctx := context.Background()
	lot := buildTestLot("lot-1", testItem(50), alice, at(1))

	created, err := store.CreateLot(ctx, lot)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateLot(ctx, lot)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := store.GetLot(ctx, "lot-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.BuyoutPrice.Valid)
	assert.True(t, got.StartPrice.Equal(dec("5")))

	next := *got
	next.LastBidAmount = decimal.NewNullDecimal(dec("6"))
	next.LastBidder = &bob
	bidAt := at(2)
	next.LastBidAt = &bidAt
	next.LastUpdatedAt = at(2)
	applied, err := store.UpdateLotIfMonotonic(ctx, &next, schema.LotStatusActive)
	require.NoError(t, err)
	assert.True(t, applied)

	stale := next
	stale.LastUpdatedAt = at(1)
	stale.Status = schema.LotStatusCanceled
	applied, err = store.UpdateLotIfMonotonic(ctx, &stale, schema.LotStatusActive)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err = store.GetLot(ctx, "lot-1")
	require.NoError(t, err)
	assert.Equal(t, schema.LotStatusActive, got.Status)
	require.True(t, got.LastBidAmount.Valid)
	assert.True(t, got.LastBidAmount.Decimal.Equal(dec("6")))

	status := schema.LotStatusActive
	q, err := continuation.NewPageQuery(continuation.Desc, "", 10)
	require.NoError(t, err)
	lots, err := store.ListLots(ctx, &status, q)
	require.NoError(t, err)
	assert.Len(t, lots, 1)
}

// =============================================================================
// Balances, idempotence and activities
// =============================================================================

func testApplyBalanceDelta(t *testing.T, store Store) {
	ctx := context.Background()

	amount, applied, err := store.ApplyBalanceDelta(ctx, &schema.BalanceHistory{
		LogID: "log-1", Owner: alice, Token: testToken, Delta: dec("10.5"), Timestamp: at(1),
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, amount.Equal(dec("10.5")), amount.String())

	amount, applied, err = store.ApplyBalanceDelta(ctx, &schema.BalanceHistory{
		LogID: "log-2", Owner: alice, Token: testToken, Delta: dec("-3"), Timestamp: at(2),
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, amount.Equal(dec("7.5")), amount.String())

	amount, applied, err = store.ApplyBalanceDelta(ctx, &schema.BalanceHistory{
		LogID: "log-2", Owner: alice, Token: testToken, Delta: dec("-3"), Timestamp: at(2),
	})
	require.NoError(t, err)
	assert.False(t, applied, "replayed log is a no-op")
	assert.True(t, amount.Equal(dec("7.5")), amount.String())

	balance, err := store.GetBalance(ctx, alice, testToken)
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.True(t, balance.Amount.Equal(dec("7.5")))

	balance, err = store.GetBalance(ctx, bob, testToken)
	require.NoError(t, err)
	assert.Nil(t, balance)
}

func testProcessedLogs(t *testing.T, store Store) {
	ctx := context.Background()
	logID := domain.LogID("aa.0")

	seen, err := store.IsLogSeen(ctx, logID)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.MarkLogSeen(ctx, logID, at(1)))
	require.NoError(t, store.MarkLogSeen(ctx, logID, at(2)))

	seen, err = store.IsLogSeen(ctx, logID)
	require.NoError(t, err)
	assert.True(t, seen)
}

func testCheckpoints(t *testing.T, store Store) {
	ctx := context.Background()
	const key = "bid_sweep"

	value, err := store.GetCheckpoint(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.SetCheckpoint(ctx, key, "first", at(1)))
	require.NoError(t, store.SetCheckpoint(ctx, key, "second", at(2)))

	value, err = store.GetCheckpoint(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	require.NoError(t, store.DeleteCheckpoint(ctx, key))
	require.NoError(t, store.DeleteCheckpoint(ctx, key))

	value, err = store.GetCheckpoint(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, value)
}

func testActivities(t *testing.T, store Store) {
	ctx := context.Background()
	itemID := testItem(60).String()

	activities := []*schema.ItemHistory{
		{LogID: "a.0", Type: domain.ActivityTypeMint, Contract: testContract, ItemID: &itemID, To: &alice, Timestamp: at(1)},
		{LogID: "a.1", Type: domain.ActivityTypeTransfer, Contract: testContract, ItemID: &itemID, From: &alice, To: &bob, Timestamp: at(2)},
		{LogID: "a.2", Type: domain.ActivityTypeList, Contract: testContract, ItemID: &itemID, Maker: &bob, Timestamp: at(3)},
		{LogID: "a.3", Type: domain.ActivityTypeBalanceChanged, Contract: testToken, To: &carol, Amount: decimal.NewNullDecimal(dec("1")), Timestamp: at(4)},
	}
	for _, a := range activities {
		require.NoError(t, store.SaveActivity(ctx, a))
	}
	require.NoError(t, store.SaveActivity(ctx, activities[0]))

	q, err := continuation.NewPageQuery(continuation.Desc, "", 10)
	require.NoError(t, err)

	t.Run("by item", func(t *testing.T) {
		got, err := store.ListActivities(ctx, ActivityFilter{ItemID: itemID}, q)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "a.2", got[0].LogID)
	})

	t.Run("by user", func(t *testing.T) {
		got, err := store.ListActivities(ctx, ActivityFilter{User: bob}, q)
		require.NoError(t, err)
		require.Len(t, got, 2)
	})

	t.Run("by type", func(t *testing.T) {
		got, err := store.ListActivities(ctx, ActivityFilter{Types: []domain.ActivityType{domain.ActivityTypeMint, domain.ActivityTypeBalanceChanged}}, q)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a.3", got[0].LogID)
	})

	t.Run("ascending", func(t *testing.T) {
		asc, err := continuation.NewPageQuery(continuation.Asc, "", 1)
		require.NoError(t, err)
		got, err := store.ListActivities(ctx, ActivityFilter{}, asc)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a.0", got[0].LogID)
	})
}

// =============================================================================
// Suite
// =============================================================================

// RunStoreTests runs every store test against the store returned by initDB
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"SetItemOwnerMonotonic", testSetItemOwnerMonotonic},
		{"RecordMint", testRecordMint},
		{"ReleaseItemOwner", testReleaseItemOwner},
		{"MarkItemDeleted", testMarkItemDeleted},
		{"ListItemsPagination", testListItemsPagination},
		{"ListItemsFilters", testListItemsFilters},
		{"Ownerships", testOwnerships},
		{"CreateAndUpdateOrder", testCreateAndUpdateOrder},
		{"FindListOrdersByItem", testFindListOrdersByItem},
		{"BidsByMakerAndToken", testBidsByMakerAndToken},
		{"AuctionLots", testAuctionLots},
		{"ApplyBalanceDelta", testApplyBalanceDelta},
		{"ProcessedLogs", testProcessedLogs},
		{"Activities", testActivities},
		{"Checkpoints", testCheckpoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, initDB(t))
		})
	}
}
