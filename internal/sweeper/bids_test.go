package sweeper_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/messaging"
	"github.com/feral-file/ff-market-indexer/internal/mocks"
	"github.com/feral-file/ff-market-indexer/internal/order"
	"github.com/feral-file/ff-market-indexer/internal/store"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
	"github.com/feral-file/ff-market-indexer/internal/store/storetest"
	"github.com/feral-file/ff-market-indexer/internal/sweeper"
)

const (
	topShot   = "A.0b2a3299cc857e29.TopShot"
	flowToken = "A.1654653399040a61.FlowToken"
	maker     = "0x00000000000000b0"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return t0.Add(time.Duration(seconds) * time.Second)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newBid(t *testing.T, id string, amount string, ts time.Time) *schema.Order {
	t.Helper()
	return newBidBy(t, maker, id, amount, ts)
}

func newBidBy(t *testing.T, by, id string, amount string, ts time.Time) *schema.Order {
	t.Helper()
	o, err := order.FromBid(domain.BidActivity{
		ActivityMeta: domain.ActivityMeta{Contract: "A.01ab36aaf654a13e.RaribleOpenBid", Timestamp: ts},
		OrderID:      id,
		Maker:        by,
		Make:         domain.FungibleAsset(flowToken, dec(amount)),
		Take:         domain.NFTAsset(domain.ItemID{Contract: topShot, TokenID: 1}, decimal.NewFromInt(1)),
		Amount:       dec(amount),
	})
	require.NoError(t, err)
	return o
}

func balanceChanged(logID, delta string, ts time.Time) domain.BalanceChangedActivity {
	return domain.BalanceChangedActivity{
		ActivityMeta: domain.ActivityMeta{LogID: domain.LogID(logID), Contract: flowToken, Timestamp: ts},
		Owner:        maker,
		Delta:        dec(delta),
	}
}

// recordingEngine remembers every order it was asked to re-derive
type recordingEngine struct {
	order.Engine
	mu   sync.Mutex
	seen map[string]int
}

func (e *recordingEngine) RecomputeStock(ctx context.Context, o *schema.Order, backing decimal.Decimal) (bool, error) {
	e.mu.Lock()
	e.seen[o.ID]++
	e.mu.Unlock()
	return e.Engine.RecomputeStock(ctx, o, backing)
}

// flakyStore fails the first page read as if the database dropped the connection
type flakyStore struct {
	store.Store
	failures int
	calls    int
}

func (s *flakyStore) FindBidsByMakerAndToken(ctx context.Context, owner, token string, q continuation.PageQuery) ([]schema.Order, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, fmt.Errorf("find bids: %w", domain.ErrStoreUnavailable)
	}
	return s.Store.FindBidsByMakerAndToken(ctx, owner, token, q)
}

func fastRetry(pageSize int) sweeper.BidActivationConfig {
	return sweeper.BidActivationConfig{
		PageSize:             pageSize,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
		RetryMaxElapsed:      time.Second,
	}
}

func TestBidActivationSweeper_Name(t *testing.T) {
	s := sweeper.NewBidActivationSweeper(sweeper.BidActivationConfig{}, nil, nil, messaging.NopNotifier{}, adapter.NewClock())
	assert.Equal(t, "bid-activation-sweeper", s.Name())
}

func TestBidActivationSweeper_OnBalanceChange(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewStore(t)
	engine := order.NewEngine(st)
	s := sweeper.NewBidActivationSweeper(fastRetry(10), st, engine, messaging.NopNotifier{}, adapter.NewClock())

	require.NoError(t, s.OnBalanceChange(ctx, balanceChanged("b0", "10", at(0))))
	_, err := engine.Open(ctx, newBid(t, "B1", "10", at(1)), dec("10"))
	require.NoError(t, err)

	require.NoError(t, s.OnBalanceChange(ctx, balanceChanged("b1", "-5", at(2))))
	o, err := st.GetOrder(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusActive, o.Status)
	assert.True(t, dec("5").Equal(o.MakeStock))

	require.NoError(t, s.OnBalanceChange(ctx, balanceChanged("b2", "-5", at(3))))
	o, err = st.GetOrder(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusInactive, o.Status)
	assert.True(t, o.MakeStock.IsZero())

	// the same log applied twice does not move the balance again
	require.NoError(t, s.OnBalanceChange(ctx, balanceChanged("b2", "-5", at(3))))
	balance, err := st.GetBalance(ctx, maker, flowToken)
	require.NoError(t, err)
	assert.True(t, balance.Amount.IsZero())

	require.NoError(t, s.OnBalanceChange(ctx, balanceChanged("b3", "20", at(4))))
	o, err = st.GetOrder(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusActive, o.Status)
	assert.True(t, dec("10").Equal(o.MakeStock))
}

func TestBidActivationSweeper_VisitsEveryBidOnce(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	st := store.NewStore(db)

	const total = 2500
	bids := make([]*schema.Order, 0, total)
	for i := 0; i < total; i++ {
		o := newBid(t, fmt.Sprintf("bid-%04d", i), "1", at(i/3))
		o.Status = schema.OrderStatusInactive
		bids = append(bids, o)
	}
	require.NoError(t, db.CreateInBatches(bids, 250).Error)

	engine := &recordingEngine{Engine: order.NewEngine(st), seen: map[string]int{}}
	s := sweeper.NewBidActivationSweeper(fastRetry(1000), st, engine, messaging.NopNotifier{}, adapter.NewClock())

	require.NoError(t, s.OnBalanceChange(ctx, balanceChanged("fund", "1", at(total))))

	assert.Len(t, engine.seen, total)
	for id, n := range engine.seen {
		assert.Equal(t, 1, n, "order %s visited %d times", id, n)
	}

	o, err := st.GetOrder(ctx, "bid-0042")
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusActive, o.Status)
}

func TestBidActivationSweeper_RetriesFailedPage(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{Store: storetest.NewStore(t), failures: 2}
	engine := order.NewEngine(st)

	_, err := engine.Open(ctx, newBid(t, "B1", "10", at(1)), decimal.Zero)
	require.NoError(t, err)

	s := sweeper.NewBidActivationSweeper(fastRetry(10), st, engine, messaging.NopNotifier{}, adapter.NewClock())
	require.NoError(t, s.OnBalanceChange(ctx, balanceChanged("b0", "10", at(2))))

	assert.Equal(t, 3, st.calls)
	o, err := st.GetOrder(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusActive, o.Status)
}

func TestBidActivationSweeper_NotifiesChangedBids(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	st := storetest.NewStore(t)
	engine := order.NewEngine(st)
	notifier := mocks.NewMockNotifier(ctrl)

	_, err := engine.Open(ctx, newBid(t, "B1", "10", at(1)), decimal.Zero)
	require.NoError(t, err)

	notifier.EXPECT().Notify(gomock.Any(), domain.ChangeTypeOrderChanged, "B1", gomock.Any(), gomock.Any()).Times(1)

	s := sweeper.NewBidActivationSweeper(fastRetry(10), st, engine, notifier, adapter.NewClock())
	require.NoError(t, s.OnBalanceChange(ctx, balanceChanged("b0", "10", at(2))))

	// an unrelated delta that leaves the stock unchanged publishes nothing
	require.NoError(t, s.OnBalanceChange(ctx, balanceChanged("b1", "5", at(3))))
}

func TestBidActivationSweeper_PeriodicPass(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := storetest.NewStore(t)
	engine := order.NewEngine(st)
	clock := mocks.NewMockClock(ctrl)

	// the bid was opened unbacked and the balance arrived without a trigger
	_, err := engine.Open(ctx, newBid(t, "B1", "10", at(1)), decimal.Zero)
	require.NoError(t, err)
	_, _, err = st.ApplyBalanceDelta(ctx, &schema.BalanceHistory{LogID: "b0", Owner: maker, Token: flowToken, Delta: dec("10"), Timestamp: at(0)})
	require.NoError(t, err)

	tick := make(chan time.Time)
	clock.EXPECT().Now().Return(at(100)).AnyTimes()
	clock.EXPECT().Since(gomock.Any()).Return(time.Millisecond).AnyTimes()
	clock.EXPECT().After(time.Minute).Return(tick).AnyTimes()

	cfg := fastRetry(10)
	cfg.Interval = time.Minute
	s := sweeper.NewBidActivationSweeper(cfg, st, engine, messaging.NopNotifier{}, clock)

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		o, err := st.GetOrder(ctx, "B1")
		return err == nil && o.Status == schema.OrderStatusActive
	}, 5*time.Second, 10*time.Millisecond)

	o, err := st.GetOrder(ctx, "B1")
	require.NoError(t, err)
	// the pass keeps the order's own timestamp
	assert.Equal(t, at(1), o.LastUpdatedAt.UTC())

	require.NoError(t, s.Stop(ctx))
	require.NoError(t, <-done)
}

func TestBidActivationSweeper_ResumesFromCheckpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const other = "0x00000000000000c0"
	st := storetest.NewStore(t)
	engine := order.NewEngine(st)
	clock := mocks.NewMockClock(ctrl)

	for _, b := range []struct{ id, by string }{{"B1", maker}, {"B2", other}} {
		_, err := engine.Open(ctx, newBidBy(t, b.by, b.id, "10", at(1)), decimal.Zero)
		require.NoError(t, err)
		_, _, err = st.ApplyBalanceDelta(ctx, &schema.BalanceHistory{LogID: "fund-" + b.id, Owner: b.by, Token: flowToken, Delta: dec("10"), Timestamp: at(0)})
		require.NoError(t, err)
	}

	// a previous pass stopped after the first maker
	require.NoError(t, st.SetCheckpoint(ctx, sweeper.SWEEP_CHECKPOINT_KEY, maker+"/"+flowToken, at(0)))

	clock.EXPECT().Now().Return(at(100)).AnyTimes()
	clock.EXPECT().Since(gomock.Any()).Return(time.Millisecond).AnyTimes()
	clock.EXPECT().After(time.Minute).Return(make(chan time.Time)).AnyTimes()

	cfg := fastRetry(10)
	cfg.Interval = time.Minute
	s := sweeper.NewBidActivationSweeper(cfg, st, engine, messaging.NopNotifier{}, clock)

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		value, err := st.GetCheckpoint(ctx, sweeper.SWEEP_CHECKPOINT_KEY)
		return err == nil && value == ""
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop(ctx))
	require.NoError(t, <-done)

	o, err := st.GetOrder(ctx, "B2")
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusActive, o.Status)

	o, err = st.GetOrder(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusInactive, o.Status, "maker before the checkpoint is not revisited")
}
