package sweeper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/messaging"
	"github.com/feral-file/ff-market-indexer/internal/order"
	"github.com/feral-file/ff-market-indexer/internal/store"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

const (
	DEFAULT_BID_PAGE_SIZE      = 1000
	DEFAULT_MAKER_PAGE_SIZE    = 500
	DEFAULT_RETRY_INITIAL      = 500 * time.Millisecond
	DEFAULT_RETRY_MAX_INTERVAL = 30 * time.Second
	DEFAULT_RETRY_MAX_ELAPSED  = 5 * time.Minute

	SWEEP_CHECKPOINT_KEY = "bid_activation_sweep"
)

// BidActivationConfig holds configuration for the bid activation sweeper
type BidActivationConfig struct {
	PageSize             int           // Bids re-derived per page
	Interval             time.Duration // Time between full passes, zero disables them
	RetryInitialInterval time.Duration // First delay before retrying a failed page
	RetryMaxInterval     time.Duration
	RetryMaxElapsed      time.Duration // Give up on a page after this long
}

// BidActivationSweeper applies balance changes and keeps the stock of BID orders
// in line with the balance backing them
type BidActivationSweeper interface {
	Sweeper

	// OnBalanceChange applies the delta and re-derives every open bid of the owner backed by the token
	OnBalanceChange(ctx context.Context, activity domain.BalanceChangedActivity) error

	// Recompute re-derives every open bid of owner backed by token against the current balance
	Recompute(ctx context.Context, owner, token string) (int, error)
}

type bidActivationSweeper struct {
	config    BidActivationConfig
	store     store.Store
	orders    order.Engine
	notifier  messaging.Notifier
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewBidActivationSweeper creates a new bid activation sweeper
func NewBidActivationSweeper(
	config BidActivationConfig,
	st store.Store,
	orders order.Engine,
	notifier messaging.Notifier,
	clock adapter.Clock,
) BidActivationSweeper {
	if config.PageSize <= 0 {
		config.PageSize = DEFAULT_BID_PAGE_SIZE
	}
	if config.RetryInitialInterval <= 0 {
		config.RetryInitialInterval = DEFAULT_RETRY_INITIAL
	}
	if config.RetryMaxInterval <= 0 {
		config.RetryMaxInterval = DEFAULT_RETRY_MAX_INTERVAL
	}
	if config.RetryMaxElapsed <= 0 {
		config.RetryMaxElapsed = DEFAULT_RETRY_MAX_ELAPSED
	}
	return &bidActivationSweeper{
		config:    config,
		store:     st,
		orders:    orders,
		notifier:  notifier,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *bidActivationSweeper) Name() string {
	return "bid-activation-sweeper"
}

// OnBalanceChange applies the delta once per log and re-derives the bids it backs.
// A redelivered delta is not applied twice but the bids are still re-derived.
func (s *bidActivationSweeper) OnBalanceChange(ctx context.Context, a domain.BalanceChangedActivity) error {
	balance, applied, err := s.store.ApplyBalanceDelta(ctx, &schema.BalanceHistory{
		LogID:     string(a.LogID),
		Owner:     a.Owner,
		Token:     a.Token(),
		Delta:     a.Delta,
		Timestamp: a.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}

	logger.DebugCtx(ctx, "Balance changed",
		logger.LogID(a.LogID),
		zap.String("owner", a.Owner),
		zap.String("token", a.Token()),
		zap.String("delta", a.Delta.String()),
		zap.String("balance", balance.String()),
		zap.Bool("applied", applied))

	_, err = s.Recompute(ctx, a.Owner, a.Token())
	return err
}

// Recompute pages through the open bids newest first until a short page
func (s *bidActivationSweeper) Recompute(ctx context.Context, owner, token string) (int, error) {
	q := continuation.PageQuery{Direction: continuation.Desc, Limit: s.config.PageSize}
	changed := 0

	for {
		if err := ctx.Err(); err != nil {
			return changed, err
		}

		var (
			bids []schema.Order
			n    int
		)
		err := s.withRetry(ctx, "recompute bids page", func() error {
			var err error
			bids, n, err = s.recomputePage(ctx, owner, token, q)
			return err
		})
		changed += n
		if err != nil {
			return changed, err
		}

		if len(bids) < s.config.PageSize {
			return changed, nil
		}
		last := bids[len(bids)-1]
		q.After = &continuation.Continuation{Timestamp: last.CreatedAt, ID: last.ID}
	}
}

// recomputePage loads one page and re-derives it against the balance read now
func (s *bidActivationSweeper) recomputePage(ctx context.Context, owner, token string, q continuation.PageQuery) ([]schema.Order, int, error) {
	bids, err := s.store.FindBidsByMakerAndToken(ctx, owner, token, q)
	if err != nil {
		return nil, 0, err
	}
	if len(bids) == 0 {
		return bids, 0, nil
	}

	balance := decimal.Zero
	b, err := s.store.GetBalance(ctx, owner, token)
	if err != nil {
		return nil, 0, err
	}
	if b != nil {
		balance = b.Amount
	}

	changed := 0
	for i := range bids {
		ok, err := s.orders.RecomputeStock(ctx, &bids[i], balance)
		if err != nil {
			return nil, changed, err
		}
		if ok {
			changed++
			s.notifier.Notify(ctx, domain.ChangeTypeOrderChanged, bids[i].ID, "", &bids[i])
		}
	}
	return bids, changed, nil
}

// withRetry retries op with exponential backoff until it succeeds, the context is done
// or the retry budget is spent
func (s *bidActivationSweeper) withRetry(ctx context.Context, what string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.RetryInitialInterval
	b.MaxInterval = s.config.RetryMaxInterval
	b.MaxElapsedTime = s.config.RetryMaxElapsed
	b.RandomizationFactor = 0.5

	var attempt int
	notify := func(err error, next time.Duration) {
		attempt++
		logger.WarnCtx(ctx, "Sweeper operation failed, retrying",
			zap.String("op", what),
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("next_retry_in", next))
	}

	err := backoff.RetryNotify(func() error {
		err := op()
		if err != nil && !errors.Is(err, domain.ErrStoreUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx), notify)
	if err != nil {
		return fmt.Errorf("failed to %s after %d attempts: %w", what, attempt+1, err)
	}
	return nil
}

// Start runs a full pass every interval until stopped. With a zero interval it only waits.
func (s *bidActivationSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting bid activation sweeper",
		zap.Int("page_size", s.config.PageSize),
		zap.Duration("interval", s.config.Interval))

	for {
		if s.config.Interval > 0 {
			if err := s.sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err)
			}
		}

		var wait <-chan time.Time
		if s.config.Interval > 0 {
			wait = s.clock.After(s.config.Interval)
		}
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Bid activation sweeper stopping due to context cancellation")
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Bid activation sweeper stop requested")
			return nil
		case <-wait:
		}
	}
}

// sweep re-derives the bids of every maker with open bids. Progress is checkpointed after
// each page of makers so that a restarted indexer resumes an interrupted pass.
func (s *bidActivationSweeper) sweep(ctx context.Context) error {
	start := s.clock.Now()
	var (
		makers  int
		changed int
	)

	after, err := s.loadCheckpoint(ctx)
	if err != nil {
		return err
	}
	if after != nil {
		logger.InfoCtx(ctx, "Resuming bid sweep", zap.String("owner", after.Owner), zap.String("token", after.Token))
	}

	for {
		var keys []store.BalanceKey
		err := s.withRetry(ctx, "list bid makers", func() error {
			var err error
			keys, err = s.store.ListBidMakers(ctx, after, DEFAULT_MAKER_PAGE_SIZE)
			return err
		})
		if err != nil {
			return err
		}

		for _, key := range keys {
			select {
			case <-s.stopChan:
				return nil
			default:
			}
			n, err := s.Recompute(ctx, key.Owner, key.Token)
			changed += n
			if err != nil {
				return fmt.Errorf("failed to recompute bids of %s: %w", key.Owner, err)
			}
			makers++
		}

		if len(keys) < DEFAULT_MAKER_PAGE_SIZE {
			break
		}
		last := keys[len(keys)-1]
		after = &last
		if err := s.store.SetCheckpoint(ctx, SWEEP_CHECKPOINT_KEY, encodeBalanceKey(last), s.clock.Now()); err != nil {
			logger.WarnCtx(ctx, "Failed to save bid sweep checkpoint", zap.Error(err))
		}
	}

	if err := s.store.DeleteCheckpoint(ctx, SWEEP_CHECKPOINT_KEY); err != nil {
		logger.WarnCtx(ctx, "Failed to clear bid sweep checkpoint", zap.Error(err))
	}

	logger.InfoCtx(ctx, "Bid sweep completed",
		zap.Duration("duration", s.clock.Since(start)),
		zap.Int("makers", makers),
		zap.Int("changed", changed))
	return nil
}

// loadCheckpoint returns the last maker of an interrupted pass, nil to start from the beginning
func (s *bidActivationSweeper) loadCheckpoint(ctx context.Context) (*store.BalanceKey, error) {
	var value string
	err := s.withRetry(ctx, "load sweep checkpoint", func() error {
		var err error
		value, err = s.store.GetCheckpoint(ctx, SWEEP_CHECKPOINT_KEY)
		return err
	})
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}

	key, ok := decodeBalanceKey(value)
	if !ok {
		logger.WarnCtx(ctx, "Ignoring malformed bid sweep checkpoint", zap.String("value", value))
		return nil, nil
	}
	return &key, nil
}

func encodeBalanceKey(k store.BalanceKey) string {
	return k.Owner + "/" + k.Token
}

func decodeBalanceKey(s string) (store.BalanceKey, bool) {
	owner, token, ok := strings.Cut(s, "/")
	if !ok || owner == "" || token == "" {
		return store.BalanceKey{}, false
	}
	return store.BalanceKey{Owner: owner, Token: token}, true
}

// Stop signals the loop to exit and waits for it
func (s *bidActivationSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping bid activation sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Bid activation sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Bid activation sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}
