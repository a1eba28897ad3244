package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subcal/internal/cache"
	"subcal/internal/core"
	"subcal/internal/storage/memory"
)

type countingStore struct {
	*memory.Store
	lists int
}

func (c *countingStore) ListSubscriptions(ctx context.Context, ownerID string) ([]core.Subscription, error) {
	c.lists++
	return c.Store.ListSubscriptions(ctx, ownerID)
}

func fixedToday(d core.Date) func() core.Date { return func() core.Date { return d } }

func TestCreateAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	today := core.NewDate(2025, time.October, 14)
	svc := NewSubscriptionService(memory.New(), "INR", WithClock(fixedToday(today)))

	created, err := svc.Create(ctx, "alice", core.Subscription{
		Name:   "  Netflix ",
		Amount: decimal.NewFromInt(649),
		Cycle:  core.Monthly,
		DueDay: 5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Netflix", created.Name)
	assert.Equal(t, "#E50914", created.Color)
	assert.Equal(t, "INR", created.Currency)
	assert.Equal(t, core.DefaultPaymentSource, created.PaymentSource)
	assert.Equal(t, today, created.StartDate)
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc := NewSubscriptionService(memory.New(), "INR")
	_, err := svc.Create(context.Background(), "alice", core.Subscription{Name: "x", Cycle: core.Monthly, DueDay: 32})
	assert.ErrorIs(t, err, core.ErrInvalidDueDay)

	subs, err := svc.List(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestListCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: memory.New()}
	svc := NewSubscriptionService(store, "INR", WithCache(cache.NewLRUCache[[]core.Subscription](10, time.Minute)))

	_, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, store.lists)

	created, err := svc.Create(ctx, "alice", core.Subscription{Name: "Figma", Cycle: core.Yearly, DueDay: 1})
	require.NoError(t, err)
	subs, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Equal(t, 2, store.lists)

	require.NoError(t, svc.End(ctx, "alice", created.ID))
	subs, err = svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, subs)

	assert.ErrorIs(t, svc.End(ctx, "alice", created.ID), core.ErrNotFound)
}

func TestDerivedViews(t *testing.T) {
	ctx := context.Background()
	today := core.NewDate(2025, time.October, 28)
	svc := NewSubscriptionService(memory.New(), "INR", WithClock(fixedToday(today)))

	for _, s := range []core.Subscription{
		{Name: "A", Amount: decimal.NewFromInt(199), Cycle: core.Monthly, DueDay: 28},
		{Name: "B", Amount: decimal.NewFromInt(99), Cycle: core.Monthly, DueDay: 29},
		{Name: "C", Amount: decimal.NewFromInt(1200), Cycle: core.Yearly, DueDay: 1},
		{Name: "Gone", Amount: decimal.NewFromInt(10), Cycle: core.Monthly, DueDay: 28,
			StartDate: core.NewDate(2025, time.January, 1), EndDate: core.NewDate(2025, time.October, 27)},
	} {
		_, err := svc.Create(ctx, "alice", s)
		require.NoError(t, err)
	}

	st, err := svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, st.YearlyProjection.Equal(decimal.NewFromInt(4776)))
	assert.Equal(t, 3, st.ActiveCount)

	r, err := svc.Reminders(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, r.DueToday, 1)
	assert.Equal(t, "A", r.DueToday[0].Name)
	require.Len(t, r.DueTomorrow, 1)

	n, err := svc.Notifications(ctx, "alice", "₹")
	require.NoError(t, err)
	assert.Len(t, n.Upcoming, 1)
	assert.Len(t, n.Paid, 2)

	m, err := svc.Month(ctx, "alice", 2025, time.October)
	require.NoError(t, err)
	assert.Equal(t, 4, m.ActiveCount)

	y, err := svc.Year(ctx, "alice", 2025)
	require.NoError(t, err)
	assert.Len(t, y.Months, 12)
}

// pausingStore blocks the first list after it has read from the store.
type pausingStore struct {
	*memory.Store
	read    chan struct{}
	release chan struct{}
	once    bool
}

func (p *pausingStore) ListSubscriptions(ctx context.Context, ownerID string) ([]core.Subscription, error) {
	subs, err := p.Store.ListSubscriptions(ctx, ownerID)
	if !p.once {
		p.once = true
		close(p.read)
		<-p.release
	}
	return subs, err
}

func TestListDoesNotCacheReadRacingEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	created, err := store.CreateSubscription(ctx, "alice", core.Subscription{
		Name: "Netflix", Amount: decimal.NewFromInt(1), Cycle: core.Monthly, DueDay: 5,
	})
	require.NoError(t, err)

	ps := &pausingStore{Store: store, read: make(chan struct{}), release: make(chan struct{})}
	svc := NewSubscriptionService(ps, "INR", WithCache(cache.NewLRUCache[[]core.Subscription](10, time.Minute)))

	done := make(chan []core.Subscription)
	go func() {
		subs, _ := svc.List(ctx, "alice")
		done <- subs
	}()

	<-ps.read
	require.NoError(t, svc.End(ctx, "alice", created.ID))
	close(ps.release)
	stale := <-done
	assert.Len(t, stale, 1, "the in-flight read saw the record")

	subs, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, subs)
}
