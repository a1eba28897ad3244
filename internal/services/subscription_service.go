package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"subcal/internal/cache"
	"subcal/internal/core"
	applog "subcal/internal/log"
)

// SubscriptionStore is the persistence the service needs.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context, ownerID string) ([]core.Subscription, error)
	CreateSubscription(ctx context.Context, ownerID string, s core.Subscription) (core.Subscription, error)
	DeleteSubscription(ctx context.Context, ownerID, id string) error
}

// SubscriptionService applies defaults and validation before storing
// records, and caches each owner's list until it changes.
type SubscriptionService struct {
	store    SubscriptionStore
	cache    cache.Cache[[]core.Subscription]
	currency string
	today    func() core.Date

	// gen counts invalidations per owner. A list read is cached only if no
	// invalidation happened while it was in flight.
	mu  sync.Mutex
	gen map[string]uint64
}

type ServiceOption func(*SubscriptionService)

// WithCache caches owner lists in c.
func WithCache(c cache.Cache[[]core.Subscription]) ServiceOption {
	return func(s *SubscriptionService) { s.cache = c }
}

// WithClock overrides the source of today's date.
func WithClock(today func() core.Date) ServiceOption {
	return func(s *SubscriptionService) { s.today = today }
}

func NewSubscriptionService(store SubscriptionStore, currency string, opts ...ServiceOption) *SubscriptionService {
	s := &SubscriptionService{store: store, currency: currency, today: core.Today, gen: make(map[string]uint64)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the service's current date.
func (s *SubscriptionService) Today() core.Date {
	return s.today()
}

// List returns the owner's subscriptions ordered by due day.
func (s *SubscriptionService) List(ctx context.Context, ownerID string) ([]core.Subscription, error) {
	if s.cache != nil {
		if subs, ok := s.cache.Get(ownerID); ok {
			return subs, nil
		}
	}
	gen := s.generation(ownerID)
	subs, err := s.store.ListSubscriptions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if s.cache != nil {
		s.mu.Lock()
		if s.gen[ownerID] == gen {
			s.cache.Set(ownerID, subs)
		} else {
			slog.DebugContext(ctx, "Skipped caching list invalidated mid-read",
				applog.FieldOperation, applog.OpList,
				applog.FieldOwnerID, ownerID)
		}
		s.mu.Unlock()
	}
	return subs, nil
}

// Create fills defaults, validates and stores sub for the owner.
func (s *SubscriptionService) Create(ctx context.Context, ownerID string, sub core.Subscription) (core.Subscription, error) {
	sub = sub.WithDefaults(s.today(), s.currency)
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	created, err := s.store.CreateSubscription(ctx, ownerID, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	s.invalidate(ownerID)

	slog.InfoContext(ctx, "Subscription created", applog.NewFields().
		WithOperation(applog.OpCreate).
		WithOwner(ownerID).
		WithSubscription(created.ID, created.Name, created.Amount.String(), string(created.Cycle), created.DueDay).
		ToSlice()...)
	return created, nil
}

// End permanently removes the subscription. It returns core.ErrNotFound when
// the owner has no such record.
func (s *SubscriptionService) End(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteSubscription(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ownerID)
	slog.InfoContext(ctx, "Subscription ended",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldOwnerID, ownerID,
		applog.FieldSubscriptionID, id)
	return nil
}

// Stats computes the dashboard figures for the owner as of today.
func (s *SubscriptionService) Stats(ctx context.Context, ownerID string) (core.Stats, error) {
	subs, err := s.List(ctx, ownerID)
	if err != nil {
		return core.Stats{}, err
	}
	return core.ComputeStats(subs, s.today()), nil
}

// Month builds the owner's calendar for one month.
func (s *SubscriptionService) Month(ctx context.Context, ownerID string, year int, month time.Month) (core.MonthCalendar, error) {
	subs, err := s.List(ctx, ownerID)
	if err != nil {
		return core.MonthCalendar{}, err
	}
	return core.BuildMonth(subs, year, month, s.today()), nil
}

// Year builds the owner's twelve-month calendar.
func (s *SubscriptionService) Year(ctx context.Context, ownerID string, year int) (core.YearCalendar, error) {
	subs, err := s.List(ctx, ownerID)
	if err != nil {
		return core.YearCalendar{}, err
	}
	return core.BuildYear(subs, year, s.today()), nil
}

// Reminders selects the owner's currently-active subscriptions due on day or
// the day after. A day of 0 means today.
func (s *SubscriptionService) Reminders(ctx context.Context, ownerID string, day int) (core.Reminders, error) {
	subs, err := s.List(ctx, ownerID)
	if err != nil {
		return core.Reminders{}, err
	}
	today := s.today()
	if day == 0 {
		day = today.Day()
	}
	return core.SelectReminders(core.CurrentlyActive(subs, today), day), nil
}

// Notifications splits the owner's currently-active subscriptions into
// upcoming and paid for this month.
func (s *SubscriptionService) Notifications(ctx context.Context, ownerID, symbol string) (core.Notifications, error) {
	subs, err := s.List(ctx, ownerID)
	if err != nil {
		return core.Notifications{}, err
	}
	today := s.today()
	return core.BuildNotifications(core.CurrentlyActive(subs, today), today.Day(), symbol), nil
}

func (s *SubscriptionService) generation(ownerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[ownerID]
}

func (s *SubscriptionService) invalidate(ownerID string) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.gen[ownerID]++
	s.cache.Delete(ownerID)
	s.mu.Unlock()
}
