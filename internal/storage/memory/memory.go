// Package memory is an in-process store used for development and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"subcal/internal/core"
)

type Store struct {
	mu     sync.Mutex
	items  []core.OwnedSubscription
	owners map[string]string
	runs   map[string]bool // run date -> finished
}

func New() *Store {
	return &Store{owners: map[string]string{}, runs: map[string]bool{}}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// ListSubscriptions returns the owner's subscriptions ordered by due day,
// then insertion order.
func (s *Store) ListSubscriptions(_ context.Context, ownerID string) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Subscription{}
	for _, it := range s.items {
		if it.OwnerID == ownerID {
			out = append(out, it.Subscription)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Subscription) int { return a.DueDay - b.DueDay })
	return out, nil
}

// CreateSubscription stores sub and returns it with id and creation time set.
func (s *Store) CreateSubscription(_ context.Context, ownerID string, sub core.Subscription) (core.Subscription, error) {
	sub.ID = uuid.NewString()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, core.OwnedSubscription{OwnerID: ownerID, Subscription: sub})
	return sub, nil
}

// DeleteSubscription removes the owner's record or returns core.ErrNotFound.
func (s *Store) DeleteSubscription(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id && it.OwnerID == ownerID {
			s.items = slices.Delete(s.items, i, i+1)
			return nil
		}
	}
	return core.ErrNotFound
}

// ListDueOnDays returns every owner's records whose due day is in days.
func (s *Store) ListDueOnDays(_ context.Context, days ...int) ([]core.OwnedSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.OwnedSubscription{}
	for _, it := range s.items {
		if slices.Contains(days, it.DueDay) {
			out = append(out, it)
		}
	}
	slices.SortStableFunc(out, func(a, b core.OwnedSubscription) int {
		if c := strings.Compare(a.OwnerID, b.OwnerID); c != 0 {
			return c
		}
		return a.DueDay - b.DueDay
	})
	return out, nil
}

func (s *Store) UpsertOwner(_ context.Context, ownerID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.TrimSpace(email)
	if prev, ok := s.owners[ownerID]; ok && email == "" {
		email = prev
	}
	s.owners[ownerID] = email
	return nil
}

func (s *Store) OwnerEmail(_ context.Context, ownerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owners[ownerID], nil
}

func (s *Store) ClaimReminderRun(_ context.Context, date core.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[date.String()]; ok {
		return false, nil
	}
	s.runs[date.String()] = false
	return true, nil
}

func (s *Store) FinishReminderRun(_ context.Context, date core.Date, _, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[date.String()] = true
	return nil
}

func (s *Store) ReleaseReminderRun(_ context.Context, date core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if finished, ok := s.runs[date.String()]; ok && !finished {
		delete(s.runs, date.String())
	}
	return nil
}

func (s *Store) Close() error { return nil }
