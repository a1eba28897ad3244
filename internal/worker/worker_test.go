package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subcal/internal/core"
	"subcal/internal/notify"
	"subcal/internal/services"
)

type fakeMailer struct {
	sent int
	err  error
}

func (m *fakeMailer) Send(context.Context, string, string, string) error {
	m.sent++
	return m.err
}

func digestFor(date core.Date, email string) notify.Digest {
	return notify.Digest{
		OwnerID: "alice",
		Email:   email,
		Date:    date,
		Symbol:  "₹",
		Items:   []notify.DigestItem{{Name: "Netflix", Amount: decimal.NewFromInt(649), When: notify.WhenToday}},
	}
}

func TestMailerWorker_HandleDigest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.October, 14, 9, 0, 0, 0, time.UTC)

	m := &fakeMailer{}
	w := NewMailerWorker(m)
	w.now = func() time.Time { return now }

	require.NoError(t, w.HandleDigest(ctx, digestFor(core.NewDate(2025, time.October, 14), "a@example.com")))
	require.NoError(t, w.HandleDigest(ctx, digestFor(core.NewDate(2025, time.October, 13), "a@example.com")))
	assert.Equal(t, 2, m.sent)

	require.NoError(t, w.HandleDigest(ctx, digestFor(core.NewDate(2025, time.October, 12), "a@example.com")))
	require.NoError(t, w.HandleDigest(ctx, digestFor(core.NewDate(2025, time.October, 14), "")))
	assert.Equal(t, 2, m.sent, "stale and recipient-less digests are dropped")

	m.err = errors.New("quota")
	assert.Error(t, w.HandleDigest(ctx, digestFor(core.NewDate(2025, time.October, 14), "a@example.com")))
}

type fakeDispatcher struct {
	calls atomic.Int32
}

func (f *fakeDispatcher) RunDue(context.Context, time.Time) (services.DispatchResult, error) {
	n := f.calls.Add(1)
	if n == 2 {
		return services.DispatchResult{}, errors.New("db locked")
	}
	return services.DispatchResult{Ran: n == 1}, nil
}

func TestReminderWorker_Run(t *testing.T) {
	d := &fakeDispatcher{}
	w := NewReminderWorker(d, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return d.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
