package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subcal/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "subcal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample(name string, dueDay int) core.Subscription {
	return core.Subscription{
		Name:          name,
		Amount:        decimal.RequireFromString("199.50"),
		Currency:      "INR",
		Cycle:         core.Monthly,
		DueDay:        dueDay,
		Color:         "#E50914",
		Initial:       "N",
		Autopay:       true,
		PaymentSource: core.DefaultPaymentSource,
		StartDate:     core.NewDate(2024, time.January, 10),
	}
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	late, err := repo.CreateSubscription(ctx, "alice", sample("Late", 20))
	require.NoError(t, err)
	assert.NotEmpty(t, late.ID)
	assert.False(t, late.CreatedAt.IsZero())

	early, err := repo.CreateSubscription(ctx, "alice", sample("Early", 3))
	require.NoError(t, err)
	_, err = repo.CreateSubscription(ctx, "bob", sample("Other", 1))
	require.NoError(t, err)

	subs, err := repo.ListSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, early.ID, subs[0].ID)
	assert.Equal(t, late.ID, subs[1].ID)

	got := subs[0]
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("199.5")))
	assert.Equal(t, core.Monthly, got.Cycle)
	assert.True(t, got.Autopay)
	assert.Equal(t, "2024-01-10", got.StartDate.String())
	assert.True(t, got.EndDate.IsEmpty())
}

func TestListSubscriptions_EmptyOwner(t *testing.T) {
	subs, err := newTestRepo(t).ListSubscriptions(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)
}

func TestDeleteSubscription(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	s, err := repo.CreateSubscription(ctx, "alice", sample("Netflix", 5))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.DeleteSubscription(ctx, "bob", s.ID), core.ErrNotFound)
	require.NoError(t, repo.DeleteSubscription(ctx, "alice", s.ID))
	assert.ErrorIs(t, repo.DeleteSubscription(ctx, "alice", s.ID), core.ErrNotFound)
}

func TestListDueOnDays(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	ended := sample("Ended", 14)
	ended.EndDate = core.NewDate(2024, time.February, 1)
	for owner, subs := range map[string][]core.Subscription{
		"alice": {sample("A14", 14), sample("A15", 15), sample("A16", 16)},
		"bob":   {ended, sample("B1", 1)},
	} {
		for _, s := range subs {
			_, err := repo.CreateSubscription(ctx, owner, s)
			require.NoError(t, err)
		}
	}

	due, err := repo.ListDueOnDays(ctx, 14, 15)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, "alice", due[0].OwnerID)
	assert.Equal(t, "A14", due[0].Name)
	assert.Equal(t, "A15", due[1].Name)
	assert.Equal(t, "bob", due[2].OwnerID)
	assert.Equal(t, "2024-02-01", due[2].EndDate.String())

	none, err := repo.ListDueOnDays(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOwners(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	email, err := repo.OwnerEmail(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, email)

	require.NoError(t, repo.UpsertOwner(ctx, "alice", "alice@example.com"))
	require.NoError(t, repo.UpsertOwner(ctx, "alice", ""))
	email, err = repo.OwnerEmail(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	require.NoError(t, repo.UpsertOwner(ctx, "alice", "new@example.com"))
	email, err = repo.OwnerEmail(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", email)
}

func TestReminderRunClaim(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	day := core.NewDate(2025, time.October, 14)

	ok, err := repo.ClaimReminderRun(ctx, day)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimReminderRun(ctx, day)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.ReleaseReminderRun(ctx, day))
	ok, err = repo.ClaimReminderRun(ctx, day)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.FinishReminderRun(ctx, day, 2, 3))
	// Finished runs are not released.
	require.NoError(t, repo.ReleaseReminderRun(ctx, day))
	ok, err = repo.ClaimReminderRun(ctx, day)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subcal.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	require.NoError(t, RunMigrations(path))
	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	assert.NoError(t, repo.Ping(context.Background()))
}
