package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store *Store, name string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, NewUserRepository(store).Create(context.Background(), u))
	return u
}

func createTestPair(t *testing.T, store *Store, a, b *domain.User) {
	t.Helper()
	forward, reverse := domain.NewEdgePair(a, b, uuid.NewString(), uuid.NewString())
	require.NoError(t, NewFriendRepository(store).SavePair(context.Background(), forward, reverse))
}

func TestUserRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewUserRepository(store)

	u := createTestUser(t, store, "alice")

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, u.Email, got.Email)

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := repo.ExistsByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	all, err := repo.FindAllByID(ctx, []string{u.ID, "nope"})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFriendRepository_AdjustBalancePairSymmetry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewFriendRepository(store)

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	createTestPair(t, store, alice, bob)

	updated, err := repo.AdjustBalancePair(ctx, alice.ID, bob.ID, decimal.NewFromFloat(33.33))
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	forward, err := repo.FindEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	reverse, err := repo.FindEdge(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromFloat(33.33).Equal(forward.Balance), "got %s", forward.Balance)
	assert.True(t, decimal.NewFromFloat(-33.33).Equal(reverse.Balance), "got %s", reverse.Balance)
	assert.True(t, forward.Balance.Add(reverse.Balance).IsZero())
}

func TestFriendRepository_AdjustBalancePairMissingEdges(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewFriendRepository(store)

	// No friendship rows at all: nothing to update.
	updated, err := repo.AdjustBalancePair(ctx, "a", "b", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}

func TestFriendRepository_ConcurrentAdjustments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewFriendRepository(store)

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	createTestPair(t, store, alice, bob)

	const workers = 4
	const adjustmentsPerWorker = 25
	amount := decimal.NewFromFloat(0.01)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < adjustmentsPerWorker; i++ {
				_, err := repo.AdjustBalancePair(ctx, alice.ID, bob.ID, amount)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	forward, err := repo.FindEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	reverse, err := repo.FindEdge(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	want := amount.Mul(decimal.NewFromInt(workers * adjustmentsPerWorker))
	assert.True(t, want.Equal(forward.Balance), "want %s, got %s", want, forward.Balance)
	assert.True(t, forward.Balance.Add(reverse.Balance).IsZero())
}

func TestFriendRepository_DeactivateAndReactivateKeepsBalance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewFriendRepository(store)

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	createTestPair(t, store, alice, bob)

	_, err := repo.AdjustBalancePair(ctx, alice.ID, bob.ID, decimal.NewFromInt(12))
	require.NoError(t, err)

	require.NoError(t, repo.DeactivatePair(ctx, alice.ID, bob.ID))
	gone, err := repo.FindEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// A deactivated pair is invisible to balance adjustments.
	updated, err := repo.AdjustBalancePair(ctx, alice.ID, bob.ID, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	// Re-adding the friendship reactivates the rows with the old balance.
	createTestPair(t, store, alice, bob)
	back, err := repo.FindEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, back)
	assert.True(t, decimal.NewFromInt(12).Equal(back.Balance), "got %s", back.Balance)
}

func TestExpenseRepository_RoundTripAndInvolvement(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewExpenseRepository(store)

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	e := &domain.Expense{
		ID:          uuid.NewString(),
		Description: "Dinner",
		TotalAmount: decimal.NewFromInt(90),
		Currency:    "USD",
		PayerID:     alice.ID,
		PayerName:   alice.Name,
		Category:    domain.CategoryFood,
		CreatedAt:   time.Now(),
		OccurredAt:  time.Now(),
		Active:      true,
		Splits: []domain.Split{
			{UserID: alice.ID, UserName: alice.Name, Type: domain.SplitTypeEqual, Value: decimal.NewFromInt(45), AmountOwed: decimal.NewFromInt(45)},
			{UserID: bob.ID, UserName: bob.Name, Type: domain.SplitTypeEqual, Value: decimal.NewFromInt(45), AmountOwed: decimal.NewFromInt(45)},
		},
	}
	require.NoError(t, repo.Save(ctx, e))

	got, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.Description, got.Description)
	assert.True(t, e.TotalAmount.Equal(got.TotalAmount))
	require.Len(t, got.Splits, 2)
	assert.Equal(t, bob.ID, got.Splits[1].UserID)
	assert.True(t, decimal.NewFromInt(45).Equal(got.Splits[1].AmountOwed))

	// bob participates, carol does not.
	forBob, err := repo.FindByUserInvolvement(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, forBob, 1)
	countBob, err := repo.CountByUserInvolvement(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, countBob)

	forCarol, err := repo.FindByUserInvolvement(ctx, carol.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, forCarol)

	// Soft delete hides the expense from involvement queries but not FindByID.
	e.Active = false
	require.NoError(t, repo.Save(ctx, e))
	forBob, err = repo.FindByUserInvolvement(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, forBob)
	stillThere, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, stillThere)
	assert.False(t, stillThere.Active)
}

func TestExpenseRepository_SaveWithTransfersMovesBalances(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewExpenseRepository(store)
	friends := NewFriendRepository(store)

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	createTestPair(t, store, alice, bob)

	e := &domain.Expense{
		ID:          uuid.NewString(),
		Description: "Dinner",
		TotalAmount: decimal.NewFromInt(60),
		Currency:    "USD",
		PayerID:     alice.ID,
		PayerName:   alice.Name,
		Category:    domain.CategoryFood,
		CreatedAt:   time.Now(),
		OccurredAt:  time.Now(),
		Active:      true,
		Splits: []domain.Split{
			{UserID: alice.ID, UserName: alice.Name, Type: domain.SplitTypeEqual, Value: decimal.NewFromInt(30), AmountOwed: decimal.NewFromInt(30)},
			{UserID: bob.ID, UserName: bob.Name, Type: domain.SplitTypeEqual, Value: decimal.NewFromInt(30), AmountOwed: decimal.NewFromInt(30)},
		},
	}
	transfers := []domain.Transfer{
		{DebtorID: bob.ID, CreditorID: alice.ID, Amount: decimal.NewFromInt(30)},
	}
	require.NoError(t, repo.SaveWithTransfers(ctx, e, transfers))

	// Record and ledger effect land together.
	got, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	forward, err := friends.FindEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	reverse, err := friends.FindEdge(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(forward.Balance), "got %s", forward.Balance)
	assert.True(t, decimal.NewFromInt(-30).Equal(reverse.Balance), "got %s", reverse.Balance)
}

func TestSettlementRepository_SaveWithTransferRollsBackOnConflict(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewSettlementRepository(store)
	friends := NewFriendRepository(store)

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	createTestPair(t, store, alice, bob)

	stl := &domain.Settlement{
		ID:         uuid.NewString(),
		FromUserID: bob.ID,
		ToUserID:   alice.ID,
		Amount:     decimal.NewFromInt(12),
		Currency:   "USD",
		Method:     domain.SettlementMethodCash,
		SettledAt:  time.Now(),
		Active:     true,
	}
	transfer := domain.Transfer{DebtorID: bob.ID, CreditorID: alice.ID, Amount: decimal.NewFromInt(-12)}
	require.NoError(t, repo.SaveWithTransfer(ctx, stl, transfer))

	forward, err := friends.FindEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-12).Equal(forward.Balance), "got %s", forward.Balance)

	// Re-inserting the same settlement violates the primary key; the whole
	// transaction rolls back, including the balance adjustment.
	require.Error(t, repo.SaveWithTransfer(ctx, stl, transfer))
	forward, err = friends.FindEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-12).Equal(forward.Balance), "got %s", forward.Balance)
}

func TestSettlementRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewSettlementRepository(store)

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	stl := &domain.Settlement{
		ID:         uuid.NewString(),
		FromUserID: bob.ID,
		ToUserID:   alice.ID,
		Amount:     decimal.NewFromFloat(12.34),
		Currency:   "USD",
		Method:     domain.SettlementMethodCash,
		SettledAt:  time.Now(),
		Active:     true,
	}
	require.NoError(t, repo.Save(ctx, stl))

	for _, userID := range []string{alice.ID, bob.ID} {
		got, err := repo.FindByUserInvolvement(ctx, userID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, decimal.NewFromFloat(12.34).Equal(got[0].Amount))
	}

	none, err := repo.FindByUserInvolvement(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGroupRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewGroupRepository(store)

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	g := &domain.Group{
		ID:        uuid.NewString(),
		Name:      "Ski Trip",
		CreatedBy: alice.ID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Active:    true,
	}
	g.AddMember(alice.ID, alice.Name, alice.Email)
	g.AddMember(bob.ID, bob.Name, bob.Email)
	require.NoError(t, repo.Save(ctx, g))

	got, err := repo.FindByID(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ski Trip", got.Name)
	require.Len(t, got.Members, 2)
	assert.True(t, got.IsMember(bob.ID))
}
