package expense

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/splitpro/splitpro-backend/internal/domain"
	"github.com/splitpro/splitpro-backend/internal/usecase/splitter"
)

// MockExpenseRepository is a mock implementation of ExpenseRepository for testing
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Save(ctx context.Context, e *domain.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockExpenseRepository) SaveWithTransfers(ctx context.Context, e *domain.Expense, transfers []domain.Transfer) error {
	args := m.Called(ctx, e, transfers)
	return args.Error(0)
}

func (m *MockExpenseRepository) FindByID(ctx context.Context, id string) (*domain.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindByUserInvolvement(ctx context.Context, userID string, limit, offset int) ([]*domain.Expense, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) CountByUserInvolvement(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockExpenseRepository) FindByGroupID(ctx context.Context, groupID string) ([]*domain.Expense, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) CountByGroupID(ctx context.Context, groupID string) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindAllByID(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockGroupRepository is a mock implementation of GroupRepository for testing
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Save(ctx context.Context, g *domain.Group) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGroupRepository) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

// fakeLedger mirrors the all-or-nothing contract of the real ledger: the
// transfers land in the in-memory net map only when the commit it is handed
// succeeds. err, when set, fails the call before the commit runs.
type fakeLedger struct {
	mu    sync.Mutex
	net   map[string]decimal.Decimal // key debtorID+"->"+creditorID
	calls int
	err   error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{net: make(map[string]decimal.Decimal)}
}

func (f *fakeLedger) ApplyTransfersWith(ctx context.Context, transfers []domain.Transfer, commit func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if err := commit(ctx); err != nil {
		return err
	}
	for _, t := range transfers {
		key := t.DebtorID + "->" + t.CreditorID
		f.net[key] = f.netLocked(key).Add(t.Amount)
	}
	return nil
}

func (f *fakeLedger) netLocked(key string) decimal.Decimal {
	if v, ok := f.net[key]; ok {
		return v
	}
	return decimal.Zero
}

func (f *fakeLedger) owes(debtorID, creditorID string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.netLocked(debtorID + "->" + creditorID)
}

func (f *fakeLedger) allZero() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.net {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

func testUser(id string) *domain.User {
	return &domain.User{ID: id, Name: "User " + id, Email: id + "@example.com", CreatedAt: time.Now()}
}

func equalSpecs(ids ...string) []splitter.Spec {
	specs := make([]splitter.Spec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, splitter.Spec{UserID: id, Type: domain.SplitTypeEqual})
	}
	return specs
}

func TestCreate_EqualSplitAppliesTransfers(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	userRepo := new(MockUserRepository)
	groupRepo := new(MockGroupRepository)
	ldg := newFakeLedger()
	service := NewService(expenseRepo, userRepo, groupRepo, ldg)

	userRepo.On("FindByID", ctx, "payer").Return(testUser("payer"), nil)
	userRepo.On("FindAllByID", ctx, []string{"payer", "a", "b"}).Return(map[string]*domain.User{
		"payer": testUser("payer"), "a": testUser("a"), "b": testUser("b"),
	}, nil)

	// The record and its transfers are handed to storage as one write.
	expenseRepo.On("SaveWithTransfers", ctx, mock.Anything, mock.MatchedBy(func(transfers []domain.Transfer) bool {
		return len(transfers) == 2
	})).Return(nil)

	e, err := service.Create(ctx, "payer", CreateExpenseInput{
		Description: "Dinner",
		TotalAmount: decimal.NewFromInt(90),
		Splits:      equalSpecs("payer", "a", "b"),
	})
	require.NoError(t, err)
	require.NotNil(t, e)

	assert.True(t, e.Active)
	assert.Equal(t, "payer", e.PayerID)
	assert.Equal(t, domain.DefaultCurrency, e.Currency)
	assert.Len(t, e.Splits, 3)
	assert.True(t, e.IsBalanced())

	// Each non-payer participant now owes the payer their share; the payer's
	// own split never touches the ledger.
	assert.True(t, decimal.NewFromInt(30).Equal(ldg.owes("a", "payer")))
	assert.True(t, decimal.NewFromInt(30).Equal(ldg.owes("b", "payer")))
	assert.True(t, ldg.owes("payer", "payer").IsZero())

	expenseRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestCreateThenDelete_RestoresBalances(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	userRepo := new(MockUserRepository)
	groupRepo := new(MockGroupRepository)
	ldg := newFakeLedger()
	service := NewService(expenseRepo, userRepo, groupRepo, ldg)

	userRepo.On("FindByID", ctx, "payer").Return(testUser("payer"), nil)
	userRepo.On("FindAllByID", ctx, []string{"payer", "a", "b"}).Return(map[string]*domain.User{
		"payer": testUser("payer"), "a": testUser("a"), "b": testUser("b"),
	}, nil)
	expenseRepo.On("SaveWithTransfers", ctx, mock.Anything, mock.Anything).Return(nil)

	// 100/3 leaves an unbalanced cent; the reversal must replay the stored
	// amounts, not recompute, so the balances come back to exactly zero.
	e, err := service.Create(ctx, "payer", CreateExpenseInput{
		Description: "Groceries",
		TotalAmount: decimal.NewFromInt(100),
		Splits:      equalSpecs("payer", "a", "b"),
	})
	require.NoError(t, err)
	assert.False(t, e.IsBalanced())
	assert.True(t, decimal.NewFromFloat(33.33).Equal(ldg.owes("a", "payer")))

	expenseRepo.On("FindByID", ctx, e.ID).Return(e, nil)
	require.NoError(t, service.Delete(ctx, e.ID, "payer"))

	assert.True(t, ldg.allZero())
	assert.False(t, e.Active)
}

func TestCreate_PayerNotFound(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	userRepo := new(MockUserRepository)
	groupRepo := new(MockGroupRepository)
	service := NewService(expenseRepo, userRepo, groupRepo, newFakeLedger())

	userRepo.On("FindByID", ctx, "ghost").Return(nil, nil)

	_, err := service.Create(ctx, "ghost", CreateExpenseInput{
		Description: "Dinner",
		TotalAmount: decimal.NewFromInt(10),
		Splits:      equalSpecs("ghost"),
	})
	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "payer", notFoundErr.Resource)
}

func TestCreate_GroupNonMemberRejected(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	userRepo := new(MockUserRepository)
	groupRepo := new(MockGroupRepository)
	service := NewService(expenseRepo, userRepo, groupRepo, newFakeLedger())

	userRepo.On("FindByID", ctx, "payer").Return(testUser("payer"), nil)
	g := &domain.Group{ID: "g1", Name: "Trip", CreatedBy: "someone", Active: true}
	g.AddMember("someone", "Someone", "someone@example.com")
	groupRepo.On("FindByID", ctx, "g1").Return(g, nil)

	_, err := service.Create(ctx, "payer", CreateExpenseInput{
		Description: "Hotel",
		TotalAmount: decimal.NewFromInt(200),
		GroupID:     "g1",
		Splits:      equalSpecs("payer"),
	})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Error(), "not a member")
}

func TestCreate_MissingParticipantRejected(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	userRepo := new(MockUserRepository)
	groupRepo := new(MockGroupRepository)
	service := NewService(expenseRepo, userRepo, groupRepo, newFakeLedger())

	userRepo.On("FindByID", ctx, "payer").Return(testUser("payer"), nil)
	userRepo.On("FindAllByID", ctx, []string{"payer", "ghost"}).Return(map[string]*domain.User{
		"payer": testUser("payer"),
	}, nil)

	_, err := service.Create(ctx, "payer", CreateExpenseInput{
		Description: "Dinner",
		TotalAmount: decimal.NewFromInt(10),
		Splits:      equalSpecs("payer", "ghost"),
	})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCreate_StorageFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	userRepo := new(MockUserRepository)
	groupRepo := new(MockGroupRepository)
	ldg := newFakeLedger()
	service := NewService(expenseRepo, userRepo, groupRepo, ldg)

	userRepo.On("FindByID", ctx, "payer").Return(testUser("payer"), nil)
	userRepo.On("FindAllByID", ctx, []string{"payer", "a", "b"}).Return(map[string]*domain.User{
		"payer": testUser("payer"), "a": testUser("a"), "b": testUser("b"),
	}, nil)
	expenseRepo.On("SaveWithTransfers", ctx, mock.Anything, mock.Anything).
		Return(errors.New("storage unavailable"))

	_, err := service.Create(ctx, "payer", CreateExpenseInput{
		Description: "Dinner",
		TotalAmount: decimal.NewFromInt(90),
		Splits:      equalSpecs("payer", "a", "b"),
	})
	require.Error(t, err)

	// Record and transfers share one commit: a failed create never touches
	// the ledger and there is no second write to clean anything up.
	assert.True(t, ldg.allZero())
	expenseRepo.AssertNotCalled(t, "Save")
}

func TestCreate_LedgerUnavailableNothingSaved(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	userRepo := new(MockUserRepository)
	groupRepo := new(MockGroupRepository)
	ldg := newFakeLedger()
	ldg.err = errors.New("ledger unavailable")
	service := NewService(expenseRepo, userRepo, groupRepo, ldg)

	userRepo.On("FindByID", ctx, "payer").Return(testUser("payer"), nil)
	userRepo.On("FindAllByID", ctx, []string{"payer", "a"}).Return(map[string]*domain.User{
		"payer": testUser("payer"), "a": testUser("a"),
	}, nil)

	_, err := service.Create(ctx, "payer", CreateExpenseInput{
		Description: "Dinner",
		TotalAmount: decimal.NewFromInt(10),
		Splits:      equalSpecs("payer", "a"),
	})
	require.Error(t, err)
	expenseRepo.AssertNotCalled(t, "SaveWithTransfers")
}

func TestDelete_FailedCommitKeepsExpenseActive(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	userRepo := new(MockUserRepository)
	groupRepo := new(MockGroupRepository)
	ldg := newFakeLedger()
	service := NewService(expenseRepo, userRepo, groupRepo, ldg)

	userRepo.On("FindByID", ctx, "payer").Return(testUser("payer"), nil)
	userRepo.On("FindAllByID", ctx, []string{"payer", "a", "b"}).Return(map[string]*domain.User{
		"payer": testUser("payer"), "a": testUser("a"), "b": testUser("b"),
	}, nil)
	expenseRepo.On("SaveWithTransfers", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	e, err := service.Create(ctx, "payer", CreateExpenseInput{
		Description: "Dinner",
		TotalAmount: decimal.NewFromInt(90),
		Splits:      equalSpecs("payer", "a", "b"),
	})
	require.NoError(t, err)
	expenseRepo.On("FindByID", ctx, e.ID).Return(e, nil)

	// First delete attempt fails at commit time: the deactivation and the
	// reversal roll back together, so the expense stays active and the
	// balances keep the full expense.
	expenseRepo.On("SaveWithTransfers", ctx, mock.Anything, mock.Anything).
		Return(errors.New("storage unavailable")).Once()
	require.Error(t, service.Delete(ctx, e.ID, "payer"))
	assert.True(t, e.Active)
	assert.True(t, decimal.NewFromInt(30).Equal(ldg.owes("a", "payer")))

	// The retry reverses exactly once, never twice.
	expenseRepo.On("SaveWithTransfers", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, service.Delete(ctx, e.ID, "payer"))
	assert.False(t, e.Active)
	assert.True(t, ldg.allZero())
}

func TestDelete_NonPayerForbidden(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	service := NewService(expenseRepo, new(MockUserRepository), new(MockGroupRepository), newFakeLedger())

	e := &domain.Expense{
		ID: "e1", Description: "Dinner", TotalAmount: decimal.NewFromInt(10),
		PayerID: "payer", Active: true,
		Splits: []domain.Split{{UserID: "a", Type: domain.SplitTypeEqual, AmountOwed: decimal.NewFromInt(10)}},
	}
	expenseRepo.On("FindByID", ctx, "e1").Return(e, nil)

	err := service.Delete(ctx, "e1", "a")
	var authorizationErr *domain.AuthorizationError
	require.ErrorAs(t, err, &authorizationErr)
}

func TestDelete_TwiceReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	service := NewService(expenseRepo, new(MockUserRepository), new(MockGroupRepository), newFakeLedger())

	e := &domain.Expense{
		ID: "e1", Description: "Dinner", TotalAmount: decimal.NewFromInt(10),
		PayerID: "payer", Active: false, // already soft-deleted
		Splits: []domain.Split{{UserID: "a", Type: domain.SplitTypeEqual, AmountOwed: decimal.NewFromInt(10)}},
	}
	expenseRepo.On("FindByID", ctx, "e1").Return(e, nil)

	err := service.Delete(ctx, "e1", "payer")
	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestGetDetails_UninvolvedReaderForbidden(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	service := NewService(expenseRepo, new(MockUserRepository), new(MockGroupRepository), newFakeLedger())

	e := &domain.Expense{
		ID: "e1", Description: "Dinner", TotalAmount: decimal.NewFromInt(10),
		PayerID: "payer", Active: true,
		Splits: []domain.Split{{UserID: "a", Type: domain.SplitTypeEqual, AmountOwed: decimal.NewFromInt(10)}},
	}
	expenseRepo.On("FindByID", ctx, "e1").Return(e, nil)

	_, err := service.GetDetails(ctx, "e1", "stranger")
	var authorizationErr *domain.AuthorizationError
	require.ErrorAs(t, err, &authorizationErr)

	// Participants and the payer can both read.
	got, err := service.GetDetails(ctx, "e1", "a")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	_, err = service.GetDetails(ctx, "e1", "payer")
	require.NoError(t, err)
}

func TestListGroupExpenses_NonMemberForbidden(t *testing.T) {
	ctx := context.Background()
	groupRepo := new(MockGroupRepository)
	service := NewService(new(MockExpenseRepository), new(MockUserRepository), groupRepo, newFakeLedger())

	g := &domain.Group{ID: "g1", Name: "Trip", CreatedBy: "owner", Active: true}
	g.AddMember("owner", "Owner", "owner@example.com")
	groupRepo.On("FindByID", ctx, "g1").Return(g, nil)

	_, err := service.ListGroupExpenses(ctx, "g1", "stranger")
	var authorizationErr *domain.AuthorizationError
	require.ErrorAs(t, err, &authorizationErr)
}

func TestListUserExpenses_DefaultsPagination(t *testing.T) {
	ctx := context.Background()
	expenseRepo := new(MockExpenseRepository)
	service := NewService(expenseRepo, new(MockUserRepository), new(MockGroupRepository), newFakeLedger())

	expenseRepo.On("FindByUserInvolvement", ctx, "u1", 20, 0).Return([]*domain.Expense{}, nil)
	expenseRepo.On("CountByUserInvolvement", ctx, "u1").Return(7, nil)

	_, total, err := service.ListUserExpenses(ctx, "u1", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	expenseRepo.AssertExpectations(t)
}
