package assetsync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// MockAssetRepository is a mock implementation of AssetRepository for testing
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) List(ctx context.Context) (domain.Holdings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Holdings), args.Error(1)
}

func (m *MockAssetRepository) Create(ctx context.Context, asset domain.Asset) (string, error) {
	args := m.Called(ctx, asset)
	return args.String(0), args.Error(1)
}

func (m *MockAssetRepository) Update(ctx context.Context, asset domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockAssetRepository) Delete(ctx context.Context, dbID string) error {
	args := m.Called(ctx, dbID)
	return args.Error(0)
}

func (m *MockAssetRepository) UpdatePrices(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAssetRepository) UploadStatement(ctx context.Context, upload domain.StatementUpload) (*domain.StatementResult, error) {
	args := m.Called(ctx, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatementResult), args.Error(1)
}

func stock(id string, worth int64) *domain.Stock {
	return &domain.Stock{
		AssetBase:    domain.AssetBase{ID: id, DBID: id, Name: "S" + id, Market: domain.MarketIndia},
		Quantity:     decimal.NewFromInt(1),
		CurrentPrice: decimal.NewFromInt(worth),
		ActualWorth:  decimal.NewFromInt(worth),
	}
}

func TestIDGenerator_Unique(t *testing.T) {
	g := NewIDGenerator("tmp")
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.Next()
		assert.True(t, strings.HasPrefix(id, "tmp-"))
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDraft(t *testing.T) {
	svc := NewService(new(MockAssetRepository), NewIDGenerator("tmp"))

	a, err := svc.Draft(domain.CategoryCommodities, domain.MarketEurope)
	require.NoError(t, err)
	assert.IsType(t, &domain.Commodity{}, a)
	assert.NotEmpty(t, a.Base().ID)
	assert.Empty(t, a.Base().DBID)
	assert.Equal(t, domain.MarketEurope, a.Base().Market)

	_, err = svc.Draft("bonds", domain.MarketEurope)
	assert.Error(t, err)
}

func TestCreate_AdoptsServerID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAssetRepository)
	svc := NewService(repo, NewIDGenerator("tmp"))

	draft, err := svc.Draft(domain.CategoryStocks, domain.MarketIndia)
	require.NoError(t, err)
	repo.On("Create", ctx, draft).Return("42", nil)

	created, err := svc.Create(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "42", created.Base().ID)
	assert.Equal(t, "42", created.Base().DBID)
	repo.AssertExpectations(t)
}

func TestCreate_RejectedLeavesAssetUntouched(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAssetRepository)
	svc := NewService(repo, NewIDGenerator("tmp"))

	draft, _ := svc.Draft(domain.CategoryStocks, domain.MarketIndia)
	tempID := draft.Base().ID
	repo.On("Create", ctx, draft).Return("", &domain.RejectedError{Status: 422, Message: "Quantity must be positive"})

	created, err := svc.Create(ctx, draft)
	assert.Nil(t, created)
	assert.Equal(t, "Quantity must be positive", domain.UserMessage(err))
	assert.Equal(t, tempID, draft.Base().ID)
	assert.Empty(t, draft.Base().DBID)
}

func TestCreate_InvalidMarket(t *testing.T) {
	repo := new(MockAssetRepository)
	svc := NewService(repo, NewIDGenerator("tmp"))

	_, err := svc.Create(context.Background(), &domain.Stock{AssetBase: domain.AssetBase{Market: "mars"}})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateAndDelete_RequirePersisted(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAssetRepository)
	svc := NewService(repo, NewIDGenerator("tmp"))

	unsaved := &domain.Stock{AssetBase: domain.AssetBase{ID: "tmp-1", Market: domain.MarketIndia}}
	assert.ErrorIs(t, svc.Update(ctx, unsaved), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, unsaved), domain.ErrNotFound)

	saved := stock("7", 100)
	repo.On("Update", ctx, saved).Return(nil)
	repo.On("Delete", ctx, "7").Return(nil)

	require.NoError(t, svc.Update(ctx, saved))
	require.NoError(t, svc.Delete(ctx, saved))
	assert.Equal(t, "7", saved.ID)
	repo.AssertExpectations(t)
}

func TestFetchPricesAndMerge_OnlyStockWorth(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAssetRepository)
	svc := NewService(repo, NewIDGenerator("tmp"))

	current := domain.NewHoldings()
	original := stock("1", 100)
	original.Name = "Local name"
	current.Add(original)
	current.Add(stock("2", 200))
	bank := &domain.BankAccount{AssetBase: domain.AssetBase{ID: "3", DBID: "3", Market: domain.MarketIndia}, Balance: decimal.NewFromInt(500)}
	current.Add(bank)

	fresh := domain.NewHoldings()
	renamed := stock("1", 150)
	renamed.Name = "Server name"
	fresh.Add(renamed)
	fresh.Add(&domain.BankAccount{AssetBase: domain.AssetBase{ID: "3", DBID: "3", Market: domain.MarketIndia}, Balance: decimal.NewFromInt(999)})
	fresh.Add(stock("4", 400))

	call := repo.On("UpdatePrices", ctx).Return(nil)
	repo.On("List", ctx).Return(fresh, nil).NotBefore(call)

	reloaded, err := svc.FetchPrices(ctx)
	require.NoError(t, err)
	merged, updated := MergeStockWorth(current, reloaded)
	assert.Equal(t, 1, updated)

	stocks := domain.Of[*domain.Stock](merged, domain.MarketIndia)
	require.Len(t, stocks, 2)
	assert.True(t, decimal.NewFromInt(150).Equal(stocks[0].ActualWorth))
	assert.Equal(t, "Local name", stocks[0].Name)
	assert.True(t, decimal.NewFromInt(200).Equal(stocks[1].ActualWorth))

	banks := domain.Of[*domain.BankAccount](merged, domain.MarketIndia)
	assert.True(t, decimal.NewFromInt(500).Equal(banks[0].Balance))

	// the input is not mutated
	assert.True(t, decimal.NewFromInt(100).Equal(original.ActualWorth))
	repo.AssertExpectations(t)
}

func TestFetchPrices_UpdateFails(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAssetRepository)
	svc := NewService(repo, NewIDGenerator("tmp"))

	repo.On("UpdatePrices", ctx).Return(domain.ErrBackendUnreachable)

	_, err := svc.FetchPrices(ctx)
	assert.ErrorIs(t, err, domain.ErrBackendUnreachable)
	repo.AssertNotCalled(t, "List", mock.Anything)
}

func TestImportStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := new(MockAssetRepository)
		svc := NewService(repo, NewIDGenerator("tmp"))
		repo.On("UploadStatement", ctx, mock.MatchedBy(func(u domain.StatementUpload) bool {
			return u.FileName == "fd.pdf" && u.AssetType == domain.CategoryFixedDeposits && u.Market == domain.MarketIndia
		})).Return(&domain.StatementResult{Success: true, CreatedCount: 2}, nil)

		res, err := svc.ImportStatement(ctx, "fd.pdf", strings.NewReader("pdf"), domain.CategoryFixedDeposits, domain.MarketIndia)
		require.NoError(t, err)
		assert.Equal(t, 2, res.CreatedCount)
	})

	t.Run("backend reports failure", func(t *testing.T) {
		repo := new(MockAssetRepository)
		svc := NewService(repo, NewIDGenerator("tmp"))
		repo.On("UploadStatement", ctx, mock.Anything).Return(&domain.StatementResult{Success: false, Message: "Unreadable document"}, nil)

		_, err := svc.ImportStatement(ctx, "fd.pdf", strings.NewReader("pdf"), domain.CategoryFixedDeposits, domain.MarketIndia)
		assert.Equal(t, "Unreadable document", domain.UserMessage(err))
	})

	t.Run("transport error", func(t *testing.T) {
		repo := new(MockAssetRepository)
		svc := NewService(repo, NewIDGenerator("tmp"))
		repo.On("UploadStatement", ctx, mock.Anything).Return(nil, errors.New("boom"))

		_, err := svc.ImportStatement(ctx, "fd.pdf", strings.NewReader("pdf"), domain.CategoryFixedDeposits, domain.MarketIndia)
		assert.Error(t, err)
	})
}
