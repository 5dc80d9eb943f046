package assetsync

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
)

// Service synchronizes assets with the backend.
// One service serves all six categories; the concrete variant travels inside domain.Asset.
type Service struct {
	repo domain.AssetRepository
	ids  *IDGenerator
}

// NewService creates a new asset sync service
func NewService(repo domain.AssetRepository, ids *IDGenerator) *Service {
	return &Service{repo: repo, ids: ids}
}

// Draft returns an empty asset of the category with a temporary client id
func (s *Service) Draft(c domain.Category, m domain.Market) (domain.Asset, error) {
	a, err := domain.NewAsset(c)
	if err != nil {
		return nil, err
	}
	a.Base().ID = s.ids.Next()
	a.Base().Market = m
	return a, nil
}

// List loads every asset from the backend
func (s *Service) List(ctx context.Context) (domain.Holdings, error) {
	return s.repo.List(ctx)
}

// Create saves a new asset.
// On success the server id becomes both the ID and the DBID of the asset.
// On failure the asset is left as it was.
func (s *Service) Create(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	if asset == nil {
		return nil, errors.New("asset is required")
	}
	if !asset.Base().Market.Valid() {
		return nil, fmt.Errorf("invalid market %q", asset.Base().Market)
	}

	id, err := s.repo.Create(ctx, asset)
	if err != nil {
		return nil, err
	}

	b := asset.Base()
	logger.FromContext(ctx).Info("Asset created", "category", asset.Category(), "tempId", b.ID, "id", id)
	b.ID = id
	b.DBID = id
	return asset, nil
}

// Update saves changes to a persisted asset; its identity is unchanged
func (s *Service) Update(ctx context.Context, asset domain.Asset) error {
	if asset == nil {
		return errors.New("asset is required")
	}
	if !asset.Base().Persisted() {
		return fmt.Errorf("asset %q has not been saved: %w", asset.Base().ID, domain.ErrNotFound)
	}
	return s.repo.Update(ctx, asset)
}

// Delete removes a persisted asset
func (s *Service) Delete(ctx context.Context, asset domain.Asset) error {
	if !asset.Base().Persisted() {
		return fmt.Errorf("asset %q has not been saved: %w", asset.Base().ID, domain.ErrNotFound)
	}
	return s.repo.Delete(ctx, asset.Base().DBID)
}

// FetchPrices triggers the backend price update and returns the reloaded assets
func (s *Service) FetchPrices(ctx context.Context) (domain.Holdings, error) {
	if err := s.repo.UpdatePrices(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// MergeStockWorth returns a copy of current where every stock whose DBID appears in fresh
// takes the fresh ActualWorth. Other fields and categories are untouched; current is not modified.
func MergeStockWorth(current, fresh domain.Holdings) (domain.Holdings, int) {
	worth := make(map[string]*domain.Stock)
	for _, m := range domain.Markets {
		for _, st := range domain.Of[*domain.Stock](fresh, m) {
			if st.DBID != "" {
				worth[st.DBID] = st
			}
		}
	}

	merged := current.Clone()
	updated := 0
	for _, m := range domain.Markets {
		for _, st := range domain.Of[*domain.Stock](merged, m) {
			f, ok := worth[st.DBID]
			if !ok || st.DBID == "" {
				continue
			}
			cp := *st
			cp.ActualWorth = f.ActualWorth
			merged.Replace(&cp)
			updated++
		}
	}
	return merged, updated
}

// ImportStatement uploads a statement for server-side extraction of assets
func (s *Service) ImportStatement(ctx context.Context, fileName string, file io.Reader, c domain.Category, m domain.Market) (*domain.StatementResult, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid market %q", m)
	}
	res, err := s.repo.UploadStatement(ctx, domain.StatementUpload{
		FileName:  fileName,
		File:      file,
		AssetType: c,
		Market:    m,
	})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return res, &domain.RejectedError{Message: res.Message}
	}
	return res, nil
}
