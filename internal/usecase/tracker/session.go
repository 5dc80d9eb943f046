package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
	"github.com/bharadwajkrishnan/finai/internal/usecase/assetsync"
	"github.com/bharadwajkrishnan/finai/internal/usecase/familyfilter"
	"github.com/bharadwajkrishnan/finai/internal/usecase/networth"
	"github.com/bharadwajkrishnan/finai/internal/usecase/ordering"
	"github.com/bharadwajkrishnan/finai/internal/usecase/selection"
)

// ErrNothingSelected is returned by BulkDelete when the bucket has no selection
var ErrNothingSelected = errors.New("no assets selected")

// BulkResult reports the outcome of a bulk delete
type BulkResult struct {
	Succeeded int
	Failed    int
}

// Session holds the state of one user's tracker: the asset collections, the derived net worth,
// the view preferences and the family filter.
// Every change to a collection or to the filter recomputes the net worth of all markets
// before the lock is released.
type Session struct {
	assets   *assetsync.Service
	members  domain.FamilyMemberRepository
	orders   *ordering.Store
	selected *selection.Store

	// ordersOnce reads the stored orders on the first load, outside mu
	ordersOnce sync.Once

	mu       sync.RWMutex
	holdings domain.Holdings
	netWorth map[domain.Market]decimal.Decimal
	filter   familyfilter.Filter
	roster   domain.Roster
	closed   bool
}

// NewSession creates a new tracker session
func NewSession(assets *assetsync.Service, members domain.FamilyMemberRepository, orders *ordering.Store, selected *selection.Store) *Session {
	s := &Session{
		assets:   assets,
		members:  members,
		orders:   orders,
		selected: selected,
		holdings: domain.NewHoldings(),
		filter:   familyfilter.New(familyfilter.All, nil),
	}
	s.recomputeLocked()
	return s
}

// Load fetches every asset and the family roster from the backend and replaces the session state.
// Stored orders are read on the first load and reconciled against the fetched collections.
func (s *Session) Load(ctx context.Context) error {
	log := logger.FromContext(ctx)

	holdings, err := s.assets.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}

	roster, err := s.members.List(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		log.Warn("Failed to load family members, continuing without roster", "error", err)
		roster = nil
	}

	s.ordersOnce.Do(func() {
		if err := s.orders.Load(ctx, domain.AllBucketKeys()); err != nil {
			log.Warn("Failed to load stored orders", "error", err)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	for _, key := range domain.AllBucketKeys() {
		s.orders.Reconcile(key, holdings.Get(key))
	}

	s.holdings = holdings
	if roster != nil {
		s.roster = roster
	}
	s.filter = familyfilter.New(s.filter.Value, s.roster)
	s.recomputeLocked()

	log.Info("Session loaded", "assets", holdings.Len(), "members", len(s.roster))
	return nil
}

// View returns the visible list of a bucket: filtered first, then ordered
func (s *Session) View(key domain.BucketKey) []domain.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked(key)
}

func (s *Session) viewLocked(key domain.BucketKey) []domain.Asset {
	return s.orders.Sorted(key, s.filter.Apply(s.holdings.Get(key)))
}

// Find returns the asset with the given id in a bucket, ignoring the filter
func (s *Session) Find(key domain.BucketKey, id string) (domain.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.holdings.Find(key, id)
}

// NetWorth returns the net worth of a market over the filtered collections
func (s *Session) NetWorth(m domain.Market) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.netWorth[m]
}

// Breakdown returns the per-category subtotals of a market over the filtered collections
func (s *Session) Breakdown(m domain.Market) *networth.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return networth.Breakdown(s.filter.ApplyHoldings(s.holdings), m)
}

// Draft returns an empty asset of a category with a temporary id
func (s *Session) Draft(c domain.Category, m domain.Market) (domain.Asset, error) {
	return s.assets.Draft(c, m)
}

// Add saves a new asset and appends it to its collection.
// A rejected create leaves the session unchanged.
func (s *Session) Add(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	created, err := s.assets.Create(ctx, asset)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings.Add(created)
	s.recomputeLocked()
	return created, nil
}

// Update saves changes to an asset already in the session
func (s *Session) Update(ctx context.Context, asset domain.Asset) error {
	key := domain.BucketOf(asset)
	if _, ok := s.Find(key, asset.Base().ID); !ok {
		return fmt.Errorf("asset %q in %s: %w", asset.Base().ID, key, domain.ErrNotFound)
	}
	if err := s.assets.Update(ctx, asset); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holdings.Replace(asset) {
		logger.FromContext(ctx).Warn("Asset removed while its update was in flight, dropping local write", "id", asset.Base().ID, "bucket", key.String())
		return fmt.Errorf("asset %q in %s: %w", asset.Base().ID, key, domain.ErrNotFound)
	}
	s.recomputeLocked()
	return nil
}

// Delete removes one asset from the backend and from its collection
func (s *Session) Delete(ctx context.Context, key domain.BucketKey, id string) error {
	asset, ok := s.Find(key, id)
	if !ok {
		return fmt.Errorf("asset %q in %s: %w", id, key, domain.ErrNotFound)
	}
	if err := s.assets.Delete(ctx, asset); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings.Remove(key, id)
	if s.selected.IsSelected(key, id) {
		s.selected.Toggle(key, id)
	}
	s.recomputeLocked()
	return nil
}

// MoveUp moves an asset one position up in the visible list
func (s *Session) MoveUp(ctx context.Context, key domain.BucketKey, id string) (bool, error) {
	return s.orders.MoveUp(ctx, key, s.View(key), id)
}

// MoveDown moves an asset one position down in the visible list
func (s *Session) MoveDown(ctx context.Context, key domain.BucketKey, id string) (bool, error) {
	return s.orders.MoveDown(ctx, key, s.View(key), id)
}

// MoveByID moves the dragged asset to the position of the drop target
func (s *Session) MoveByID(ctx context.Context, key domain.BucketKey, dragID, targetID string) (bool, error) {
	return s.orders.MoveByID(ctx, key, s.View(key), dragID, targetID)
}

// Toggle flips the selection of an asset and returns the new state
func (s *Session) Toggle(key domain.BucketKey, id string) (bool, error) {
	if _, ok := s.Find(key, id); !ok {
		return false, fmt.Errorf("asset %q in %s: %w", id, key, domain.ErrNotFound)
	}
	return s.selected.Toggle(key, id), nil
}

// SelectAll selects every visible asset of a bucket
func (s *Session) SelectAll(key domain.BucketKey) {
	s.selected.SelectAll(key, domain.AssetIDs(s.View(key)))
}

// DeselectAll clears the selection of a bucket
func (s *Session) DeselectAll(key domain.BucketKey) {
	s.selected.DeselectAll(key)
}

// AreAllSelected reports whether every visible asset of a bucket is selected
func (s *Session) AreAllSelected(key domain.BucketKey) bool {
	return s.selected.AreAllSelected(key, domain.AssetIDs(s.View(key)))
}

// Selected returns the selected ids of a bucket
func (s *Session) Selected(key domain.BucketKey) []string {
	return s.selected.Selected(key)
}

// BulkDelete deletes every selected asset of a bucket.
// confirm receives the number of selected assets; returning false cancels with domain.ErrCancelled.
// Deletes run concurrently. The collections are reloaded when at least one delete succeeded,
// and the selection is cleared whatever the outcome. The returned error aggregates the failures.
func (s *Session) BulkDelete(ctx context.Context, key domain.BucketKey, confirm func(n int) bool) (BulkResult, error) {
	ids := s.selected.Selected(key)
	if len(ids) == 0 {
		return BulkResult{}, ErrNothingSelected
	}
	if confirm != nil && !confirm(len(ids)) {
		return BulkResult{}, domain.ErrCancelled
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result BulkResult
		errs   *multierror.Error
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			err := s.deleteRemote(ctx, key, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				errs = multierror.Append(errs, fmt.Errorf("asset %s: %w", id, err))
				return
			}
			result.Succeeded++
		}(id)
	}
	wg.Wait()

	if result.Succeeded > 0 {
		if err := s.Load(ctx); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to refresh after delete: %w", err))
		}
	}
	s.selected.DeselectAll(key)

	logger.FromContext(ctx).Info("Bulk delete finished",
		"bucket", key.String(),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, errs.ErrorOrNil()
}

func (s *Session) deleteRemote(ctx context.Context, key domain.BucketKey, id string) error {
	asset, ok := s.Find(key, id)
	if !ok {
		return domain.ErrNotFound
	}
	return s.assets.Delete(ctx, asset)
}

// SetFilter changes the family filter and recomputes the net worth
func (s *Session) SetFilter(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = familyfilter.New(value, s.roster)
	s.recomputeLocked()
}

// Filter returns the current filter value
func (s *Session) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.Value
}

// Members returns the family roster
func (s *Session) Members() domain.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(domain.Roster(nil), s.roster...)
}

// RefreshPrices refreshes stock valuations and merges them into the collections.
// A refresh that completes after Close is discarded.
func (s *Session) RefreshPrices(ctx context.Context) error {
	fresh, err := s.assets.FetchPrices(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh prices: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	merged, updated := assetsync.MergeStockWorth(s.holdings, fresh)
	s.holdings = merged
	s.recomputeLocked()

	logger.FromContext(ctx).Debug("Stock prices merged", "updated", updated)
	return nil
}

// RunPriceRefresh refreshes prices every interval until ctx is done or the session is closed
func (s *Session) RunPriceRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.isClosed() {
				return
			}
			if err := s.RefreshPrices(ctx); err != nil {
				log.Warn("Periodic price refresh failed", "error", err)
			}
		}
	}
}

// ImportStatement uploads a statement and reloads the collections when assets were created
func (s *Session) ImportStatement(ctx context.Context, fileName string, file io.Reader, c domain.Category, m domain.Market) (*domain.StatementResult, error) {
	res, err := s.assets.ImportStatement(ctx, fileName, file, c, m)
	if err != nil {
		return res, err
	}
	if res.CreatedCount > 0 {
		if err := s.Load(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Close stops the session; later refresh results are discarded
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) recomputeLocked() {
	s.netWorth = networth.ComputeAll(s.filter.ApplyHoldings(s.holdings))
}
