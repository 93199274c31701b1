package sqlstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goliatone/go-ownership/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const slotCacheKeyPrefix = "go-ownership::slot::v1"

// CachedSlotStore fronts a SlotStore with a read-through cache. Reads
// fill the cache; Update and Seed invalidate the touched keys so the
// next read refetches from the base store.
type CachedSlotStore struct {
	base  core.SlotStore
	cache repositorycache.CacheService
}

func NewCachedSlotStore(base core.SlotStore, cacheService repositorycache.CacheService) (*CachedSlotStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base slot store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: slot cache service is required")
	}
	return &CachedSlotStore{base: base, cache: cacheService}, nil
}

// SlotCacheKey returns the deterministic cache key contract for slot
// reads: go-ownership::slot::v1::<slot_index>.
func SlotCacheKey(index int) string {
	return slotCacheKeyPrefix + "::" + strconv.Itoa(index)
}

// SlotListCacheKey is the key for the full slot listing.
func SlotListCacheKey() string {
	return slotCacheKeyPrefix + "::all"
}

func (s *CachedSlotStore) Seed(ctx context.Context, owners []core.Principal) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached slot store is not configured")
	}
	if err := s.base.Seed(ctx, owners); err != nil {
		return err
	}
	return s.invalidateAll(ctx, len(owners))
}

func (s *CachedSlotStore) Count(ctx context.Context) (int, error) {
	if s == nil || s.base == nil {
		return 0, fmt.Errorf("sqlstore: cached slot store is not configured")
	}
	return s.base.Count(ctx)
}

func (s *CachedSlotStore) Get(ctx context.Context, index int) (core.OwnerSlot, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.OwnerSlot{}, fmt.Errorf("sqlstore: cached slot store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, SlotCacheKey(index), func(ctx context.Context) (core.OwnerSlot, error) {
		return s.base.Get(ctx, index)
	})
}

func (s *CachedSlotStore) List(ctx context.Context) ([]core.OwnerSlot, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached slot store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, SlotListCacheKey(), func(ctx context.Context) ([]core.OwnerSlot, error) {
		return s.base.List(ctx)
	})
}

func (s *CachedSlotStore) Update(ctx context.Context, slot core.OwnerSlot, expectedVersion int64) (core.OwnerSlot, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.OwnerSlot{}, fmt.Errorf("sqlstore: cached slot store is not configured")
	}
	updated, err := s.base.Update(ctx, slot, expectedVersion)
	if err != nil {
		return core.OwnerSlot{}, err
	}
	if err := s.cache.Delete(ctx, SlotCacheKey(slot.Index)); err != nil {
		return core.OwnerSlot{}, err
	}
	if err := s.cache.Delete(ctx, SlotListCacheKey()); err != nil {
		return core.OwnerSlot{}, err
	}
	return updated, nil
}

func (s *CachedSlotStore) invalidateAll(ctx context.Context, count int) error {
	for index := 0; index < count; index++ {
		if err := s.cache.Delete(ctx, SlotCacheKey(index)); err != nil {
			return err
		}
	}
	return s.cache.Delete(ctx, SlotListCacheKey())
}
