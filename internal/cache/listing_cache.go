package cache

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/dealgrid/auctionlens/internal/config"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
)

// listingKeyFormat is bumped whenever the cached page shape or the key
// normalization changes, orphaning every entry written under the old layout.
const listingKeyFormat = 1

// ListingCache memoizes rendered listing pages per user. Entries expire
// quickly and every override write bumps the owner's version, so a user
// always sees their own edit on the next refresh while repeated identical
// queries within the window skip the store entirely.
type ListingCache struct {
	pages Cache[string, propertydomain.ListResponse]
	ttl   time.Duration

	mu       sync.Mutex
	versions map[string]uint64
}

// NewListingCache returns the shared listing page cache, or nil when the TTL
// is zero.
func NewListingCache(cfg config.Config) *ListingCache {
	if cfg.ListingCacheTTL <= 0 {
		return nil
	}
	return &ListingCache{
		pages:    NewTTLCache[string, propertydomain.ListResponse](),
		ttl:      time.Duration(cfg.ListingCacheTTL) * time.Second,
		versions: make(map[string]uint64),
	}
}

func (c *ListingCache) Get(userID string, req propertydomain.ListRequest) (propertydomain.ListResponse, bool) {
	if c == nil {
		return propertydomain.ListResponse{}, false
	}
	return c.pages.Get(c.key(userID, req))
}

func (c *ListingCache) Set(userID string, req propertydomain.ListRequest, resp propertydomain.ListResponse) {
	if c == nil {
		return
	}
	c.pages.Set(c.key(userID, req), resp, c.ttl)
}

// Invalidate drops every cached page belonging to one user.
func (c *ListingCache) Invalidate(userID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.versions[userID]++
	c.mu.Unlock()
}

func (c *ListingCache) version(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[userID]
}

func (c *ListingCache) key(userID string, req propertydomain.ListRequest) string {
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, part := range parts {
			h.Write([]byte(part))
			h.Write([]byte{0})
		}
	}
	write(
		strings.ToLower(strings.TrimSpace(req.County)),
		strings.ToLower(strings.TrimSpace(req.Status)),
		strings.ToLower(strings.TrimSpace(req.Search)),
		strings.ToLower(strings.TrimSpace(req.SpreadBand)),
		strings.ToLower(strings.TrimSpace(req.SortBy)),
		strings.ToLower(strings.TrimSpace(req.OrderBy)),
		req.PageToken,
		fmt.Sprintf("%d", req.PageSize),
	)
	if req.AuctionAfter != nil {
		write(req.AuctionAfter.UTC().Format(time.RFC3339))
	}
	if req.AuctionBefore != nil {
		write(req.AuctionBefore.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("v%d:%s:%d:%x", listingKeyFormat, userID, c.version(userID), h.Sum64())
}
