package cache

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dealgrid/auctionlens/internal/config"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, got)

	_, ok = c.Get("missing")
	require.False(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	require.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("k", "v", 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestListingCacheVersioning(t *testing.T) {
	c := NewListingCache(config.Config{ListingCacheTTL: 60})
	req := propertydomain.ListRequest{County: "essex"}
	resp := propertydomain.ListResponse{Properties: []propertydomain.Row{{ID: "1"}}}

	c.Set("u-1", req, resp)

	got, ok := c.Get("u-1", req)
	require.True(t, ok)
	require.Equal(t, resp, got)

	// Another user never sees the entry.
	_, ok = c.Get("u-2", req)
	require.False(t, ok)

	// A changed filter is a different key.
	_, ok = c.Get("u-1", propertydomain.ListRequest{County: "bergen"})
	require.False(t, ok)

	c.Invalidate("u-1")
	_, ok = c.Get("u-1", req)
	require.False(t, ok)
}

func TestListingCacheDisabled(t *testing.T) {
	c := NewListingCache(config.Config{ListingCacheTTL: 0})
	require.Nil(t, c)

	// nil receivers are safe no-ops.
	c.Set("u-1", propertydomain.ListRequest{}, propertydomain.ListResponse{})
	c.Invalidate("u-1")
	_, ok := c.Get("u-1", propertydomain.ListRequest{})
	require.False(t, ok)
}

func TestListingCacheKeyCarriesFormatVersion(t *testing.T) {
	c := NewListingCache(config.Config{ListingCacheTTL: 60})
	req := propertydomain.ListRequest{County: "essex"}

	key := c.key("u-1", req)
	require.True(t, strings.HasPrefix(key, fmt.Sprintf("v%d:u-1:", listingKeyFormat)))
}
