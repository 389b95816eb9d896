package caching

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/require"

	"github.com/richiefi/redirector/redirect"
	"github.com/richiefi/redirector/testhelp"
)

func testDecision(location string) redirect.Decision {
	return redirect.Decision{
		Status:          http.StatusMovedPermanently,
		Location:        location,
		CacheControl:    "max-age=60",
		HasCacheControl: true,
	}
}

func TestMemoryCache_get_set(t *testing.T) {
	c := NewMemoryCache(context.Background(), testhelp.NewLogger(t), Options{TTL: time.Hour}, nil)

	k := Key{Host: "example.com", Path: "/test/foo"}
	_, ok := c.Get(k)
	require.False(t, ok)

	d := testDecision("https://foo.com/destination/d")
	c.Set(k, d)

	got, ok := c.Get(k)
	require.True(t, ok)
	require.Equal(t, d, got)

	// a different query is a different entry
	_, ok = c.Get(Key{Host: "example.com", Path: "/test/foo", RawQuery: "a=1"})
	require.False(t, ok)
}

func TestMemoryCache_ttl_expiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	c := NewMemoryCache(context.Background(), testhelp.NewLogger(t), Options{TTL: time.Minute}, clock)

	k := Key{Host: "example.com", Path: "/test/foo"}
	c.Set(k, testDecision("https://foo.com/destination/d"))

	now = now.Add(30 * time.Second)
	_, ok := c.Get(k)
	require.True(t, ok)

	now = now.Add(31 * time.Second)
	_, ok = c.Get(k)
	require.False(t, ok)
}

func TestMemoryCache_cleanup_reclaims(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	c := NewMemoryCache(context.Background(), testhelp.NewLogger(t), Options{TTL: time.Minute}, clock)

	c.Set(Key{Host: "a.example.com", Path: "/x"}, testDecision("https://x.example.com/"))
	c.Set(Key{Host: "b.example.com", Path: "/y"}, testDecision("https://y.example.com/"))
	require.Equal(t, 2, len(c.entries))

	now = now.Add(2 * time.Minute)
	c.cleanup()
	require.Equal(t, 0, len(c.entries))
	require.Equal(t, 0, c.size)
}

func TestMemoryCache_size_cap(t *testing.T) {
	c := NewMemoryCache(context.Background(), testhelp.NewLogger(t), Options{TTL: time.Hour, MaxSize: datasize.ByteSize(200)}, nil)

	c.Set(Key{Host: "a.example.com", Path: "/1"}, testDecision("https://x.example.com/1"))
	require.Equal(t, 1, len(c.entries))

	// the second insert would exceed the cap and is dropped
	c.Set(Key{Host: "a.example.com", Path: "/2"}, testDecision("https://x.example.com/2"))
	require.Equal(t, 1, len(c.entries))

	// replacing an existing key is always allowed
	c.Set(Key{Host: "a.example.com", Path: "/1"}, testDecision("https://x.example.com/other"))
	got, ok := c.Get(Key{Host: "a.example.com", Path: "/1"})
	require.True(t, ok)
	require.Equal(t, "https://x.example.com/other", got.Location)
}

func TestMemoryCache_clear(t *testing.T) {
	c := NewMemoryCache(context.Background(), testhelp.NewLogger(t), Options{TTL: time.Hour}, nil)
	c.Set(Key{Host: "a.example.com", Path: "/x"}, testDecision("https://x.example.com/"))
	c.Clear()
	_, ok := c.Get(Key{Host: "a.example.com", Path: "/x"})
	require.False(t, ok)
	require.Equal(t, 0, c.size)
}
