package cache

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/internal/storage"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/store/file"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("GET", "/shop/items", url.Values{"b": {"2"}, "a": {"1"}})
	b := Fingerprint("get", "/shop/items", url.Values{"a": {"1"}, "b": {"2"}})
	assert.Equal(t, a, b, "key order and method case must not matter")
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, Fingerprint("POST", "/shop/items", url.Values{"a": {"1"}, "b": {"2"}}))
	assert.NotEqual(t, a, Fingerprint("GET", "/shop/users", url.Values{"a": {"1"}, "b": {"2"}}))
	assert.NotEqual(t, a, Fingerprint("GET", "/shop/items", url.Values{"a": {"1"}}))
}

func TestKey(t *testing.T) {
	k := Key{Project: "shop", Route: "items", Fingerprint: "abc"}
	assert.Equal(t, "shop/items/abc.json", k.String())
	assert.Equal(t, "shop/items/", RoutePrefix("shop", "items"))
}

func TestEntry_Fresh(t *testing.T) {
	now := time.Now()
	e := &Entry{CreatedAt: now}
	assert.True(t, e.Fresh(now.Add(999*time.Millisecond), time.Second))
	assert.False(t, e.Fresh(now.Add(time.Second), time.Second))
}

// documentCaches returns a DocumentCache over each local document store.
func documentCaches(t *testing.T) map[string]*DocumentCache {
	t.Helper()
	fs := file.New(file.Config{Dir: t.TempDir()})
	require.NoError(t, fs.Open(context.Background()))
	return map[string]*DocumentCache{
		"memory-store": NewDocumentCache(storage.NewMemoryStore(), time.Second),
		"file-store":   NewDocumentCache(fs, time.Second),
	}
}

func TestDocumentCache_RoundTrip(t *testing.T) {
	for name, c := range documentCaches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			k := Key{Project: "shop", Route: "items", Fingerprint: "fp1"}

			_, err := c.Get(ctx, k)
			assert.ErrorIs(t, err, ErrMiss)

			e := &Entry{Fingerprint: "fp1", Status: 200, ContentType: "text/csv", ResultCount: 3, Body: []byte("id\n1\n"), CreatedAt: time.Now()}
			require.NoError(t, c.Put(ctx, k, e))

			got, err := c.Get(ctx, k)
			require.NoError(t, err)
			assert.Equal(t, e.Body, got.Body)
			assert.Equal(t, "text/csv", got.ContentType)
			assert.Equal(t, 3, got.ResultCount)
			assert.Equal(t, 200, got.Status)
		})
	}
}

func TestDocumentCache_StaleIsMissAndSwept(t *testing.T) {
	for name, c := range documentCaches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			c.now = func() time.Time { return now }

			old := Key{Project: "p", Route: "r", Fingerprint: "old"}
			fresh := Key{Project: "p", Route: "r", Fingerprint: "fresh"}
			require.NoError(t, c.Put(ctx, old, &Entry{CreatedAt: now.Add(-2 * time.Second)}))
			require.NoError(t, c.Put(ctx, fresh, &Entry{CreatedAt: now}))

			_, err := c.Get(ctx, old)
			assert.ErrorIs(t, err, ErrMiss)

			removed, err := c.Sweep(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			_, err = c.Get(ctx, fresh)
			assert.NoError(t, err)
		})
	}
}

func TestDocumentCache_Invalidate(t *testing.T) {
	for name, c := range documentCaches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()
			a := Key{Project: "p", Route: "items", Fingerprint: "1"}
			b := Key{Project: "p", Route: "items", Fingerprint: "2"}
			other := Key{Project: "p", Route: "items-archive", Fingerprint: "3"}
			for _, k := range []Key{a, b, other} {
				require.NoError(t, c.Put(ctx, k, &Entry{CreatedAt: now}))
			}

			require.NoError(t, c.Invalidate(ctx, "p", "items"))

			_, err := c.Get(ctx, a)
			assert.ErrorIs(t, err, ErrMiss)
			_, err = c.Get(ctx, b)
			assert.ErrorIs(t, err, ErrMiss)
			_, err = c.Get(ctx, other)
			assert.NoError(t, err)

			// Invalidating a route with no entries is fine.
			assert.NoError(t, c.Invalidate(ctx, "ghost", "none"))
		})
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(50 * time.Millisecond)
	k := Key{Project: "p", Route: "r", Fingerprint: "x"}

	_, err := c.Get(ctx, k)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Put(ctx, k, &Entry{Body: []byte("b"), CreatedAt: time.Now()}))
	got, err := c.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got.Body)

	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, k)
		return err == ErrMiss
	}, time.Second, 10*time.Millisecond)

	removed, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	now := time.Now()
	require.NoError(t, c.Put(ctx, Key{"p", "r", "1"}, &Entry{CreatedAt: now}))
	require.NoError(t, c.Put(ctx, Key{"p", "r2", "1"}, &Entry{CreatedAt: now}))

	require.NoError(t, c.Invalidate(ctx, "p", "r"))
	assert.Equal(t, 1, c.Len())
}

func TestSweeper_RunOnce(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)
	require.NoError(t, c.Put(context.Background(), Key{"p", "r", "1"}, &Entry{CreatedAt: time.Now()}))
	time.Sleep(5 * time.Millisecond)

	s := NewSweeper(c, "", logging.Nop())
	var got int
	s.OnSweep(func(removed int, _ time.Duration, err error) {
		assert.NoError(t, err)
		got = removed
	})
	s.RunOnce()
	assert.Equal(t, 1, got)
}

func TestSweeper_StartStop(t *testing.T) {
	s := NewSweeper(NewMemoryCache(0), "@every 1h", logging.Nop())
	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")
	s.Stop()
	s.Stop()

	bad := NewSweeper(NewMemoryCache(0), "not a schedule", logging.Nop())
	assert.Error(t, bad.Start())
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("@every 30s"))
	assert.NoError(t, ValidateSchedule("*/5 * * * *"))
	assert.Error(t, ValidateSchedule("every now and then"))
}
