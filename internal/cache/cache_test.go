package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type snapshot struct {
	Titles []string `json:"titles"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestAsideFillsOnceThenServesCache(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *snapshot) func() error {
		return func() error {
			calls++
			dest.Titles = []string{"Kyoto"}
			return nil
		}
	}

	var first snapshot
	if err := c.Aside(ctx, FeaturedTripsKey, &first, time.Minute, fetch(&first)); err != nil {
		t.Fatalf("aside: %v", err)
	}
	var second snapshot
	if err := c.Aside(ctx, FeaturedTripsKey, &second, time.Minute, fetch(&second)); err != nil {
		t.Fatalf("aside: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single fetch, got %d", calls)
	}
	if len(second.Titles) != 1 || second.Titles[0] != "Kyoto" {
		t.Fatalf("expected cached value, got %+v", second)
	}

	mr.FastForward(2 * time.Minute)
	var third snapshot
	_ = c.Aside(ctx, FeaturedTripsKey, &third, time.Minute, fetch(&third))
	if calls != 2 {
		t.Fatalf("expected refetch after expiry, got %d", calls)
	}
}

func TestDeleteDropsKey(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	if err := c.SetJSON(ctx, FeaturedTripsKey, snapshot{Titles: []string{"Lisbon"}}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Delete(ctx, FeaturedTripsKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(FeaturedTripsKey) {
		t.Fatalf("expected key to be gone")
	}
}

func TestNilClientIsAlwaysMiss(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	var dest snapshot
	found, err := c.GetJSON(ctx, "k", &dest)
	if err != nil || found {
		t.Fatalf("expected miss, got %v %v", found, err)
	}
	if err := c.SetJSON(ctx, "k", dest, time.Minute); err != nil {
		t.Fatalf("set should be a no-op: %v", err)
	}

	boom := errors.New("db down")
	if err := c.Aside(ctx, "k", &dest, time.Minute, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error to surface, got %v", err)
	}
}
