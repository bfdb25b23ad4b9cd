package refdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"league-auditor/internal/domain"

	"github.com/rs/zerolog"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

type fakeSource struct {
	versions      []string
	versionErr    error
	versionCalls  int
	champions     map[int64]domain.Champion
	championErr   error
	championCalls int
}

func (f *fakeSource) Versions(context.Context) ([]string, error) {
	f.versionCalls++
	return f.versions, f.versionErr
}

func (f *fakeSource) Champions(context.Context, string) (map[int64]domain.Champion, error) {
	f.championCalls++
	return f.champions, f.championErr
}

func newTestCache(src *fakeSource, clock *fakeClock) *Cache {
	return newCache(src, clock, "14.0.1", zerolog.Nop())
}

func TestVersionCachedWithinTTL(t *testing.T) {
	src := &fakeSource{versions: []string{"15.2.1", "15.1.1"}}
	clock := &fakeClock{now: time.Unix(1_000_000, 0)}
	c := newTestCache(src, clock)

	ctx := context.Background()
	if got := c.Version(ctx); got != "15.2.1" {
		t.Fatalf("version = %q", got)
	}
	if src.versionCalls != 1 {
		t.Fatalf("calls = %d", src.versionCalls)
	}

	clock.advance(11 * time.Hour)
	if got := c.Version(ctx); got != "15.2.1" {
		t.Errorf("version = %q", got)
	}
	if src.versionCalls != 1 {
		t.Errorf("calls = %d, want 1 (no network within TTL)", src.versionCalls)
	}
}

func TestVersionRefreshesAfterTTL(t *testing.T) {
	src := &fakeSource{versions: []string{"15.2.1"}}
	clock := &fakeClock{now: time.Unix(1_000_000, 0)}
	c := newTestCache(src, clock)

	ctx := context.Background()
	c.Version(ctx)

	src.versions = []string{"15.3.1"}
	clock.advance(13 * time.Hour)

	if got := c.Version(ctx); got != "15.3.1" {
		t.Errorf("version = %q, want refreshed 15.3.1", got)
	}
	if src.versionCalls != 2 {
		t.Errorf("calls = %d, want 2", src.versionCalls)
	}
}

func TestVersionFailedRefreshKeepsStaleValue(t *testing.T) {
	src := &fakeSource{versions: []string{"15.2.1"}}
	clock := &fakeClock{now: time.Unix(1_000_000, 0)}
	c := newTestCache(src, clock)

	ctx := context.Background()
	c.Version(ctx)

	src.versionErr = errors.New("network down")
	clock.advance(20 * time.Hour)

	if got := c.Version(ctx); got != "15.2.1" {
		t.Errorf("version = %q, want prior value unchanged", got)
	}
}

func TestVersionFallsBackToConfigured(t *testing.T) {
	src := &fakeSource{versionErr: errors.New("network down")}
	c := newTestCache(src, &fakeClock{now: time.Unix(1_000_000, 0)})

	if got := c.Version(context.Background()); got != "14.0.1" {
		t.Errorf("version = %q, want configured fallback", got)
	}
}

func TestChampionsFailedRefreshDegradesToNil(t *testing.T) {
	src := &fakeSource{
		versions:    []string{"15.2.1"},
		championErr: errors.New("network down"),
	}
	c := newTestCache(src, &fakeClock{now: time.Unix(1_000_000, 0)})

	if got := c.Champions(context.Background()); got != nil {
		t.Errorf("champions = %v, want nil when nothing cached", got)
	}
}

func TestChampionLookup(t *testing.T) {
	src := &fakeSource{
		versions: []string{"15.2.1"},
		champions: map[int64]domain.Champion{
			266: {Key: 266, ID: "Aatrox", Name: "Aatrox"},
		},
	}
	clock := &fakeClock{now: time.Unix(1_000_000, 0)}
	c := newTestCache(src, clock)

	ctx := context.Background()
	champ, ok := c.Champion(ctx, 266)
	if !ok || champ.Name != "Aatrox" {
		t.Fatalf("champion = %+v, ok = %v", champ, ok)
	}
	if _, ok := c.Champion(ctx, 999); ok {
		t.Error("unexpected hit for unknown key")
	}
	if src.championCalls != 1 {
		t.Errorf("calls = %d, want 1 (second lookup served from cache)", src.championCalls)
	}

	// a failed refresh after expiry keeps serving the prior table
	src.championErr = errors.New("network down")
	clock.advance(25 * time.Hour)
	if _, ok := c.Champion(ctx, 266); !ok {
		t.Error("stale table not served after failed refresh")
	}
}
