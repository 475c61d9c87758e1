// Package dataset maintains the merged view of base transactions and
// overrides, reloading only when either source reports a change.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/store"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Dataset holds the last merged snapshot. Refresh is cheap when neither
// source changed: two LastModified probes and no row reads.
type Dataset struct {
	base      store.RowStore
	overrides store.OverrideStore

	group singleflight.Group

	mu          sync.RWMutex
	rows        []core.Transaction
	baseMod     time.Time
	overrideMod time.Time
	loaded      bool
	generation  uint64
	lastUpdated time.Time
}

func New(base store.RowStore, overrides store.OverrideStore) *Dataset {
	return &Dataset{base: base, overrides: overrides}
}

// Snapshot refreshes if needed and returns the merged rows. The returned
// slice is shared; callers must not mutate it.
func (d *Dataset) Snapshot(ctx context.Context) ([]core.Transaction, error) {
	if _, err := d.Refresh(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rows, nil
}

// Refresh reloads the snapshot when either source changed since the last
// load. Returns whether a reload happened. Concurrent callers share one
// reload.
func (d *Dataset) Refresh(ctx context.Context) (bool, error) {
	baseMod, overrideMod, err := d.probe(ctx)
	if err != nil {
		return false, d.fallback(ctx, err)
	}

	d.mu.RLock()
	fresh := d.loaded && baseMod.Equal(d.baseMod) && overrideMod.Equal(d.overrideMod)
	d.mu.RUnlock()
	if fresh {
		return false, nil
	}

	_, err, _ = d.group.Do("reload", func() (any, error) {
		return nil, d.reload(ctx, baseMod, overrideMod)
	})
	if err != nil {
		return false, d.fallback(ctx, err)
	}
	return true, nil
}

// Invalidate forces the next Refresh to reload even if neither source's
// freshness signal moved. Used after a local mutation so the caller sees
// its own write immediately.
func (d *Dataset) Invalidate() {
	d.mu.Lock()
	d.loaded = false
	d.mu.Unlock()
}

// Generation increments on every reload. Cache keys derived from it go
// stale the moment the underlying data changes.
func (d *Dataset) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.generation
}

// LastUpdated reports the newer of the two source timestamps at the last
// successful load.
func (d *Dataset) LastUpdated() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.overrideMod.After(d.baseMod) {
		return d.overrideMod
	}
	return d.baseMod
}

func (d *Dataset) probe(ctx context.Context) (time.Time, time.Time, error) {
	var baseMod, overrideMod time.Time
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		baseMod, err = d.base.LastModified(ctx)
		if err != nil {
			return fmt.Errorf("base freshness: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		overrideMod, err = d.overrides.LastModified(ctx)
		if err != nil {
			return fmt.Errorf("override freshness: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return baseMod, overrideMod, nil
}

func (d *Dataset) reload(ctx context.Context, baseMod, overrideMod time.Time) error {
	var (
		base      []core.Transaction
		overrides []core.Override
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, err = d.base.ReadAll(ctx)
		if err != nil {
			return fmt.Errorf("load base rows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		overrides, err = d.overrides.ReadAll(ctx)
		if err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	merged := core.Merge(base, overrides)

	d.mu.Lock()
	d.rows = merged
	d.baseMod = baseMod
	d.overrideMod = overrideMod
	d.loaded = true
	d.generation++
	d.lastUpdated = time.Now().UTC()
	gen := d.generation
	d.mu.Unlock()

	slog.InfoContext(ctx, "dataset reloaded",
		"rows", len(merged),
		"overrides", len(overrides),
		"generation", gen)
	return nil
}

// fallback serves the last good snapshot on transient source errors so a
// flaky data source degrades to stale data instead of an outage.
func (d *Dataset) fallback(ctx context.Context, cause error) error {
	d.mu.RLock()
	loaded := d.loaded
	age := time.Since(d.lastUpdated)
	d.mu.RUnlock()
	if loaded {
		slog.WarnContext(ctx, "dataset refresh failed, serving last snapshot",
			"age", age, "error", cause)
		return nil
	}
	return errors.Join(core.ErrDataSource, cause)
}
