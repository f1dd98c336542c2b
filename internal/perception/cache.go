package perception

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"voxelagent.ai/internal/world"
)

var ErrClosed = errors.New("perception: cache closed")

type CacheConfig struct {
	TileRadius      int
	VerticalRange   int
	MaxBlocks       int
	RefreshInterval time.Duration
	ShutdownTimeout time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TileRadius:      4,
		VerticalRange:   8,
		MaxBlocks:       20,
		RefreshInterval: 60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

func (c CacheConfig) Validate() error {
	switch {
	case c.TileRadius < 0:
		return fmt.Errorf("perception: tile radius %d < 0", c.TileRadius)
	case c.VerticalRange < 0:
		return fmt.Errorf("perception: vertical range %d < 0", c.VerticalRange)
	case c.MaxBlocks < 0:
		return fmt.Errorf("perception: max blocks %d < 0", c.MaxBlocks)
	case c.RefreshInterval <= 0:
		return fmt.Errorf("perception: refresh interval must be positive")
	}
	return nil
}

// Locator reports where the scan should be centered.
type Locator interface {
	Position() world.Vec3
}

type Stats struct {
	Refreshes   uint64
	LastRefresh time.Time
	LastScan    time.Duration
	Samples     int
	Nearby      int
	Center      world.BlockPos
}

// Cache owns the last full sample set and the bounded nearest index. A single
// scheduler goroutine refreshes both; readers never wait for a scan.
type Cache struct {
	w   world.World
	loc Locator
	log *zap.Logger

	mu     sync.RWMutex
	all    []BlockSample
	nearby []BlockSample
	stats  Stats

	ctl    sync.Mutex
	cfg    CacheConfig
	run    *schedule
	closed bool
}

type schedule struct {
	stop   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

func NewCache(w world.World, loc Locator, cfg CacheConfig, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultCacheConfig().ShutdownTimeout
	}
	return &Cache{
		w:      w,
		loc:    loc,
		log:    log.Named("cache"),
		cfg:    cfg,
		all:    []BlockSample{},
		nearby: []BlockSample{},
	}
}

// Start launches the refresh schedule. The first refresh runs immediately.
// Calling Start on a running cache is a no-op.
func (c *Cache) Start() error {
	c.ctl.Lock()
	defer c.ctl.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.run != nil {
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	c.run = c.spawn(c.cfg)
	return nil
}

// Reconfigure stops the current schedule, waits for it to exit, then installs
// cfg and reschedules. On a cache that was never started it only stores cfg.
func (c *Cache) Reconfigure(cfg CacheConfig) error {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultCacheConfig().ShutdownTimeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.ctl.Lock()
	defer c.ctl.Unlock()
	if c.closed {
		return ErrClosed
	}
	running := c.run != nil
	if running {
		c.halt(c.run, c.cfg.ShutdownTimeout)
		c.run = nil
	}
	c.cfg = cfg
	if running {
		c.run = c.spawn(cfg)
	}
	c.log.Info("reconfigured",
		zap.Int("tile_radius", cfg.TileRadius),
		zap.Int("vertical_range", cfg.VerticalRange),
		zap.Int("max_blocks", cfg.MaxBlocks),
		zap.Duration("interval", cfg.RefreshInterval))
	return nil
}

// Close stops the schedule. An in-flight refresh gets ShutdownTimeout to
// finish before its scan is canceled. Safe to call more than once.
func (c *Cache) Close() error {
	c.ctl.Lock()
	defer c.ctl.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.run != nil {
		c.halt(c.run, c.cfg.ShutdownTimeout)
		c.run = nil
	}
	return nil
}

func (c *Cache) Config() CacheConfig {
	c.ctl.Lock()
	defer c.ctl.Unlock()
	return c.cfg
}

func (c *Cache) spawn(cfg CacheConfig) *schedule {
	ctx, cancel := context.WithCancel(context.Background())
	s := &schedule{stop: make(chan struct{}), done: make(chan struct{}), cancel: cancel}
	go c.loop(ctx, s, cfg)
	return s
}

func (c *Cache) halt(s *schedule, timeout time.Duration) {
	close(s.stop)
	select {
	case <-s.done:
	case <-time.After(timeout):
		c.log.Warn("refresh did not finish in time; canceling scan", zap.Duration("timeout", timeout))
		s.cancel()
		<-s.done
	}
	s.cancel()
}

func (c *Cache) loop(ctx context.Context, s *schedule, cfg CacheConfig) {
	defer close(s.done)
	t := time.NewTicker(cfg.RefreshInterval)
	defer t.Stop()

	c.refresh(ctx, cfg)
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			select {
			case <-s.stop:
				return
			default:
			}
			c.refresh(ctx, cfg)
		}
	}
}

func (c *Cache) refresh(ctx context.Context, cfg CacheConfig) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("refresh panicked", zap.Any("panic", r))
		}
	}()

	start := time.Now()
	center := c.loc.Position().Block()
	samples, err := Sample(ctx, c.w, Region{
		Center:        center,
		TileRadius:    cfg.TileRadius,
		VerticalRange: cfg.VerticalRange,
	})
	if err != nil {
		c.log.Debug("refresh aborted", zap.Error(err))
		return
	}
	idx := Nearest(samples, center, cfg.MaxBlocks)

	c.mu.Lock()
	c.all = samples
	c.nearby = idx
	c.stats.Refreshes++
	c.stats.LastRefresh = time.Now()
	c.stats.LastScan = time.Since(start)
	c.stats.Samples = len(samples)
	c.stats.Nearby = len(idx)
	c.stats.Center = center
	c.mu.Unlock()

	c.log.Debug("refreshed",
		zap.Int("samples", len(samples)),
		zap.Int("nearby", len(idx)),
		zap.Duration("took", time.Since(start)))
}

// NearbyBlocks returns the last bounded nearest-per-type list.
func (c *Cache) NearbyBlocks() []BlockSample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.nearby)
}

// BlocksOfType searches the full last sample set for blocks whose type equals
// or contains blockType, nearest to the last scan center first. Finding fewer
// than n is logged as a warning; n <= 0 returns every match.
func (c *Cache) BlocksOfType(blockType string, n int) []BlockSample {
	want := strings.ToLower(world.ItemPath(strings.TrimSpace(blockType)))
	if want == "" {
		return nil
	}

	c.mu.RLock()
	center := c.stats.Center
	var out []BlockSample
	for _, s := range c.all {
		t := strings.ToLower(s.Type)
		if t == want || strings.Contains(t, want) {
			out = append(out, s)
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos.DistSq(center) < out[j].Pos.DistSq(center)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	if n > 0 && len(out) < n {
		c.log.Warn("fewer blocks than requested",
			zap.String("type", want), zap.Int("requested", n), zap.Int("found", len(out)))
	}
	return out
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
