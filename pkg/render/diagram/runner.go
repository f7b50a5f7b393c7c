package diagram

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/cache"
	"github.com/matzehuels/imgblocks/pkg/location"
)

// Runner renders diagrams through a cache.
//
// The Runner holds no per-diagram state, so one Runner can serve
// concurrent requests with different inputs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Result is a rendered diagram.
type Result struct {
	Format   Format
	Data     []byte
	DOT      string
	CacheHit bool
}

// Run builds the DOT source for loc and blocks and renders it in format.
// DOT output is never cached; SVG and PNG renders are cached by DOT hash.
func (r *Runner) Run(ctx context.Context, loc location.Location, blocks []block.Block, format Format, opts Options) (*Result, error) {
	dot := ToDOT(loc, blocks, opts)
	res := &Result{Format: format, DOT: dot}

	if format == FormatDOT {
		res.Data = []byte(dot)
		return res, nil
	}

	key := r.Keyer.DiagramKey(cache.Hash([]byte(dot)), cache.DiagramKeyOpts{
		Format:   string(format),
		Detailed: opts.Detailed,
	})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		r.Logger.Debug("diagram cache hit", "format", format, "bytes", len(data))
		res.Data = data
		res.CacheHit = true
		return res, nil
	}

	data, err := Render(ctx, dot, format)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLDiagram); err != nil {
		r.Logger.Warn("cache diagram", "error", err)
	}
	r.Logger.Debug("rendered diagram", "format", format, "blocks", len(blocks), "bytes", len(data))

	res.Data = data
	return res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
