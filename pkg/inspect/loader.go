package inspect

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/grafana/readelf/pkg/elfreader"
)

// Model is a loaded ELF file together with the input it was read from.
type Model struct {
	*elfreader.File
	Input *Input
}

type Config struct {
	// CacheSize is the number of models kept in memory. Zero disables the
	// cache.
	CacheSize int
	// MaxInputSize caps the size of a file after decompression. Zero means
	// no limit.
	MaxInputSize uint64
	Limits       elfreader.Limits
}

type cacheKey struct {
	fingerprint uint64
	size        int
}

// Loader opens files and loads them as ELF models. Models are cached by
// content, so the same binary under two paths is parsed once.
type Loader struct {
	fs      afero.Fs
	maxSize uint64
	logger  log.Logger
	metrics *Metrics
	opts    []elfreader.Option
	cache   *lru.Cache[cacheKey, *elfreader.File]
}

func NewLoader(fs afero.Fs, logger log.Logger, metrics *Metrics, cfg Config) (*Loader, error) {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	l := &Loader{
		fs:      fs,
		maxSize: cfg.MaxInputSize,
		logger:  logger,
		metrics: metrics,
		opts: []elfreader.Option{
			elfreader.WithLimits(cfg.Limits),
			elfreader.WithMetrics(metrics.Elf),
		},
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.NewWithEvict[cacheKey, *elfreader.File](cfg.CacheSize, func(cacheKey, *elfreader.File) {
			metrics.CacheOperations.WithLabelValues("add", "evicted").Inc()
		})
		if err != nil {
			return nil, err
		}
		l.cache = cache
	}
	return l, nil
}

// Load opens path and returns its model.
func (l *Loader) Load(ctx context.Context, path string) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := Open(l.fs, path, l.maxSize)
	if err != nil {
		return nil, err
	}
	l.metrics.Inputs.WithLabelValues(string(in.Compression)).Inc()

	key := cacheKey{fingerprint: in.Fingerprint, size: len(in.Data)}
	if l.cache != nil {
		if f, ok := l.cache.Get(key); ok {
			l.metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
			level.Debug(l.logger).Log("msg", "model cache hit", "path", path, "fingerprint", in.Fingerprint)
			return &Model{File: f, Input: in}, nil
		}
		l.metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
	}

	f, err := elfreader.Load(in.Source(), l.opts...)
	if err != nil {
		level.Debug(l.logger).Log("msg", "failed to load ELF file", "path", path, "err", err)
		return nil, errors.Wrap(err, path)
	}
	if l.cache != nil {
		l.cache.Add(key, f)
		l.metrics.CacheOperations.WithLabelValues("add", "success").Inc()
	}
	level.Debug(l.logger).Log("msg", "loaded ELF file", "path", path, "compression", in.Compression,
		"sections", f.NumSections(), "segments", f.NumPrograms())
	return &Model{File: f, Input: in}, nil
}
