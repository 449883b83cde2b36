package main

import (
	"context"
	"errors"

	"github.com/go-kit/log/level"
	"github.com/spf13/afero"

	"github.com/grafana/readelf/pkg/clictx"
	"github.com/grafana/readelf/pkg/config"
	"github.com/grafana/readelf/pkg/elfreader"
	"github.com/grafana/readelf/pkg/inspect"
	"github.com/grafana/readelf/pkg/render"
)

var errFilesFailed = errors.New("one or more files could not be read")

type runOptions struct {
	tree      bool
	color     bool
	fileNames bool
}

type runner struct {
	loader      *inspect.Loader
	printer     *render.Printer
	concurrency int
}

func newRunner(ctx context.Context, fs afero.Fs, c *config.Config, opts runOptions) (*runner, error) {
	loader, err := inspect.NewLoader(fs, clictx.Logger(ctx), inspect.NewMetrics(clictx.Registry(ctx)), inspect.Config{
		CacheSize:    c.Cache.Size,
		MaxInputSize: uint64(c.Limits.MaxInputSize),
		Limits:       c.ElfLimits(),
	})
	if err != nil {
		return nil, err
	}
	return &runner{
		loader: loader,
		printer: render.NewPrinter(clictx.Output(ctx), render.Options{
			Format:    c.Output.Format,
			Color:     opts.color,
			Wide:      c.Output.Wide,
			Tree:      opts.tree,
			FileNames: opts.fileNames,
		}),
		concurrency: c.Batch.Concurrency,
	}, nil
}

func (r *runner) close() error {
	return r.printer.Close()
}

// each runs fn for every file. A file that fails is logged and skipped, and
// errFilesFailed is returned once all files were visited.
func (r *runner) each(ctx context.Context, files []string, fn func(path string, m *inspect.Model) error) error {
	failed := false
	for _, path := range files {
		ctx := clictx.WithInput(ctx, path)
		m, err := r.loader.Load(ctx, path)
		if err == nil {
			err = fn(path, m)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			level.Error(clictx.Logger(ctx)).Log("msg", "failed to read file", "err", err)
			failed = true
		}
	}
	if failed {
		return errFilesFailed
	}
	return nil
}

func (r *runner) fileHeader(ctx context.Context, files []string) error {
	return r.each(ctx, files, func(path string, m *inspect.Model) error {
		return r.printer.FileHeader(path, m.File)
	})
}

func (r *runner) programHeaders(ctx context.Context, files []string) error {
	return r.each(ctx, files, func(path string, m *inspect.Model) error {
		return r.printer.ProgramHeaders(path, m.File)
	})
}

func (r *runner) sectionHeaders(ctx context.Context, files []string) error {
	return r.each(ctx, files, func(path string, m *inspect.Model) error {
		return r.printer.SectionHeaders(path, m.File)
	})
}

func (r *runner) headers(ctx context.Context, files []string) error {
	return r.each(ctx, files, func(path string, m *inspect.Model) error {
		return r.printer.Headers(path, m.File)
	})
}

func (r *runner) hexDump(ctx context.Context, section string, files []string) error {
	return r.each(ctx, files, func(path string, m *inspect.Model) error {
		i, err := inspect.ResolveSection(m.File, section)
		if err != nil {
			return err
		}
		return r.printer.HexDump(path, m.File, i)
	})
}

func (r *runner) stringDump(ctx context.Context, section string, files []string) error {
	return r.each(ctx, files, func(path string, m *inspect.Model) error {
		i, err := inspect.ResolveSection(m.File, section)
		if err != nil {
			return err
		}
		return r.printer.StringDump(path, m.File, i)
	})
}

func (r *runner) buildID(ctx context.Context, files []string) error {
	return r.each(ctx, files, func(path string, m *inspect.Model) error {
		id, err := m.BuildID()
		if errors.Is(err, elfreader.ErrNoBuildIDSection) {
			level.Warn(clictx.Logger(ctx)).Log("msg", "no build ID", "path", path)
			return nil
		}
		if err != nil {
			return err
		}
		return r.printer.BuildID(path, id)
	})
}

func (r *runner) summary(ctx context.Context, files []string) error {
	summaries, err := inspect.Summarize(ctx, r.loader, files, r.concurrency)
	if summaries == nil {
		return err
	}
	if perr := r.printer.Summaries(summaries); perr != nil {
		return perr
	}
	if err != nil {
		level.Debug(clictx.Logger(ctx)).Log("msg", "some files could not be summarized", "err", err)
		return errFilesFailed
	}
	return nil
}
