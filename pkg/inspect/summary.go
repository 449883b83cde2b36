package inspect

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Summary is the one-line description of a file printed by the summary
// command.
type Summary struct {
	Path        string `json:"path" yaml:"path"`
	Class       string `json:"class,omitempty" yaml:"class,omitempty"`
	Encoding    string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Machine     string `json:"machine,omitempty" yaml:"machine,omitempty"`
	Sections    int    `json:"sections" yaml:"sections"`
	Segments    int    `json:"segments" yaml:"segments"`
	Size        int64  `json:"size" yaml:"size"`
	Compression string `json:"compression,omitempty" yaml:"compression,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	BuildID     string `json:"build_id,omitempty" yaml:"build_id,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summarize loads every path with at most concurrency files in flight. A file
// that fails to load still gets a Summary with Error set; the failures are
// also returned together as one error.
func Summarize(ctx context.Context, l *Loader, paths []string, concurrency int) ([]Summary, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	var (
		results = make([]Summary, len(paths))
		mu      sync.Mutex
		merr    *multierror.Error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			m, err := l.Load(ctx, path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				results[i] = Summary{Path: path, Error: err.Error()}
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
				return nil
			}
			results[i] = SummarizeModel(m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, merr.ErrorOrNil()
}

// SummarizeModel describes a single loaded model.
func SummarizeModel(m *Model) Summary {
	hdr := m.Header()
	s := Summary{
		Path:        m.Input.Path,
		Class:       m.Class().String(),
		Encoding:    m.Encoding().String(),
		Type:        hdr.Type.String(),
		Machine:     hdr.Machine.String(),
		Sections:    m.NumSections(),
		Segments:    m.NumPrograms(),
		Size:        m.Size(),
		Compression: string(m.Input.Compression),
		Fingerprint: fmt.Sprintf("%016x", m.Input.Fingerprint),
	}
	if id, err := m.BuildID(); err == nil {
		s.BuildID = id.Typ + ":" + id.ID
	}
	return s
}
