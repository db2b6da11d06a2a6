// Package fileproc provides concurrent per-file processing.
package fileproc

import (
	"context"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/adlimen/dupcheck/pkg/parser"
)

// DefaultWorkerMultiplier is applied to NumCPU for the worker count.
// 2x suits the mixed I/O and CGO parsing workload.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// ErrorFunc receives the path and error for each file that failed.
type ErrorFunc func(path string, err error)

// Options configures a parallel run.
type Options struct {
	MaxWorkers int
	OnProgress ProgressFunc
	OnError    ErrorFunc
}

func (o Options) workers() int {
	if o.MaxWorkers > 0 {
		return o.MaxWorkers
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// MapFiles processes files in parallel, lending fn a parser from a pool
// so each worker reuses one instead of constructing a parser per file.
// All pooled parsers are closed when the run finishes. Results are
// collected in arbitrary order; callers that need a stable order must
// sort afterward. Per-file errors go to opts.OnError and do not stop
// the run.
func MapFiles[T any](ctx context.Context, files []string, fn func(*parser.Parser, string) (T, error), opts Options) []T {
	var mu sync.Mutex
	var parsers []*parser.Parser
	parserPool := sync.Pool{
		New: func() any {
			psr := parser.New()
			mu.Lock()
			parsers = append(parsers, psr)
			mu.Unlock()
			return psr
		},
	}

	results := run(ctx, files, opts, func(path string) (T, error) {
		psr := parserPool.Get().(*parser.Parser)
		defer parserPool.Put(psr)
		return fn(psr, path)
	})

	for _, psr := range parsers {
		psr.Close()
	}
	return results
}

// ForEachFile processes files in parallel without a parser. Use for
// line-oriented work that never touches a syntax tree.
func ForEachFile[T any](ctx context.Context, files []string, fn func(string) (T, error), opts Options) []T {
	return run(ctx, files, opts, fn)
}

func run[T any](ctx context.Context, files []string, opts Options, fn func(string) (T, error)) []T {
	if len(files) == 0 {
		return nil
	}

	results := make([]T, 0, len(files))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(opts.workers())
	for _, path := range files {
		path := path
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}

			result, err := fn(path)
			if opts.OnProgress != nil {
				opts.OnProgress()
			}
			if err != nil {
				if opts.OnError != nil {
					opts.OnError(path, err)
				}
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}
