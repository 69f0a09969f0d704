package arbor

import (
	"context"
	"runtime"
	"sync"

	"github.com/jward/arbor/internal/detect"
	"github.com/jward/arbor/internal/store"
)

// fileResult carries one file's detection output back to the collector.
type fileResult struct {
	path  string
	calls []detect.RawCall
	err   error
}

// detectCallsParallel runs call detection across a worker pool. Workers only
// parse and walk; results are merged in sorted-path order so output is
// deterministic regardless of scheduling. The store is never touched here.
func (e *Engine) detectCallsParallel(ctx context.Context, paths []string, symbolsByFile map[string][]*store.Symbol, knownNames map[string]bool) ([]detect.RawCall, int, error) {
	if len(paths) == 0 {
		return nil, 0, nil
	}

	workers := runtime.NumCPU()
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	results := make(chan fileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				calls, err := e.detector.DetectFile(ctx, path, symbolsByFile[path], knownNames)
				results <- fileResult{path: path, calls: calls, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byPath := make(map[string][]detect.RawCall, len(paths))
	skipped := 0
	for res := range results {
		if res.err != nil {
			e.logger.Warn("skipping file", "path", res.path, "err", res.err)
			skipped++
			continue
		}
		byPath[res.path] = res.calls
	}
	if err := ctx.Err(); err != nil {
		return nil, skipped, err
	}

	// paths arrives pre-sorted; replaying it keeps edge order stable.
	var calls []detect.RawCall
	for _, path := range paths {
		calls = append(calls, byPath[path]...)
	}
	return calls, skipped, nil
}
